// pkg/converter/mapping.go
package converter

import (
	"github.com/ecomdw/warehouse-pipeline/pkg/model"
)

// RawTypeMapping is the canonical type mapping applied to each source table
// right after extraction, before merging. Enum-like columns stay plain
// strings at this point; the category distinction only matters once the
// cleaned record set is re-typed for modeling.
func RawTypeMapping() model.TypeMapping {
	m := baseTypeMapping()
	return m
}

// FinalTypeMapping is the full canonical mapping applied to the cleaned
// record set before dimensional modeling: identical to the raw mapping
// except that low-cardinality columns are marked as categories.
func FinalTypeMapping() model.TypeMapping {
	m := baseTypeMapping()
	for _, col := range []string{
		"order_status",
		"customer_state",
		"payment_type",
		"product_category_name",
		"product_category_name_english",
		"seller_state",
	} {
		m[col] = model.TypeCategory
	}
	return m
}

// baseTypeMapping declares one canonical type per known column name,
// shared across all eight source tables.
func baseTypeMapping() model.TypeMapping {
	return model.TypeMapping{
		"order_id":                      model.TypeString,
		"customer_id":                   model.TypeString,
		"order_status":                  model.TypeString,
		"order_purchase_timestamp":      model.TypeTimestamp,
		"order_approved_at":             model.TypeTimestamp,
		"order_delivered_carrier_date":  model.TypeTimestamp,
		"order_delivered_customer_date": model.TypeTimestamp,
		"order_estimated_delivery_date": model.TypeTimestamp,
		"customer_unique_id":            model.TypeString,
		"customer_zip_code_prefix":      model.TypeInt32,
		"customer_city":                 model.TypeString,
		"customer_state":                model.TypeString,
		"payment_sequential":            model.TypeInt32,
		"payment_type":                  model.TypeString,
		"payment_installments":          model.TypeInt32,
		"payment_value":                 model.TypeFloat32,
		"review_id":                     model.TypeString,
		"review_score":                  model.TypeFloat32,
		"review_comment_title":          model.TypeString,
		"review_comment_message":        model.TypeString,
		"review_creation_date":          model.TypeTimestamp,
		"review_answer_timestamp":       model.TypeTimestamp,
		"order_item_id":                 model.TypeInt32,
		"product_id":                    model.TypeString,
		"seller_id":                     model.TypeString,
		"shipping_limit_date":           model.TypeTimestamp,
		"price":                         model.TypeFloat32,
		"freight_value":                 model.TypeFloat32,
		"product_category_name":         model.TypeString,
		"product_name_lenght":           model.TypeFloat32,
		"product_description_lenght":    model.TypeFloat32,
		"product_name_length":           model.TypeFloat32,
		"product_description_length":    model.TypeFloat32,
		"product_photos_qty":            model.TypeFloat32,
		"product_weight_g":              model.TypeFloat32,
		"product_length_cm":             model.TypeFloat32,
		"product_height_cm":             model.TypeFloat32,
		"product_width_cm":              model.TypeFloat32,
		"product_category_name_english": model.TypeString,
		"seller_zip_code_prefix":        model.TypeInt32,
		"seller_city":                   model.TypeString,
		"seller_state":                  model.TypeString,
	}
}
