// pkg/extract/schema.go
package extract

// SourceTable declares one raw extract: where it lives in the source
// database, the logical name downstream stages use, and the column that
// joins it into the merged record set.
type SourceTable struct {
	Name       string // Logical table name
	SourceName string // Physical table name in the source database
	JoinKey    string // Column the merger joins this table on
}

// SourceTables lists the eight raw extracts in merge order.
func SourceTables() []SourceTable {
	return []SourceTable{
		{Name: "orders", SourceName: "olist_orders_dataset", JoinKey: "order_id"},
		{Name: "customers", SourceName: "olist_customers_dataset", JoinKey: "customer_id"},
		{Name: "order_payments", SourceName: "olist_order_payments_dataset", JoinKey: "order_id"},
		{Name: "order_reviews", SourceName: "olist_order_reviews_dataset", JoinKey: "order_id"},
		{Name: "order_items", SourceName: "olist_order_items_dataset", JoinKey: "order_id"},
		{Name: "products", SourceName: "olist_products_dataset", JoinKey: "product_id"},
		{Name: "category_translation", SourceName: "product_category_name_translation", JoinKey: "product_category_name"},
		{Name: "sellers", SourceName: "olist_sellers_dataset", JoinKey: "seller_id"},
	}
}
