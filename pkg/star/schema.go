// pkg/star/schema.go
package star

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/model"
)

// StarSchema is the pipeline's dimensional model: five dimension tables and
// one fact table referencing them by surrogate key.
type StarSchema struct {
	DimCustomers    *model.Table
	DimSellers      *model.Table
	DimProducts     *model.Table
	DimPaymentTypes *model.Table
	DimReviews      *model.Table
	FactOrders      *model.Table
}

// Tables returns the schema's tables in load order, dimensions first.
func (s *StarSchema) Tables() []*model.Table {
	return []*model.Table{
		s.DimCustomers,
		s.DimSellers,
		s.DimProducts,
		s.DimPaymentTypes,
		s.DimReviews,
		s.FactOrders,
	}
}

// factTimestampColumns are resolved to true timestamps in the fact table.
var factTimestampColumns = []string{
	"order_purchase_timestamp",
	"order_approved_at",
	"order_delivered_carrier_date",
	"order_delivered_customer_date",
	"order_estimated_delivery_date",
	"shipping_limit_date",
}

// factCategoricalColumns are carried in the fact table as canonical strings.
var factCategoricalColumns = []string{"order_status", "payment_type"}

// Modeler partitions the cleaned record set into the star schema and
// assigns surrogate keys.
type Modeler struct {
	logger *zap.Logger
}

// NewModeler creates a new Modeler.
func NewModeler(logger *zap.Logger) (*Modeler, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Modeler{logger: logger}, nil
}

// Generate builds the five dimensions and the fact table from the cleaned
// record set. Dimensions deduplicate on the full projected row; a natural
// key observed with differing descriptive attributes stays as distinct rows
// and is reported as a data-quality warning. Surrogate keys are one-based
// contiguous int64 values, stable for the run.
func (m *Modeler) Generate(clean *model.Table) (*StarSchema, error) {
	if clean == nil {
		return nil, errors.New("cleaned table cannot be nil")
	}

	dims := make(map[string]*dimension, len(dimensionSpecs))
	for _, spec := range dimensionSpecs {
		dim, err := buildDimension(clean, spec, m.logger)
		if err != nil {
			return nil, fmt.Errorf("dimension %s: %w", spec.name, err)
		}
		dims[spec.name] = dim
	}

	fact, err := m.buildFact(clean, dims)
	if err != nil {
		return nil, fmt.Errorf("fact_orders: %w", err)
	}

	schema := &StarSchema{
		DimCustomers:    dims["dim_customers"].table,
		DimSellers:      dims["dim_sellers"].table,
		DimProducts:     dims["dim_products"].table,
		DimPaymentTypes: dims["dim_payment_types"].table,
		DimReviews:      dims["dim_reviews"].table,
		FactOrders:      fact,
	}

	m.logger.Info("Generated star schema",
		zap.Int("dim_customers", schema.DimCustomers.NumRows()),
		zap.Int("dim_sellers", schema.DimSellers.NumRows()),
		zap.Int("dim_products", schema.DimProducts.NumRows()),
		zap.Int("dim_payment_types", schema.DimPaymentTypes.NumRows()),
		zap.Int("dim_reviews", schema.DimReviews.NumRows()),
		zap.Int("fact_orders", schema.FactOrders.NumRows()))

	return schema, nil
}

// buildFact projects the fact-relevant columns, canonicalizes value types,
// and swaps natural keys for surrogate references.
func (m *Modeler) buildFact(clean *model.Table, dims map[string]*dimension) (*model.Table, error) {
	factColumns := []string{
		"order_id", "customer_id", "seller_id", "product_id", "order_status",
		"order_purchase_timestamp", "order_approved_at", "order_delivered_carrier_date",
		"order_delivered_customer_date", "order_estimated_delivery_date", "shipping_limit_date",
		"payment_installments", "payment_value", "price", "freight_value", "payment_type",
	}

	fact, err := clean.Project("fact_orders", factColumns...)
	if err != nil {
		return nil, err
	}

	// Categorical columns become plain strings, timestamp columns true
	// timestamps, regardless of what the upstream typing pass produced.
	for _, row := range fact.Rows {
		for _, col := range factCategoricalColumns {
			if row[col] != nil {
				row[col] = model.FormatValue(row[col])
			}
		}
		for _, col := range factTimestampColumns {
			if v, ok := row[col].(time.Time); ok {
				row[col] = v.UTC()
			}
		}
	}

	// Resolve natural keys to surrogate references. A natural key with no
	// dimension row leaves a nil reference: a data-quality signal for
	// downstream detection, not an error.
	unresolved := 0
	for _, spec := range dimensionSpecs {
		if spec.factNaturalKey == "" {
			continue
		}
		lookup := dims[spec.name].keyByNatural
		for _, row := range fact.Rows {
			key, ok := lookup[row[spec.factNaturalKey]]
			if !ok {
				row[spec.keyColumn] = nil
				unresolved++
				continue
			}
			row[spec.keyColumn] = key
		}
		fact.Columns = append(fact.Columns, spec.keyColumn)
	}
	if unresolved > 0 {
		m.logger.Warn("Fact rows with unresolved dimension references",
			zap.Int("references", unresolved))
	}

	// The natural keys the surrogates replace must not survive in the fact
	fact.DropColumns("customer_id", "seller_id", "product_id", "payment_type")

	return fact, nil
}
