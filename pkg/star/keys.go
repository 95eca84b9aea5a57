// pkg/star/keys.go
package star

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/model"
)

// dimensionSpec declares how one dimension is carved out of the cleaned
// record set. factNaturalKey is the fact column replaced by this
// dimension's surrogate key; empty means the fact references the dimension
// another way (dim_reviews is reached through order_id).
type dimensionSpec struct {
	name           string
	keyColumn      string
	naturalKey     string
	factNaturalKey string
	columns        []string
}

var dimensionSpecs = []dimensionSpec{
	{
		name:           "dim_customers",
		keyColumn:      "customer_key",
		naturalKey:     "customer_id",
		factNaturalKey: "customer_id",
		columns: []string{
			"customer_id", "customer_unique_id", "customer_zip_code_prefix",
			"customer_city", "customer_state",
		},
	},
	{
		name:           "dim_sellers",
		keyColumn:      "seller_key",
		naturalKey:     "seller_id",
		factNaturalKey: "seller_id",
		columns: []string{
			"seller_id", "seller_zip_code_prefix", "seller_city", "seller_state",
		},
	},
	{
		name:           "dim_products",
		keyColumn:      "product_key",
		naturalKey:     "product_id",
		factNaturalKey: "product_id",
		columns: []string{
			"product_id", "product_category_name", "product_category_name_english",
			"product_name_length", "product_description_length", "product_photos_qty",
			"product_weight_g", "product_length_cm", "product_height_cm", "product_width_cm",
		},
	},
	{
		name:           "dim_payment_types",
		keyColumn:      "payment_type_key",
		naturalKey:     "payment_type",
		factNaturalKey: "payment_type",
		columns:        []string{"payment_type"},
	},
	{
		name:       "dim_reviews",
		keyColumn:  "review_key",
		naturalKey: "review_id",
		columns:    []string{"review_id", "order_id", "review_score"},
	},
}

// dimension is a built dimension table plus its natural-key lookup for
// surrogate substitution. When a natural key maps to several dimension rows
// the first-seen surrogate wins, so the fact never multiplies.
type dimension struct {
	table        *model.Table
	keyByNatural map[interface{}]int64
}

// buildDimension projects the spec's columns, deduplicates on the full
// projected row, and assigns one-based contiguous surrogate keys in
// first-seen order.
func buildDimension(clean *model.Table, spec dimensionSpec, logger *zap.Logger) (*dimension, error) {
	projected, err := clean.Project(spec.name, spec.columns...)
	if err != nil {
		return nil, err
	}

	table := model.NewTable(spec.name, append([]string{spec.keyColumn}, spec.columns...)...)
	keyByNatural := make(map[interface{}]int64)
	rowsByNatural := make(map[interface{}]int)

	seen := make(map[string]bool, projected.NumRows())
	var nextKey int64 = 1
	for _, row := range projected.Rows {
		fp := rowFingerprint(row, spec.columns)
		if seen[fp] {
			continue
		}
		seen[fp] = true

		dimRow := make(model.Row, len(spec.columns)+1)
		for _, col := range spec.columns {
			dimRow[col] = row[col]
		}
		dimRow[spec.keyColumn] = nextKey

		natural := row[spec.naturalKey]
		if _, exists := keyByNatural[natural]; !exists {
			keyByNatural[natural] = nextKey
		}
		rowsByNatural[natural]++

		table.AppendRow(dimRow)
		nextKey++
	}

	// Same natural key, differing descriptive attributes: kept as distinct
	// rows, reported as a data-quality condition.
	duplicated := 0
	for _, n := range rowsByNatural {
		if n > 1 {
			duplicated++
		}
	}
	if duplicated > 0 {
		logger.Warn("Natural keys with conflicting descriptive attributes",
			zap.String("dimension", spec.name),
			zap.String("natural_key", spec.naturalKey),
			zap.Int("keys", duplicated))
	}

	return &dimension{table: table, keyByNatural: keyByNatural}, nil
}

// rowFingerprint builds a deterministic identity for full-row deduplication.
func rowFingerprint(row model.Row, columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		if row[col] == nil {
			parts[i] = "\x00"
			continue
		}
		parts[i] = model.FormatValue(row[col])
	}
	return strings.Join(parts, "\x1f")
}
