// pkg/pipeline/verifier.go
package pipeline

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/model"
	"github.com/ecomdw/warehouse-pipeline/pkg/star"
)

// IntegrityIssue represents a data integrity issue found during verification
type IntegrityIssue struct {
	IssueType    string
	Description  string
	TableName    string
	ColumnName   string
	AffectedRows int
}

// Verifier runs integrity checks between the cleaned dataset and the
// dimensional model before anything is written to the warehouse.
type Verifier struct {
	logger *zap.Logger
}

// NewVerifier creates a new verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.L()
	}
	return &Verifier{logger: logger.Named("verifier")}
}

// VerifyCleaned checks that the cleaned table carries no null cells. The
// cleaning stage guarantees this; a violation here means a cleaning step
// regressed.
func (v *Verifier) VerifyCleaned(cleaned *model.Table) error {
	var err error
	for column, count := range cleaned.NullCounts() {
		if count > 0 {
			err = multierr.Append(err, fmt.Errorf(
				"column %s has %d null values after cleaning", column, count))
		}
	}
	if err != nil {
		return fmt.Errorf("verification failed for %s: %w", cleaned.Name, err)
	}
	v.logger.Info("Cleaned dataset verified",
		zap.String("table", cleaned.Name),
		zap.Int("rows", cleaned.NumRows()))
	return nil
}

// VerifyStarSchema checks the dimensional model: surrogate keys are dense
// and one-based, every fact reference resolves to a dimension row, natural
// keys replaced by surrogates no longer appear on the fact, and no order
// was lost between the cleaned dataset and the fact table.
func (v *Verifier) VerifyStarSchema(cleaned *model.Table, schema *star.StarSchema) error {
	var err error

	dims := map[string]*model.Table{
		"customer_key":     schema.DimCustomers,
		"seller_key":       schema.DimSellers,
		"product_key":      schema.DimProducts,
		"payment_type_key": schema.DimPaymentTypes,
	}

	for keyColumn, dim := range dims {
		err = multierr.Append(err, v.verifySurrogates(dim, keyColumn))
		err = multierr.Append(err, v.verifyReferences(schema.FactOrders, dim, keyColumn))
	}
	err = multierr.Append(err, v.verifySurrogates(schema.DimReviews, "review_key"))

	for _, natural := range []string{"customer_id", "seller_id", "product_id", "payment_type"} {
		if schema.FactOrders.HasColumn(natural) {
			err = multierr.Append(err, fmt.Errorf(
				"fact table still carries natural key column %s", natural))
		}
	}

	cleanedOrders := cleaned.DistinctCount("order_id")
	factOrders := schema.FactOrders.DistinctCount("order_id")
	if cleanedOrders != factOrders {
		err = multierr.Append(err, fmt.Errorf(
			"distinct order count changed during modeling: cleaned %d, fact %d",
			cleanedOrders, factOrders))
	}

	if err != nil {
		return fmt.Errorf("verification failed for star schema: %w", err)
	}

	v.logger.Info("Star schema verified",
		zap.Int("factRows", schema.FactOrders.NumRows()),
		zap.Int("distinctOrders", factOrders))
	return nil
}

// verifySurrogates checks that a dimension's key column holds the dense
// sequence 1..N in row order.
func (v *Verifier) verifySurrogates(dim *model.Table, keyColumn string) error {
	if !dim.HasColumn(keyColumn) {
		return fmt.Errorf("dimension %s is missing key column %s", dim.Name, keyColumn)
	}
	for i, row := range dim.Rows {
		key, ok := row[keyColumn].(int64)
		if !ok || key != int64(i)+1 {
			return fmt.Errorf("dimension %s has non-contiguous surrogate at row %d: %v",
				dim.Name, i, row[keyColumn])
		}
	}
	return nil
}

// verifyReferences checks that every non-null surrogate on the fact resolves
// to a dimension row.
func (v *Verifier) verifyReferences(fact, dim *model.Table, keyColumn string) error {
	if !fact.HasColumn(keyColumn) {
		return fmt.Errorf("fact table %s is missing key column %s", fact.Name, keyColumn)
	}

	known := make(map[int64]struct{}, dim.NumRows())
	for _, row := range dim.Rows {
		if key, ok := row[keyColumn].(int64); ok {
			known[key] = struct{}{}
		}
	}

	dangling := 0
	unresolved := 0
	for _, row := range fact.Rows {
		switch key := row[keyColumn].(type) {
		case nil:
			unresolved++
		case int64:
			if _, ok := known[key]; !ok {
				dangling++
			}
		default:
			dangling++
		}
	}

	if unresolved > 0 {
		v.logger.Warn("Fact rows with unresolved dimension reference",
			zap.String("dimension", dim.Name),
			zap.String("column", keyColumn),
			zap.Int("rows", unresolved))
	}
	if dangling > 0 {
		return fmt.Errorf("referential integrity violation: %d fact rows reference no %s row via %s",
			dangling, dim.Name, keyColumn)
	}
	return nil
}
