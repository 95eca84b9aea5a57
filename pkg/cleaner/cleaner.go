// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/model"
)

// Placeholder fill values for free-text and categorical columns.
const (
	textPlaceholder        = "Not Available"
	categoricalPlaceholder = "Unknown"
)

// reviewTextColumns are filled with the free-text placeholder.
var reviewTextColumns = []string{"review_comment_title", "review_comment_message"}

// categoricalColumns are filled with the categorical placeholder.
var categoricalColumns = []string{"payment_type", "product_category_name", "product_category_name_english"}

// medianColumns get their missing values replaced by the per-column median
// computed over the full table before any fill touches them.
var medianColumns = []string{
	"payment_sequential", "payment_installments", "order_item_id",
	"price", "freight_value", "product_photos_qty",
	"product_weight_g", "product_length_cm", "product_height_cm", "product_width_cm",
}

// columnRenames corrects the two known misspelled source column names.
var columnRenames = map[string]string{
	"product_name_lenght":        "product_name_length",
	"product_description_lenght": "product_description_length",
}

// timestampBackfills is the ordered back-fill chain: a missing timestamp
// takes the value of its source column. Order matters: the carrier date may
// receive an approval date that was itself just filled.
var timestampBackfills = []struct{ target, source string }{
	{"order_approved_at", "order_purchase_timestamp"},
	{"order_delivered_carrier_date", "order_approved_at"},
	{"order_delivered_customer_date", "order_estimated_delivery_date"},
}

// DataCleaner resolves missing values in the merged record set with the
// fixed, ordered fill policy and records every repair as an audit
// operation. Cleaning is total: data-quality conditions never raise, only
// a structurally absent column does.
type DataCleaner struct {
	logger *zap.Logger
}

// NewDataCleaner creates a new DataCleaner instance.
func NewDataCleaner(logger *zap.Logger) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &DataCleaner{logger: logger}, nil
}

// Clean returns a copy of the merged table with zero nil cells, the audit
// trail of repairs, and a fill report. Rows that still hold a nil after the
// targeted fills are dropped entirely.
func (c *DataCleaner) Clean(merged *model.Table) (*model.Table, []model.CleaningOperation, *model.FillReport, error) {
	if merged == nil {
		return nil, nil, nil, errors.New("merged table cannot be nil")
	}

	required := []string{"order_id"}
	required = append(required, reviewTextColumns...)
	required = append(required, "review_score", "review_creation_date", "order_delivered_customer_date")
	required = append(required, categoricalColumns...)
	required = append(required, medianColumns...)
	for _, bf := range timestampBackfills {
		required = append(required, bf.target, bf.source)
	}
	if err := merged.RequireColumns(required...); err != nil {
		return nil, nil, nil, fmt.Errorf("cleaner: %w", err)
	}

	table := merged.Copy()
	report := &model.FillReport{
		FillsByColumn: make(map[string]int),
		RowsIn:        table.NumRows(),
	}
	var operations []model.CleaningOperation

	record := func(row model.Row, column string, original interface{}, newValue interface{}, op, reason string) {
		operations = append(operations, model.CleaningOperation{
			TableName:     table.Name,
			ColumnName:    column,
			OriginalValue: original,
			NewValue:      model.FormatValue(newValue),
			RowIdentifier: model.FormatValue(row["order_id"]),
			Operation:     op,
			Reason:        reason,
			CleanedAt:     time.Now().UTC(),
		})
		report.FillsByColumn[column]++
	}

	// 1. Free-text review fields
	for _, col := range reviewTextColumns {
		for _, row := range table.Rows {
			if row[col] == nil {
				row[col] = textPlaceholder
				record(row, col, nil, textPlaceholder, "placeholder_fill", "missing_review_text")
			}
		}
	}

	// 2. Review score: mean of the non-missing scores, computed once
	if mean, ok := columnMean(table, "review_score"); ok {
		fill := float32(mean)
		for _, row := range table.Rows {
			if row["review_score"] == nil {
				row["review_score"] = fill
				record(row, "review_score", nil, fill, "mean_fill", "missing_review_score")
			}
		}
	}

	// 3. Review creation date from the delivery date, only where present
	for _, row := range table.Rows {
		if row["review_creation_date"] == nil {
			if delivered := row["order_delivered_customer_date"]; delivered != nil {
				row["review_creation_date"] = delivered
				record(row, "review_creation_date", nil, delivered, "timestamp_fill", "missing_review_creation_date")
			}
		}
	}

	// 4. Categorical placeholders
	for _, col := range categoricalColumns {
		for _, row := range table.Rows {
			if row[col] == nil {
				row[col] = categoricalPlaceholder
				record(row, col, nil, categoricalPlaceholder, "placeholder_fill", "missing_category")
			}
		}
	}

	// 5. Per-column medians over the full table
	for _, col := range medianColumns {
		median, kind, ok := columnMedian(table, col)
		if !ok {
			continue
		}
		fill := medianFillValue(median, kind)
		for _, row := range table.Rows {
			if row[col] == nil {
				row[col] = fill
				record(row, col, nil, fill, "median_fill", "missing_measure")
			}
		}
	}

	// 6. Correct misspelled source column names
	for from, to := range columnRenames {
		if table.HasColumn(from) {
			table.RenameColumn(from, to)
		}
	}

	// 7. Timestamp back-fill chain, in order
	for _, bf := range timestampBackfills {
		for _, row := range table.Rows {
			if row[bf.target] == nil && row[bf.source] != nil {
				row[bf.target] = row[bf.source]
				record(row, bf.target, nil, row[bf.source], "timestamp_backfill", "backfilled_from_"+bf.source)
			}
		}
	}

	// 8. Drop any row still holding a nil
	kept := table.Rows[:0]
	for _, row := range table.Rows {
		if rowHasNull(row, table.Columns) {
			report.RowsDropped++
			continue
		}
		kept = append(kept, row)
	}
	table.Rows = kept
	table.Name = "cleaned"
	report.RowsOut = table.NumRows()

	c.logger.Info("Cleaned merged record set",
		zap.Int("rows_in", report.RowsIn),
		zap.Int("rows_out", report.RowsOut),
		zap.Int("rows_dropped", report.RowsDropped),
		zap.Int("repairs", len(operations)))

	return table, operations, report, nil
}

func rowHasNull(row model.Row, columns []string) bool {
	for _, col := range columns {
		if row[col] == nil {
			return true
		}
	}
	return false
}
