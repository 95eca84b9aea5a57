// pkg/cleaner/cleaner_test.go
package cleaner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/model"
)

var mergedColumns = []string{
	"order_id",
	"review_comment_title", "review_comment_message", "review_score", "review_creation_date",
	"payment_type", "product_category_name", "product_category_name_english",
	"payment_sequential", "payment_installments", "order_item_id",
	"price", "freight_value", "product_photos_qty",
	"product_weight_g", "product_length_cm", "product_height_cm", "product_width_cm",
	"product_name_lenght", "product_description_lenght",
	"order_purchase_timestamp", "order_approved_at",
	"order_delivered_carrier_date", "order_delivered_customer_date",
	"order_estimated_delivery_date",
}

func fullRow(orderID string) model.Row {
	purchase := time.Date(2017, 10, 2, 10, 0, 0, 0, time.UTC)
	return model.Row{
		"order_id":                      orderID,
		"review_comment_title":          "great",
		"review_comment_message":        "arrived early",
		"review_score":                  float32(5),
		"review_creation_date":          purchase.AddDate(0, 0, 6),
		"payment_type":                  "credit_card",
		"product_category_name":         "brinquedos",
		"product_category_name_english": "toys",
		"payment_sequential":            int32(1),
		"payment_installments":          int32(1),
		"order_item_id":                 int32(1),
		"price":                         float32(100),
		"freight_value":                 float32(10),
		"product_photos_qty":            float32(1),
		"product_weight_g":              float32(500),
		"product_length_cm":             float32(20),
		"product_height_cm":             float32(10),
		"product_width_cm":              float32(15),
		"product_name_lenght":           float32(40),
		"product_description_lenght":    float32(200),
		"order_purchase_timestamp":      purchase,
		"order_approved_at":             purchase.Add(time.Hour),
		"order_delivered_carrier_date":  purchase.AddDate(0, 0, 1),
		"order_delivered_customer_date": purchase.AddDate(0, 0, 5),
		"order_estimated_delivery_date": purchase.AddDate(0, 0, 10),
	}
}

func mergedTable(rows ...model.Row) *model.Table {
	table := model.NewTable("merged", mergedColumns...)
	for _, row := range rows {
		table.AppendRow(row)
	}
	return table
}

func newTestCleaner(t *testing.T) *DataCleaner {
	t.Helper()
	c, err := NewDataCleaner(zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestCleanZeroNullsAndRename(t *testing.T) {
	table := mergedTable(fullRow("O1"), fullRow("O2"))

	cleaned, operations, report, err := newTestCleaner(t).Clean(table)
	require.NoError(t, err)
	require.Equal(t, "cleaned", cleaned.Name)
	require.Empty(t, operations)
	require.Equal(t, 2, report.RowsIn)
	require.Equal(t, 2, report.RowsOut)
	require.Equal(t, 0, report.RowsDropped)

	for column, count := range cleaned.NullCounts() {
		require.Zero(t, count, column)
	}

	require.True(t, cleaned.HasColumn("product_name_length"))
	require.True(t, cleaned.HasColumn("product_description_length"))
	require.False(t, cleaned.HasColumn("product_name_lenght"))
	require.False(t, cleaned.HasColumn("product_description_lenght"))
}

func TestCleanReviewScoreMeanFill(t *testing.T) {
	missing := fullRow("O3")
	missing["review_score"] = nil
	a := fullRow("O1")
	a["review_score"] = float32(5)
	b := fullRow("O2")
	b["review_score"] = float32(3)

	cleaned, _, report, err := newTestCleaner(t).Clean(mergedTable(a, b, missing))
	require.NoError(t, err)

	require.Equal(t, float32(4), findRow(t, cleaned, "O3")["review_score"])
	require.Equal(t, 1, report.FillsByColumn["review_score"])
}

func TestCleanPlaceholderFills(t *testing.T) {
	row := fullRow("O1")
	row["review_comment_title"] = nil
	row["review_comment_message"] = nil
	row["payment_type"] = nil
	row["product_category_name"] = nil
	row["product_category_name_english"] = nil

	cleaned, _, _, err := newTestCleaner(t).Clean(mergedTable(row, fullRow("O2")))
	require.NoError(t, err)

	got := findRow(t, cleaned, "O1")
	require.Equal(t, "Not Available", got["review_comment_title"])
	require.Equal(t, "Not Available", got["review_comment_message"])
	require.Equal(t, "Unknown", got["payment_type"])
	require.Equal(t, "Unknown", got["product_category_name"])
	require.Equal(t, "Unknown", got["product_category_name_english"])
}

func TestCleanMedianFills(t *testing.T) {
	a := fullRow("O1")
	a["price"] = float32(10)
	a["payment_installments"] = int32(1)
	b := fullRow("O2")
	b["price"] = float32(20)
	b["payment_installments"] = int32(3)
	missing := fullRow("O3")
	missing["price"] = nil
	missing["payment_installments"] = nil

	cleaned, _, _, err := newTestCleaner(t).Clean(mergedTable(a, b, missing))
	require.NoError(t, err)

	got := findRow(t, cleaned, "O3")
	require.Equal(t, float32(15), got["price"])
	// Integer measures get an integer fill, not a float
	require.Equal(t, int32(2), got["payment_installments"])
}

func TestCleanTimestampBackfillChain(t *testing.T) {
	row := fullRow("O1")
	row["order_approved_at"] = nil
	row["order_delivered_carrier_date"] = nil

	cleaned, _, _, err := newTestCleaner(t).Clean(mergedTable(row))
	require.NoError(t, err)

	got := findRow(t, cleaned, "O1")
	purchase := got["order_purchase_timestamp"]
	// The carrier date picks up the approval date that was itself just filled
	require.Equal(t, purchase, got["order_approved_at"])
	require.Equal(t, purchase, got["order_delivered_carrier_date"])
}

func TestCleanDeliveryBackfillFromEstimate(t *testing.T) {
	row := fullRow("O1")
	row["order_delivered_customer_date"] = nil

	cleaned, _, _, err := newTestCleaner(t).Clean(mergedTable(row))
	require.NoError(t, err)

	got := findRow(t, cleaned, "O1")
	require.Equal(t, got["order_estimated_delivery_date"], got["order_delivered_customer_date"])
}

func TestCleanDropsUnfillableRows(t *testing.T) {
	// With both the review creation date and the delivery date missing, the
	// creation-date fill has no source and the row cannot be repaired.
	bad := fullRow("O2")
	bad["review_creation_date"] = nil
	bad["order_delivered_customer_date"] = nil

	cleaned, _, report, err := newTestCleaner(t).Clean(mergedTable(fullRow("O1"), bad))
	require.NoError(t, err)

	require.Equal(t, 1, cleaned.NumRows())
	require.Equal(t, 1, report.RowsDropped)
	require.Equal(t, 1, report.RowsOut)
	require.Equal(t, "O1", cleaned.Rows[0]["order_id"])
}

func TestCleanAuditTrail(t *testing.T) {
	row := fullRow("O1")
	row["review_comment_title"] = nil

	_, operations, _, err := newTestCleaner(t).Clean(mergedTable(row))
	require.NoError(t, err)
	require.Len(t, operations, 1)

	op := operations[0]
	require.Equal(t, "merged", op.TableName)
	require.Equal(t, "review_comment_title", op.ColumnName)
	require.Equal(t, "Not Available", op.NewValue)
	require.Equal(t, "O1", op.RowIdentifier)
	require.Equal(t, "placeholder_fill", op.Operation)
	require.False(t, op.CleanedAt.IsZero())
}

func TestCleanMissingColumnFails(t *testing.T) {
	table := model.NewTable("merged", "order_id")
	table.AppendRow(model.Row{"order_id": "O1"})

	_, _, _, err := newTestCleaner(t).Clean(table)
	require.Error(t, err)
	require.Contains(t, err.Error(), "required column")
}

func findRow(t *testing.T, table *model.Table, orderID string) model.Row {
	t.Helper()
	for _, row := range table.Rows {
		if row["order_id"] == orderID {
			return row
		}
	}
	t.Fatalf("no row with order_id %s", orderID)
	return nil
}
