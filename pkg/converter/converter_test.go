// pkg/converter/converter_test.go
package converter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/model"
)

func TestNormalizeCoercesMappedColumns(t *testing.T) {
	table := model.NewTable("orders",
		"order_id", "payment_installments", "payment_value", "order_purchase_timestamp")
	table.AppendRow(model.Row{
		"order_id":                 "O1",
		"payment_installments":     "3.0",
		"payment_value":            "129.90",
		"order_purchase_timestamp": "2017-10-02 10:56:33",
	})

	tc := NewTypeConverter(zap.NewNop())
	out, err := tc.Normalize(table, RawTypeMapping())
	require.NoError(t, err)

	row := out.Rows[0]
	require.Equal(t, "O1", row["order_id"])
	require.Equal(t, int32(3), row["payment_installments"])
	require.Equal(t, float32(129.90), row["payment_value"])

	ts, ok := row["order_purchase_timestamp"].(time.Time)
	require.True(t, ok)
	require.Equal(t, time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC), ts.UTC())
}

func TestNormalizeUnparseableBecomesNil(t *testing.T) {
	table := model.NewTable("orders",
		"payment_installments", "payment_value", "order_purchase_timestamp")
	table.AppendRow(model.Row{
		"payment_installments":     "not-a-number",
		"payment_value":            "n/a",
		"order_purchase_timestamp": "yesterday",
	})

	tc := NewTypeConverter(zap.NewNop())
	out, err := tc.Normalize(table, RawTypeMapping())
	require.NoError(t, err)

	row := out.Rows[0]
	require.Nil(t, row["payment_installments"])
	require.Nil(t, row["payment_value"])
	require.Nil(t, row["order_purchase_timestamp"])
}

func TestNormalizeEmptyStringAsNull(t *testing.T) {
	table := model.NewTable("reviews", "review_comment_message")
	table.AppendRow(model.Row{"review_comment_message": ""})

	tc := NewTypeConverter(zap.NewNop())
	out, err := tc.Normalize(table, RawTypeMapping())
	require.NoError(t, err)
	require.Nil(t, out.Rows[0]["review_comment_message"])

	// With the option off, the empty string survives
	tc = NewTypeConverterWithConfig(zap.NewNop(), TypeConverterConfig{
		DefaultTimezone:   "UTC",
		EmptyStringAsNull: false,
	})
	out, err = tc.Normalize(table, RawTypeMapping())
	require.NoError(t, err)
	require.Equal(t, "", out.Rows[0]["review_comment_message"])
}

func TestNormalizeLeavesUnmappedColumnsAlone(t *testing.T) {
	table := model.NewTable("orders", "some_extra_column")
	table.AppendRow(model.Row{"some_extra_column": "anything"})

	tc := NewTypeConverter(zap.NewNop())
	out, err := tc.Normalize(table, RawTypeMapping())
	require.NoError(t, err)
	require.Equal(t, "anything", out.Rows[0]["some_extra_column"])
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	table := model.NewTable("orders", "payment_value")
	table.AppendRow(model.Row{"payment_value": "10.5"})

	tc := NewTypeConverter(zap.NewNop())
	_, err := tc.Normalize(table, RawTypeMapping())
	require.NoError(t, err)
	require.Equal(t, "10.5", table.Rows[0]["payment_value"])
}

func TestNormalizeNilTable(t *testing.T) {
	tc := NewTypeConverter(zap.NewNop())
	_, err := tc.Normalize(nil, RawTypeMapping())
	require.Error(t, err)
}

func TestFinalTypeMappingMarksCategories(t *testing.T) {
	m := FinalTypeMapping()
	for _, col := range []string{
		"order_status", "customer_state", "payment_type",
		"product_category_name", "product_category_name_english", "seller_state",
	} {
		require.Equal(t, model.TypeCategory, m[col], col)
	}
	// The raw mapping keeps them as plain strings
	require.Equal(t, model.TypeString, RawTypeMapping()["order_status"])
}

func TestToInt32Clamping(t *testing.T) {
	_, ok := toInt32(int64(1) << 40)
	require.False(t, ok)

	n, ok := toInt32(" 42 ")
	require.True(t, ok)
	require.Equal(t, int32(42), n)
}

func TestToTimeFormats(t *testing.T) {
	for _, raw := range []string{
		"2017-10-02 10:56:33",
		"2017-10-02T10:56:33",
		"2017/10/02 10:56:33",
	} {
		ts, ok := toTime(raw, time.UTC)
		require.True(t, ok, raw)
		require.Equal(t, time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC), ts)
	}

	ts, ok := toTime("2017-10-02", time.UTC)
	require.True(t, ok)
	require.Equal(t, time.Date(2017, 10, 2, 0, 0, 0, 0, time.UTC), ts)
}
