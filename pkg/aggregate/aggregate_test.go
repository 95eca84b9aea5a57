// pkg/aggregate/aggregate_test.go
package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/model"
	"github.com/ecomdw/warehouse-pipeline/pkg/star"
)

func testSchema() *star.StarSchema {
	customers := model.NewTable("dim_customers", "customer_key", "customer_id", "customer_state")
	customers.AppendRow(model.Row{"customer_key": int64(1), "customer_id": "C1", "customer_state": "SP"})
	customers.AppendRow(model.Row{"customer_key": int64(2), "customer_id": "C2", "customer_state": "RJ"})

	sellers := model.NewTable("dim_sellers", "seller_key", "seller_id", "seller_state")
	sellers.AppendRow(model.Row{"seller_key": int64(1), "seller_id": "S1", "seller_state": "SP"})

	products := model.NewTable("dim_products", "product_key", "product_id", "product_category_name", "product_category_name_english")
	products.AppendRow(model.Row{
		"product_key": int64(1), "product_id": "P1",
		"product_category_name": "brinquedos", "product_category_name_english": "toys",
	})

	paymentTypes := model.NewTable("dim_payment_types", "payment_type_key", "payment_type")
	paymentTypes.AppendRow(model.Row{"payment_type_key": int64(1), "payment_type": "credit_card"})

	reviews := model.NewTable("dim_reviews", "review_key", "review_id", "order_id", "review_score")
	reviews.AppendRow(model.Row{"review_key": int64(1), "review_id": "R1", "order_id": "O1", "review_score": float32(5)})
	reviews.AppendRow(model.Row{"review_key": int64(2), "review_id": "R2", "order_id": "O2", "review_score": float32(3)})

	december := time.Date(2017, 12, 15, 12, 0, 0, 0, time.UTC)
	january := time.Date(2018, 1, 10, 12, 0, 0, 0, time.UTC)

	fact := model.NewTable("fact_orders",
		"order_id", "order_status", "order_purchase_timestamp", "order_delivered_customer_date",
		"price", "freight_value", "payment_value",
		"customer_key", "seller_key", "product_key", "payment_type_key")
	fact.AppendRow(model.Row{
		"order_id": "O1", "order_status": "delivered",
		"order_purchase_timestamp":      december,
		"order_delivered_customer_date": december.AddDate(0, 0, 2),
		"price":                         float32(100), "freight_value": float32(10), "payment_value": float32(110),
		"customer_key": int64(1), "seller_key": int64(1), "product_key": int64(1), "payment_type_key": int64(1),
	})
	fact.AppendRow(model.Row{
		"order_id": "O2", "order_status": "delivered",
		"order_purchase_timestamp":      january,
		"order_delivered_customer_date": january.AddDate(0, 0, 4),
		"price":                         float32(50), "freight_value": float32(5), "payment_value": float32(55),
		"customer_key": int64(2), "seller_key": int64(1), "product_key": int64(1), "payment_type_key": int64(1),
	})

	return &star.StarSchema{
		DimCustomers:    customers,
		DimSellers:      sellers,
		DimProducts:     products,
		DimPaymentTypes: paymentTypes,
		DimReviews:      reviews,
		FactOrders:      fact,
	}
}

func buildAggregates(t *testing.T, schema *star.StarSchema) *Aggregates {
	t.Helper()
	a, err := NewAggregator(zap.NewNop())
	require.NoError(t, err)
	aggs, err := a.Build(schema)
	require.NoError(t, err)
	return aggs
}

func TestSalesByCategory(t *testing.T) {
	aggs := buildAggregates(t, testSchema())

	table := aggs.SalesByCategory
	require.Equal(t, "Agg_sales_by_category", table.Name)
	require.Equal(t, 1, table.NumRows())

	row := table.Rows[0]
	require.Equal(t, "toys", row["category"])
	require.Equal(t, float64(150), row["total_sales"])
	require.Equal(t, float64(15), row["total_freight"])
	require.Equal(t, int64(2), row["total_orders"])
}

func TestSalesByCategorySkipsUnresolvedReferences(t *testing.T) {
	schema := testSchema()
	schema.FactOrders.AppendRow(model.Row{
		"order_id": "O3", "order_status": "delivered",
		"order_purchase_timestamp": time.Date(2018, 2, 1, 0, 0, 0, 0, time.UTC),
		"price":                    float32(999), "freight_value": float32(99), "payment_value": float32(999),
		"customer_key": int64(1), "seller_key": int64(1), "product_key": nil, "payment_type_key": int64(1),
	})

	aggs := buildAggregates(t, schema)

	row := aggs.SalesByCategory.Rows[0]
	require.Equal(t, float64(150), row["total_sales"])
	require.Equal(t, int64(2), row["total_orders"])
}

func TestSalesByCustomerState(t *testing.T) {
	aggs := buildAggregates(t, testSchema())

	table := aggs.SalesByCustomerState
	require.Equal(t, 2, table.NumRows())

	// Lexical key order: RJ before SP
	require.Equal(t, "RJ", table.Rows[0]["customer_state"])
	require.Equal(t, float64(50), table.Rows[0]["total_sales"])
	require.Equal(t, int64(1), table.Rows[0]["unique_customers"])

	require.Equal(t, "SP", table.Rows[1]["customer_state"])
	require.Equal(t, float64(100), table.Rows[1]["total_sales"])
}

func TestSalesBySeller(t *testing.T) {
	aggs := buildAggregates(t, testSchema())

	table := aggs.SalesBySeller
	require.Equal(t, 1, table.NumRows())
	row := table.Rows[0]
	require.Equal(t, "S1", row["seller_id"])
	require.Equal(t, "SP", row["seller_state"])
	require.Equal(t, float64(150), row["total_sales"])
	require.Equal(t, int64(2), row["total_orders"])
}

func TestMonthlySalesTrendChronologicalOrder(t *testing.T) {
	aggs := buildAggregates(t, testSchema())

	table := aggs.MonthlySalesTrend
	require.Equal(t, 2, table.NumRows())
	require.Equal(t, "2017-12", table.Rows[0]["month"])
	require.Equal(t, float64(100), table.Rows[0]["total_sales"])
	require.Equal(t, "2018-01", table.Rows[1]["month"])
	require.Equal(t, float64(50), table.Rows[1]["total_sales"])
}

func TestAvgReviewScore(t *testing.T) {
	aggs := buildAggregates(t, testSchema())

	table := aggs.AvgReviewScore
	require.Equal(t, 1, table.NumRows())
	row := table.Rows[0]
	require.Equal(t, "P1", row["product_id"])
	require.Equal(t, "toys", row["category"])
	// One 5-score and one 3-score review across the product's orders
	require.Equal(t, float64(4), row["avg_review_score"])
	require.Equal(t, int64(2), row["total_reviews"])
}

func TestSalesPerformance(t *testing.T) {
	aggs := buildAggregates(t, testSchema())

	table := aggs.SalesPerformance
	require.Equal(t, "dm_sales_performance", table.Name)
	require.Equal(t, 2, table.NumRows())

	row := table.Rows[0]
	require.Equal(t, "C1", row["customer_id"])
	require.Equal(t, float64(110), row["total_revenue"])
	require.Equal(t, int64(1), row["total_orders"])
	require.Equal(t, float64(110), row["avg_order_value"])
}

func TestOrderFulfillmentShippingSeconds(t *testing.T) {
	aggs := buildAggregates(t, testSchema())

	table := aggs.OrderFulfillment
	require.Equal(t, 1, table.NumRows())
	row := table.Rows[0]
	require.Equal(t, "delivered", row["order_status"])
	// Mean of 2 days and 4 days, in whole seconds
	require.Equal(t, int64(3*24*3600), row["avg_shipping_time"])
	require.Equal(t, int64(2), row["total_orders"])
}

func TestPaymentAnalysis(t *testing.T) {
	aggs := buildAggregates(t, testSchema())

	table := aggs.PaymentAnalysis
	require.Equal(t, 1, table.NumRows())
	row := table.Rows[0]
	require.Equal(t, "credit_card", row["payment_type"])
	require.Equal(t, float64(165), row["total_revenue"])
	require.Equal(t, int64(2), row["total_transactions"])
}

func TestBuildRequiresFactColumns(t *testing.T) {
	schema := testSchema()
	schema.FactOrders.DropColumns("payment_value")

	a, err := NewAggregator(zap.NewNop())
	require.NoError(t, err)
	_, err = a.Build(schema)
	require.Error(t, err)
}

func TestBuildNilSchema(t *testing.T) {
	a, err := NewAggregator(zap.NewNop())
	require.NoError(t, err)
	_, err = a.Build(nil)
	require.Error(t, err)
}
