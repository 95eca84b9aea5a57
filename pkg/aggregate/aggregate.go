// pkg/aggregate/aggregate.go
package aggregate

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/model"
	"github.com/ecomdw/warehouse-pipeline/pkg/star"
)

// Aggregates holds every derived summary table produced from one
// dimensional model. They carry no independent state: each run recomputes
// and replaces all of them.
type Aggregates struct {
	SalesByCategory      *model.Table
	SalesByCustomerState *model.Table
	SalesBySeller        *model.Table
	MonthlySalesTrend    *model.Table
	AvgReviewScore       *model.Table

	SalesPerformance        *model.Table
	ProductCategoryAnalysis *model.Table
	CustomerBehavior        *model.Table
	OrderFulfillment        *model.Table
	PaymentAnalysis         *model.Table
}

// Tables returns all summary tables in load order.
func (a *Aggregates) Tables() []*model.Table {
	return []*model.Table{
		a.SalesByCategory,
		a.SalesByCustomerState,
		a.SalesBySeller,
		a.MonthlySalesTrend,
		a.AvgReviewScore,
		a.SalesPerformance,
		a.ProductCategoryAnalysis,
		a.CustomerBehavior,
		a.OrderFulfillment,
		a.PaymentAnalysis,
	}
}

// Aggregator derives the Agg_* summary tables and the dm_* data marts from
// the dimensional model by joining the fact table to its dimensions on
// surrogate keys.
type Aggregator struct {
	logger *zap.Logger
}

// NewAggregator creates a new Aggregator.
func NewAggregator(logger *zap.Logger) (*Aggregator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Aggregator{logger: logger}, nil
}

// Build recomputes every summary table from the given star schema.
func (a *Aggregator) Build(schema *star.StarSchema) (*Aggregates, error) {
	if schema == nil {
		return nil, errors.New("star schema cannot be nil")
	}
	fact := schema.FactOrders
	if err := fact.RequireColumns(
		"order_id", "order_purchase_timestamp", "price", "freight_value",
		"payment_value", "customer_key", "seller_key", "product_key", "payment_type_key",
	); err != nil {
		return nil, err
	}

	customers := dimIndex(schema.DimCustomers, "customer_key")
	sellers := dimIndex(schema.DimSellers, "seller_key")
	products := dimIndex(schema.DimProducts, "product_key")
	payments := dimIndex(schema.DimPaymentTypes, "payment_type_key")
	reviews := reviewIndex(schema.DimReviews)

	agg := &Aggregates{
		SalesByCategory:      a.salesByCategory(fact, products),
		SalesByCustomerState: a.salesByCustomerState(fact, customers),
		SalesBySeller:        a.salesBySeller(fact, sellers),
		MonthlySalesTrend:    a.monthlySalesTrend(fact),
		AvgReviewScore:       a.avgReviewScore(fact, products, reviews),

		SalesPerformance:        a.salesPerformance(fact, customers),
		ProductCategoryAnalysis: a.productCategoryAnalysis(fact, products),
		CustomerBehavior:        a.customerBehavior(fact, customers),
		OrderFulfillment:        a.orderFulfillment(fact),
		PaymentAnalysis:         a.paymentAnalysis(fact, payments),
	}

	for _, table := range agg.Tables() {
		a.logger.Info("Built summary table",
			zap.String("table", table.Name),
			zap.Int("rows", table.NumRows()))
	}
	return agg, nil
}

// salesByCategory totals sales, freight and orders per translated product
// category. Fact rows with an unresolved product reference drop out, as an
// inner join would drop them.
func (a *Aggregator) salesByCategory(fact *model.Table, products map[int64]model.Row) *model.Table {
	gs := newGroups()
	for _, row := range fact.Rows {
		product, ok := joinDim(row, "product_key", products)
		if !ok {
			continue
		}
		category := model.FormatValue(product["product_category_name_english"])
		g := gs.at(category)
		g.keep("category", category)
		g.add("total_sales", row["price"])
		g.add("total_freight", row["freight_value"])
		g.count("total_orders")
	}

	out := model.NewTable("Agg_sales_by_category", "category", "total_sales", "total_freight", "total_orders")
	for _, key := range gs.sortedKeys() {
		g := gs.byKey[key]
		out.AppendRow(model.Row{
			"category":      g.first["category"],
			"total_sales":   g.sum("total_sales"),
			"total_freight": g.sum("total_freight"),
			"total_orders":  g.total("total_orders"),
		})
	}
	return out
}

// salesByCustomerState totals sales per customer state with a distinct
// customer count.
func (a *Aggregator) salesByCustomerState(fact *model.Table, customers map[int64]model.Row) *model.Table {
	gs := newGroups()
	for _, row := range fact.Rows {
		customer, ok := joinDim(row, "customer_key", customers)
		if !ok {
			continue
		}
		state := model.FormatValue(customer["customer_state"])
		g := gs.at(state)
		g.keep("customer_state", state)
		g.add("total_sales", row["price"])
		g.addDistinct("unique_customers", row["customer_key"])
		g.count("total_orders")
	}

	out := model.NewTable("Agg_sales_by_customer_state", "customer_state", "total_sales", "unique_customers", "total_orders")
	for _, key := range gs.sortedKeys() {
		g := gs.byKey[key]
		out.AppendRow(model.Row{
			"customer_state":   g.first["customer_state"],
			"total_sales":      g.sum("total_sales"),
			"unique_customers": g.distinctCount("unique_customers"),
			"total_orders":     g.total("total_orders"),
		})
	}
	return out
}

// salesBySeller totals sales and orders per seller and seller state.
func (a *Aggregator) salesBySeller(fact *model.Table, sellers map[int64]model.Row) *model.Table {
	gs := newGroups()
	for _, row := range fact.Rows {
		seller, ok := joinDim(row, "seller_key", sellers)
		if !ok {
			continue
		}
		sellerID := model.FormatValue(seller["seller_id"])
		state := model.FormatValue(seller["seller_state"])
		g := gs.at(sellerID + "\x1f" + state)
		g.keep("seller_id", sellerID)
		g.keep("seller_state", state)
		g.add("total_sales", row["price"])
		g.count("total_orders")
	}

	out := model.NewTable("Agg_sales_by_seller", "seller_id", "seller_state", "total_sales", "total_orders")
	for _, key := range gs.sortedKeys() {
		g := gs.byKey[key]
		out.AppendRow(model.Row{
			"seller_id":    g.first["seller_id"],
			"seller_state": g.first["seller_state"],
			"total_sales":  g.sum("total_sales"),
			"total_orders": g.total("total_orders"),
		})
	}
	return out
}

// monthlySalesTrend totals sales per calendar month of the purchase
// timestamp. Month boundaries are fixed to UTC; rows are emitted in
// chronological order.
func (a *Aggregator) monthlySalesTrend(fact *model.Table) *model.Table {
	gs := newGroups()
	for _, row := range fact.Rows {
		purchased, ok := row["order_purchase_timestamp"].(time.Time)
		if !ok {
			continue
		}
		month := purchased.UTC().Format("2006-01")
		g := gs.at(month)
		g.keep("month", month)
		g.add("total_sales", row["price"])
		g.count("total_orders")
	}

	out := model.NewTable("Agg_monthly_sales_trend", "month", "total_sales", "total_orders")
	for _, key := range gs.sortedKeys() {
		g := gs.byKey[key]
		out.AppendRow(model.Row{
			"month":        g.first["month"],
			"total_sales":  g.sum("total_sales"),
			"total_orders": g.total("total_orders"),
		})
	}
	return out
}

// avgReviewScore averages review scores per product, reached by joining the
// fact to its reviews through order_id and to dim_products through the
// surrogate key.
func (a *Aggregator) avgReviewScore(fact *model.Table, products map[int64]model.Row, reviews map[interface{}][]model.Row) *model.Table {
	gs := newGroups()
	for _, row := range fact.Rows {
		product, ok := joinDim(row, "product_key", products)
		if !ok {
			continue
		}
		orderReviews := reviews[row["order_id"]]
		if len(orderReviews) == 0 {
			continue
		}
		productID := model.FormatValue(product["product_id"])
		category := model.FormatValue(product["product_category_name_english"])
		g := gs.at(productID + "\x1f" + category)
		g.keep("product_id", productID)
		g.keep("category", category)
		for _, review := range orderReviews {
			g.add("review_score", review["review_score"])
			g.count("total_reviews")
		}
	}

	out := model.NewTable("Agg_avg_review_score", "product_id", "category", "avg_review_score", "total_reviews")
	for _, key := range gs.sortedKeys() {
		g := gs.byKey[key]
		out.AppendRow(model.Row{
			"product_id":       g.first["product_id"],
			"category":         g.first["category"],
			"avg_review_score": g.mean("review_score"),
			"total_reviews":    g.total("total_reviews"),
		})
	}
	return out
}

// joinDim resolves one fact row's surrogate reference to its dimension row.
func joinDim(row model.Row, keyColumn string, dim map[int64]model.Row) (model.Row, bool) {
	key, ok := row[keyColumn].(int64)
	if !ok {
		return nil, false
	}
	dimRow, ok := dim[key]
	return dimRow, ok
}
