// pkg/aggregate/datamart.go
package aggregate

import (
	"time"

	"github.com/ecomdw/warehouse-pipeline/pkg/model"
)

// salesPerformance derives revenue, order count and average order value per
// customer.
func (a *Aggregator) salesPerformance(fact *model.Table, customers map[int64]model.Row) *model.Table {
	gs := newGroups()
	for _, row := range fact.Rows {
		customer, ok := joinDim(row, "customer_key", customers)
		if !ok {
			continue
		}
		customerID := model.FormatValue(customer["customer_id"])
		g := gs.at(customerID)
		g.keep("customer_id", customerID)
		g.add("payment_value", row["payment_value"])
		g.addDistinct("total_orders", row["order_id"])
	}

	out := model.NewTable("dm_sales_performance", "customer_id", "total_revenue", "total_orders", "avg_order_value")
	for _, key := range gs.sortedKeys() {
		g := gs.byKey[key]
		out.AppendRow(model.Row{
			"customer_id":     g.first["customer_id"],
			"total_revenue":   g.sum("payment_value"),
			"total_orders":    g.distinctCount("total_orders"),
			"avg_order_value": g.mean("payment_value"),
		})
	}
	return out
}

// productCategoryAnalysis derives sales counts, revenue and average price
// per raw product category.
func (a *Aggregator) productCategoryAnalysis(fact *model.Table, products map[int64]model.Row) *model.Table {
	gs := newGroups()
	for _, row := range fact.Rows {
		product, ok := joinDim(row, "product_key", products)
		if !ok {
			continue
		}
		category := model.FormatValue(product["product_category_name"])
		g := gs.at(category)
		g.keep("product_category_name", category)
		g.count("total_sales")
		g.add("payment_value", row["payment_value"])
		g.add("price", row["price"])
	}

	out := model.NewTable("dm_product_category_analysis", "product_category_name", "total_sales", "total_revenue", "avg_price")
	for _, key := range gs.sortedKeys() {
		g := gs.byKey[key]
		out.AppendRow(model.Row{
			"product_category_name": g.first["product_category_name"],
			"total_sales":           g.total("total_sales"),
			"total_revenue":         g.sum("payment_value"),
			"avg_price":             g.mean("price"),
		})
	}
	return out
}

// customerBehavior derives per-customer order counts, distinct products and
// total spend.
func (a *Aggregator) customerBehavior(fact *model.Table, customers map[int64]model.Row) *model.Table {
	gs := newGroups()
	for _, row := range fact.Rows {
		customer, ok := joinDim(row, "customer_key", customers)
		if !ok {
			continue
		}
		customerID := model.FormatValue(customer["customer_id"])
		g := gs.at(customerID)
		g.keep("customer_id", customerID)
		g.addDistinct("total_orders", row["order_id"])
		g.addDistinct("distinct_products", row["product_key"])
		g.add("payment_value", row["payment_value"])
	}

	out := model.NewTable("dm_customer_behavior", "customer_id", "total_orders", "distinct_products", "total_spent")
	for _, key := range gs.sortedKeys() {
		g := gs.byKey[key]
		out.AppendRow(model.Row{
			"customer_id":       g.first["customer_id"],
			"total_orders":      g.distinctCount("total_orders"),
			"distinct_products": g.distinctCount("distinct_products"),
			"total_spent":       g.sum("payment_value"),
		})
	}
	return out
}

// orderFulfillment derives shipping-duration statistics per order status.
// Duration is delivered minus purchase in whole seconds, restricted to rows
// with a known delivery timestamp; the mean is truncated to an integer.
func (a *Aggregator) orderFulfillment(fact *model.Table) *model.Table {
	gs := newGroups()
	for _, row := range fact.Rows {
		delivered, ok := row["order_delivered_customer_date"].(time.Time)
		if !ok {
			continue
		}
		purchased, ok := row["order_purchase_timestamp"].(time.Time)
		if !ok {
			continue
		}
		status := model.FormatValue(row["order_status"])
		g := gs.at(status)
		g.keep("order_status", status)
		g.add("shipping_time", delivered.Sub(purchased).Seconds())
		g.count("total_orders")
	}

	out := model.NewTable("dm_order_fulfillment", "order_status", "avg_shipping_time", "total_orders")
	for _, key := range gs.sortedKeys() {
		g := gs.byKey[key]
		out.AppendRow(model.Row{
			"order_status":      g.first["order_status"],
			"avg_shipping_time": int64(g.mean("shipping_time")),
			"total_orders":      g.total("total_orders"),
		})
	}
	return out
}

// paymentAnalysis derives revenue and transaction counts per payment type.
func (a *Aggregator) paymentAnalysis(fact *model.Table, payments map[int64]model.Row) *model.Table {
	gs := newGroups()
	for _, row := range fact.Rows {
		payment, ok := joinDim(row, "payment_type_key", payments)
		if !ok {
			continue
		}
		paymentType := model.FormatValue(payment["payment_type"])
		g := gs.at(paymentType)
		g.keep("payment_type", paymentType)
		g.add("payment_value", row["payment_value"])
		g.count("total_transactions")
	}

	out := model.NewTable("dm_payment_analysis", "payment_type", "total_revenue", "total_transactions")
	for _, key := range gs.sortedKeys() {
		g := gs.byKey[key]
		out.AppendRow(model.Row{
			"payment_type":       g.first["payment_type"],
			"total_revenue":      g.sum("payment_value"),
			"total_transactions": g.total("total_transactions"),
		})
	}
	return out
}
