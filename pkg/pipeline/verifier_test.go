// pkg/pipeline/verifier_test.go
package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/model"
	"github.com/ecomdw/warehouse-pipeline/pkg/star"
)

func verifierSchema() (*model.Table, *star.StarSchema) {
	cleaned := model.NewTable("cleaned", "order_id", "price")
	cleaned.AppendRow(model.Row{"order_id": "O1", "price": float32(100)})
	cleaned.AppendRow(model.Row{"order_id": "O2", "price": float32(50)})

	customers := model.NewTable("dim_customers", "customer_key", "customer_id")
	customers.AppendRow(model.Row{"customer_key": int64(1), "customer_id": "C1"})

	sellers := model.NewTable("dim_sellers", "seller_key", "seller_id")
	sellers.AppendRow(model.Row{"seller_key": int64(1), "seller_id": "S1"})

	products := model.NewTable("dim_products", "product_key", "product_id")
	products.AppendRow(model.Row{"product_key": int64(1), "product_id": "P1"})

	paymentTypes := model.NewTable("dim_payment_types", "payment_type_key", "payment_type")
	paymentTypes.AppendRow(model.Row{"payment_type_key": int64(1), "payment_type": "credit_card"})

	reviews := model.NewTable("dim_reviews", "review_key", "review_id", "order_id", "review_score")
	reviews.AppendRow(model.Row{"review_key": int64(1), "review_id": "R1", "order_id": "O1", "review_score": float32(5)})

	fact := model.NewTable("fact_orders",
		"order_id", "customer_key", "seller_key", "product_key", "payment_type_key")
	fact.AppendRow(model.Row{
		"order_id": "O1", "customer_key": int64(1), "seller_key": int64(1),
		"product_key": int64(1), "payment_type_key": int64(1),
	})
	fact.AppendRow(model.Row{
		"order_id": "O2", "customer_key": int64(1), "seller_key": int64(1),
		"product_key": int64(1), "payment_type_key": int64(1),
	})

	return cleaned, &star.StarSchema{
		DimCustomers:    customers,
		DimSellers:      sellers,
		DimProducts:     products,
		DimPaymentTypes: paymentTypes,
		DimReviews:      reviews,
		FactOrders:      fact,
	}
}

func TestVerifyCleanedPasses(t *testing.T) {
	cleaned, _ := verifierSchema()
	require.NoError(t, NewVerifier(zap.NewNop()).VerifyCleaned(cleaned))
}

func TestVerifyCleanedRejectsNulls(t *testing.T) {
	cleaned, _ := verifierSchema()
	cleaned.Rows[0]["price"] = nil

	err := NewVerifier(zap.NewNop()).VerifyCleaned(cleaned)
	require.Error(t, err)
	require.Contains(t, err.Error(), "price")
}

func TestVerifyStarSchemaPasses(t *testing.T) {
	cleaned, schema := verifierSchema()
	require.NoError(t, NewVerifier(zap.NewNop()).VerifyStarSchema(cleaned, schema))
}

func TestVerifyStarSchemaRejectsDanglingReference(t *testing.T) {
	cleaned, schema := verifierSchema()
	schema.FactOrders.Rows[0]["product_key"] = int64(42)

	err := NewVerifier(zap.NewNop()).VerifyStarSchema(cleaned, schema)
	require.Error(t, err)
	require.Contains(t, err.Error(), "referential integrity")
}

func TestVerifyStarSchemaAllowsUnresolvedReference(t *testing.T) {
	// A nil reference is a data-quality signal, not a verification failure
	cleaned, schema := verifierSchema()
	schema.FactOrders.Rows[0]["product_key"] = nil

	require.NoError(t, NewVerifier(zap.NewNop()).VerifyStarSchema(cleaned, schema))
}

func TestVerifyStarSchemaRejectsSurvivingNaturalKey(t *testing.T) {
	cleaned, schema := verifierSchema()
	schema.FactOrders.Columns = append(schema.FactOrders.Columns, "customer_id")
	for _, row := range schema.FactOrders.Rows {
		row["customer_id"] = "C1"
	}

	err := NewVerifier(zap.NewNop()).VerifyStarSchema(cleaned, schema)
	require.Error(t, err)
	require.Contains(t, err.Error(), "natural key")
}

func TestVerifyStarSchemaRejectsNonContiguousSurrogates(t *testing.T) {
	cleaned, schema := verifierSchema()
	schema.DimCustomers.Rows[0]["customer_key"] = int64(7)

	err := NewVerifier(zap.NewNop()).VerifyStarSchema(cleaned, schema)
	require.Error(t, err)
	require.Contains(t, err.Error(), "non-contiguous")
}

func TestVerifyStarSchemaRejectsLostOrders(t *testing.T) {
	cleaned, schema := verifierSchema()
	schema.FactOrders.Rows = schema.FactOrders.Rows[:1]

	err := NewVerifier(zap.NewNop()).VerifyStarSchema(cleaned, schema)
	require.Error(t, err)
	require.Contains(t, err.Error(), "distinct order count")
}
