// pkg/loader/ddl_test.go
package loader

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ecomdw/warehouse-pipeline/pkg/config"
	"github.com/ecomdw/warehouse-pipeline/pkg/model"
)

func typedTable() *model.Table {
	table := model.NewTable("fact_orders",
		"order_id", "payment_installments", "customer_key", "price", "order_purchase_timestamp", "empty")
	table.AppendRow(model.Row{
		"order_id":                 "O1",
		"payment_installments":     int32(1),
		"customer_key":             int64(1),
		"price":                    float32(100),
		"order_purchase_timestamp": time.Date(2017, 10, 2, 0, 0, 0, 0, time.UTC),
		"empty":                    nil,
	})
	return table
}

func TestColumnSQLTypeInference(t *testing.T) {
	table := typedTable()

	require.Equal(t, "TEXT", columnSQLType(table, "order_id", config.WarehousePostgres))
	require.Equal(t, "INTEGER", columnSQLType(table, "payment_installments", config.WarehousePostgres))
	require.Equal(t, "BIGINT", columnSQLType(table, "customer_key", config.WarehousePostgres))
	require.Equal(t, "DOUBLE PRECISION", columnSQLType(table, "price", config.WarehousePostgres))
	require.Equal(t, "TIMESTAMP WITH TIME ZONE", columnSQLType(table, "order_purchase_timestamp", config.WarehousePostgres))
	require.Equal(t, "TIMESTAMP_TZ", columnSQLType(table, "order_purchase_timestamp", config.WarehouseSnowflake))

	// A column with no values at all loads as text
	require.Equal(t, "TEXT", columnSQLType(table, "empty", config.WarehousePostgres))
}

func TestColumnSQLTypeSkipsLeadingNils(t *testing.T) {
	table := model.NewTable("t", "price")
	table.AppendRow(model.Row{"price": nil})
	table.AppendRow(model.Row{"price": float32(9.5)})

	require.Equal(t, "DOUBLE PRECISION", columnSQLType(table, "price", config.WarehousePostgres))
}

func TestCreateTableStatementsPostgres(t *testing.T) {
	stmts := createTableStatements(typedTable(), "ecom_dw", config.WarehousePostgres, "order_purchase_timestamp")
	require.Len(t, stmts, 3)

	require.True(t, strings.HasPrefix(stmts[0], `DROP TABLE IF EXISTS "ecom_dw"."fact_orders"`))
	require.True(t, strings.HasPrefix(stmts[1], `CREATE TABLE "ecom_dw"."fact_orders"`))
	require.Contains(t, stmts[1], `"customer_key" BIGINT`)
	require.Contains(t, stmts[2], "CREATE INDEX")
	require.Contains(t, stmts[2], `"order_purchase_timestamp"`)
}

func TestCreateTableStatementsPostgresWithoutPartition(t *testing.T) {
	stmts := createTableStatements(typedTable(), "ecom_dw", config.WarehousePostgres, "")
	require.Len(t, stmts, 2)
}

func TestCreateTableStatementsSnowflake(t *testing.T) {
	stmts := createTableStatements(typedTable(), "ECOM_DW", config.WarehouseSnowflake, "order_purchase_timestamp")
	require.Len(t, stmts, 1)
	require.True(t, strings.HasPrefix(stmts[0], `CREATE OR REPLACE TABLE "ECOM_DW"."fact_orders"`))
	require.Contains(t, stmts[0], `CLUSTER BY ("order_purchase_timestamp")`)
}

func TestQuoteIdentPreservesAggCasing(t *testing.T) {
	require.Equal(t, `"Agg_sales_by_category"`, quoteIdent("Agg_sales_by_category", config.WarehousePostgres))
	require.Equal(t, `"Agg_sales_by_category"`, quoteIdent("Agg_sales_by_category", config.WarehouseSnowflake))
}

func TestInsertSQL(t *testing.T) {
	table := model.NewTable("dim_customers", "customer_key", "customer_id")
	sql := insertSQL(table, "ecom_dw", config.WarehousePostgres)

	require.Equal(t, `INSERT INTO "ecom_dw"."dim_customers" ("customer_key", "customer_id") VALUES (?, ?)`, sql)
}
