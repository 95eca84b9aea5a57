// pkg/loader/ddl.go
package loader

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/ecomdw/warehouse-pipeline/pkg/config"
	"github.com/ecomdw/warehouse-pipeline/pkg/model"
)

// columnSQLType infers the warehouse column type from the first non-nil
// value in the column. A column that is entirely nil loads as text.
func columnSQLType(table *model.Table, column string, backend config.WarehouseBackend) string {
	for _, row := range table.Rows {
		switch row[column].(type) {
		case nil:
			continue
		case string:
			return "TEXT"
		case int32:
			return "INTEGER"
		case int64, int:
			return "BIGINT"
		case float32, float64:
			return "DOUBLE PRECISION"
		case time.Time:
			if backend == config.WarehouseSnowflake {
				return "TIMESTAMP_TZ"
			}
			return "TIMESTAMP WITH TIME ZONE"
		default:
			return "TEXT"
		}
	}
	return "TEXT"
}

// quoteIdent quotes an identifier for the active backend. Postgres folds
// unquoted identifiers to lowercase, so quoting preserves the Agg_* casing;
// Snowflake gets the same treatment for symmetry.
func quoteIdent(name string, backend config.WarehouseBackend) string {
	if backend == config.WarehouseSnowflake {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return pq.QuoteIdentifier(name)
}

// qualifiedName renders schema.table, both quoted.
func qualifiedName(schema, table string, backend config.WarehouseBackend) string {
	return quoteIdent(schema, backend) + "." + quoteIdent(table, backend)
}

// createTableStatements builds the replace-on-rebuild DDL for one output
// table, in execution order. The optional partition column is a load hint:
// Snowflake clusters on it, Postgres gets an index on it.
func createTableStatements(table *model.Table, schema string, backend config.WarehouseBackend, partitionColumn string) []string {
	defs := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		defs = append(defs, fmt.Sprintf("%s %s", quoteIdent(col, backend), columnSQLType(table, col, backend)))
	}

	name := qualifiedName(schema, table.Name, backend)
	body := strings.Join(defs, ",\n\t")

	if backend == config.WarehouseSnowflake {
		create := fmt.Sprintf("CREATE OR REPLACE TABLE %s (\n\t%s\n)", name, body)
		if partitionColumn != "" {
			create += fmt.Sprintf(" CLUSTER BY (%s)", quoteIdent(partitionColumn, backend))
		}
		return []string{create}
	}

	statements := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", name),
		fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", name, body),
	}
	if partitionColumn != "" {
		indexName := fmt.Sprintf("%s_%s_idx", table.Name, partitionColumn)
		statements = append(statements, fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			quoteIdent(indexName, backend), name, quoteIdent(partitionColumn, backend)))
	}
	return statements
}

// insertSQL builds a parameterized insert for one row, with ? bindvars to
// be rebound for the active driver.
func insertSQL(table *model.Table, schema string, backend config.WarehouseBackend) string {
	cols := make([]string, len(table.Columns))
	binds := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		cols[i] = quoteIdent(col, backend)
		binds[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		qualifiedName(schema, table.Name, backend),
		strings.Join(cols, ", "),
		strings.Join(binds, ", "))
}
