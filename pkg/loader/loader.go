// pkg/loader/loader.go
package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/aggregate"
	"github.com/ecomdw/warehouse-pipeline/pkg/config"
	"github.com/ecomdw/warehouse-pipeline/pkg/connector"
	"github.com/ecomdw/warehouse-pipeline/pkg/model"
	"github.com/ecomdw/warehouse-pipeline/pkg/star"
)

// LoadSpec carries per-table load hints for the warehouse.
type LoadSpec struct {
	// TimePartitionColumn asks the warehouse to time-partition (or
	// cluster) the table on this timestamp column.
	TimePartitionColumn string
}

// Loader hands the pipeline's output tables to the configured warehouse
// backend. Every load is replace-on-rebuild: the previous table is dropped
// or replaced, never incrementally updated.
type Loader struct {
	warehouse  connector.DatabaseConnector
	backend    config.WarehouseBackend
	schema     string
	batchSize  int
	retries    int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewLoader creates a Loader for the given warehouse connection.
func NewLoader(warehouse connector.DatabaseConnector, cfg *config.Config, logger *zap.Logger) (*Loader, error) {
	if warehouse == nil {
		return nil, errors.New("warehouse connector cannot be nil")
	}
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Loader{
		warehouse:  warehouse,
		backend:    cfg.Warehouse,
		schema:     cfg.WarehouseSchema,
		batchSize:  cfg.InsertBatchSize,
		retries:    cfg.RetryAttempts,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}, nil
}

// LoadAll replaces the full warehouse output: the dimensional model, the
// summary tables and the cleaning audit trail. The fact table carries the
// time-partitioning hint on its purchase timestamp.
func (l *Loader) LoadAll(ctx context.Context, schema *star.StarSchema, aggs *aggregate.Aggregates, audit []model.CleaningOperation) error {
	if schema == nil {
		return errors.New("star schema cannot be nil")
	}
	if aggs == nil {
		return errors.New("aggregates cannot be nil")
	}

	for _, table := range schema.Tables() {
		spec := LoadSpec{}
		if table.Name == "fact_orders" {
			spec.TimePartitionColumn = "order_purchase_timestamp"
		}
		if err := l.LoadTable(ctx, table, spec); err != nil {
			return fmt.Errorf("load %s: %w", table.Name, err)
		}
	}

	for _, table := range aggs.Tables() {
		if err := l.LoadTable(ctx, table, LoadSpec{}); err != nil {
			return fmt.Errorf("load %s: %w", table.Name, err)
		}
	}

	if err := l.LoadTable(ctx, cleaningAuditTable(audit), LoadSpec{}); err != nil {
		return fmt.Errorf("load cleaning_audit: %w", err)
	}

	return nil
}

// LoadTable replaces one named output table in the warehouse.
func (l *Loader) LoadTable(ctx context.Context, table *model.Table, spec LoadSpec) error {
	if table == nil {
		return errors.New("table cannot be nil")
	}

	for _, statement := range createTableStatements(table, l.schema, l.backend, spec.TimePartitionColumn) {
		if _, err := l.warehouse.ExecWithTimeout(ctx, statement, 30*time.Second); err != nil {
			return fmt.Errorf("ddl failed: %w", err)
		}
	}

	if err := l.insertRows(ctx, table); err != nil {
		return err
	}

	l.logger.Info("Loaded warehouse table",
		zap.String("table", table.Name),
		zap.Int("rows", table.NumRows()),
		zap.String("partition_column", spec.TimePartitionColumn))
	return nil
}

// insertRows streams the table's rows into the warehouse in batches of a
// single transaction each, retrying transient failures.
func (l *Loader) insertRows(ctx context.Context, table *model.Table) error {
	if table.NumRows() == 0 {
		return nil
	}

	dbx := sqlx.NewDb(l.warehouse.DB(), l.driverName())
	query := dbx.Rebind(insertSQL(table, l.schema, l.backend))

	for start := 0; start < table.NumRows(); start += l.batchSize {
		end := start + l.batchSize
		if end > table.NumRows() {
			end = table.NumRows()
		}
		if err := l.insertBatch(ctx, dbx, query, table, table.Rows[start:end]); err != nil {
			return fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func (l *Loader) insertBatch(ctx context.Context, dbx *sqlx.DB, query string, table *model.Table, rows []model.Row) error {
	var lastErr error
	for attempt := 0; attempt <= l.retries; attempt++ {
		if attempt > 0 {
			l.logger.Warn("Retrying batch insert",
				zap.String("table", table.Name),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.retryDelay):
			}
		}
		lastErr = l.execBatch(ctx, dbx, query, table, rows)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (l *Loader) execBatch(ctx context.Context, dbx *sqlx.DB, query string, table *model.Table, rows []model.Row) error {
	tx, err := dbx.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				l.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.Error(err))
			}
		}
	}()

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(table.Columns))
	for _, row := range rows {
		for i, col := range table.Columns {
			args[i] = row[col]
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert failed: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (l *Loader) driverName() string {
	if l.backend == config.WarehouseSnowflake {
		return "snowflake"
	}
	return "postgres"
}

// cleaningAuditTable renders the cleaning operations as a loadable table.
func cleaningAuditTable(operations []model.CleaningOperation) *model.Table {
	table := model.NewTable("cleaning_audit",
		"table_name", "column_name", "original_value", "new_value",
		"row_identifier", "operation", "reason", "cleaned_at")
	for _, op := range operations {
		table.AppendRow(model.Row{
			"table_name":     op.TableName,
			"column_name":    op.ColumnName,
			"original_value": model.FormatValue(op.OriginalValue),
			"new_value":      op.NewValue,
			"row_identifier": op.RowIdentifier,
			"operation":      op.Operation,
			"reason":         op.Reason,
			"cleaned_at":     op.CleanedAt,
		})
	}
	return table
}
