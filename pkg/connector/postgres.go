// pkg/connector/postgres.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/config"
)

// PostgresConnector implements the DatabaseConnector interface for the
// PostgreSQL warehouse backend.
type PostgresConnector struct {
	db     *sql.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
	schema string
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector
func NewPostgresConnector(ctx context.Context, cfg *config.PostgresConfig, schema string) (*PostgresConnector, error) {
	logger := zap.L().Named("postgres-connector")

	// Log connection attempt
	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Set statement timeout if configured
	if cfg.StatementTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	// Verify connection
	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	connector := &PostgresConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
		schema: schema,
	}

	LogConnectionStats(logger, cfg.Database, db)
	return connector, nil
}

// DB returns the underlying database connection
func (c *PostgresConnector) DB() *sql.DB {
	return c.db
}

// Validate verifies the PostgreSQL connection and required permissions
func (c *PostgresConnector) Validate() error {
	// Check database version
	var version string
	err := c.db.QueryRow("SELECT version()").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	c.logger.Info("Connected to PostgreSQL", zap.String("version", version))

	// Check permissions by creating a temp table
	_, err = c.db.Exec(`
		DO $$
		BEGIN
			CREATE TEMP TABLE _permission_check (id serial, test text);
			INSERT INTO _permission_check (test) VALUES ('test');
			DROP TABLE _permission_check;
		EXCEPTION WHEN OTHERS THEN
			RAISE EXCEPTION 'Permission check failed: %', SQLERRM;
		END $$;
	`)
	if err != nil {
		return fmt.Errorf("permission validation failed: %w", err)
	}

	// Ensure the target warehouse schema exists
	if err := c.ensureSchema(c.schema); err != nil {
		return fmt.Errorf("failed to create/verify schema %s: %w", c.schema, err)
	}

	c.logger.Info("PostgreSQL connection validated",
		zap.String("database", c.cfg.Database),
		zap.String("schema", c.schema))
	return nil
}

// ensureSchema creates the warehouse schema if it does not exist
func (c *PostgresConnector) ensureSchema(schema string) error {
	_, err := c.db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", schema))
	return err
}

// Close closes the connection and releases resources
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection")
	return c.db.Close()
}

// QueryWithTimeout executes a query with a timeout
func (c *PostgresConnector) QueryWithTimeout(ctx context.Context, query string, timeout time.Duration, args ...interface{}) (*sql.Rows, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := c.db.QueryContext(queryCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres query failed: %w", err)
	}
	return rows, nil
}

// ExecWithTimeout executes a statement with a timeout
func (c *PostgresConnector) ExecWithTimeout(ctx context.Context, query string, timeout time.Duration, args ...interface{}) (sql.Result, error) {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.db.ExecContext(execCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres exec failed: %w", err)
	}
	return result, nil
}
