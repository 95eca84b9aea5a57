// pkg/connector/snowflake.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/config"
)

// SnowflakeConnector implements the DatabaseConnector interface for the
// Snowflake warehouse backend.
type SnowflakeConnector struct {
	db     *sql.DB
	logger *zap.Logger
	cfg    *config.SnowflakeConfig
	schema string
}

// NewSnowflakeConnector creates a new Snowflake connection
func NewSnowflakeConnector(ctx context.Context, cfg *config.SnowflakeConfig, schema string) (*SnowflakeConnector, error) {
	logger := zap.L().Named("snowflake-connector")

	// Create DSN using Snowflake's DSN builder
	sfConfig := &sf.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Password:      cfg.Password,
		Database:      cfg.Database,
		Schema:        schema,
		Warehouse:     cfg.Warehouse,
		Role:          cfg.Role,
		Authenticator: cfg.Authenticator,
	}

	// Log connection attempt (without credentials)
	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("user", cfg.User),
		zap.String("database", cfg.Database),
		zap.String("schema", schema),
		zap.String("warehouse", cfg.Warehouse))

	dsn, err := sf.DSN(sfConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}

	// Open connection pool
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}

	// Configure connection pool
	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Set query timeout if configured
	if cfg.QueryTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("ALTER SESSION SET STATEMENT_TIMEOUT_IN_SECONDS = %d",
				int(cfg.QueryTimeout.Seconds())),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	// Verify connection
	if err := PingWithTimeout(ctx, db, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	connector := &SnowflakeConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
		schema: schema,
	}

	LogConnectionStats(logger, cfg.Database, db)
	return connector, nil
}

// DB returns the underlying database connection
func (c *SnowflakeConnector) DB() *sql.DB {
	return c.db
}

// Validate verifies the Snowflake connection and target schema
func (c *SnowflakeConnector) Validate() error {
	var version string
	if err := c.db.QueryRow("SELECT CURRENT_VERSION()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query Snowflake version: %w", err)
	}
	c.logger.Info("Connected to Snowflake", zap.String("version", version))

	_, err := c.db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", c.schema))
	if err != nil {
		return fmt.Errorf("failed to create/verify schema %s: %w", c.schema, err)
	}

	c.logger.Info("Snowflake connection validated",
		zap.String("database", c.cfg.Database),
		zap.String("schema", c.schema))
	return nil
}

// Close closes the connection and releases resources
func (c *SnowflakeConnector) Close() error {
	c.logger.Info("Closing Snowflake connection")
	return c.db.Close()
}

// QueryWithTimeout executes a query with a timeout
func (c *SnowflakeConnector) QueryWithTimeout(ctx context.Context, query string, timeout time.Duration, args ...interface{}) (*sql.Rows, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := c.db.QueryContext(queryCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("snowflake query failed: %w", err)
	}
	return rows, nil
}

// ExecWithTimeout executes a statement with a timeout
func (c *SnowflakeConnector) ExecWithTimeout(ctx context.Context, query string, timeout time.Duration, args ...interface{}) (sql.Result, error) {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.db.ExecContext(execCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("snowflake exec failed: %w", err)
	}
	return result, nil
}
