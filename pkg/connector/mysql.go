// pkg/connector/mysql.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/config"
)

// MySQLConnector implements the DatabaseConnector interface for the
// transactional source database the raw extracts are fetched from.
type MySQLConnector struct {
	db     *sql.DB
	logger *zap.Logger
	cfg    *config.MySQLConfig
}

// NewMySQLConnector creates and initializes a new MySQL connector
func NewMySQLConnector(ctx context.Context, cfg *config.MySQLConfig) (*MySQLConnector, error) {
	logger := zap.L().Named("mysql-connector")

	// Log connection attempt (without credentials)
	logger.Info("Connecting to MySQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sql.Open("mysql", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MySQL connection: %w", err)
	}

	// Configure connection pool
	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Verify connection
	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	connector := &MySQLConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}

	LogConnectionStats(logger, cfg.Database, db)
	return connector, nil
}

// DB returns the underlying database connection
func (c *MySQLConnector) DB() *sql.DB {
	return c.db
}

// Validate verifies the MySQL connection and that the source tables are readable
func (c *MySQLConnector) Validate() error {
	var version string
	if err := c.db.QueryRow("SELECT VERSION()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query MySQL version: %w", err)
	}
	c.logger.Info("Connected to MySQL", zap.String("version", version))

	var tableCount int
	err := c.db.QueryRow(
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ?",
		c.cfg.Database,
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("failed to list source tables: %w", err)
	}
	if tableCount == 0 {
		return fmt.Errorf("source database %s contains no tables", c.cfg.Database)
	}

	c.logger.Info("MySQL connection validated",
		zap.String("database", c.cfg.Database),
		zap.Int("tables", tableCount))
	return nil
}

// Close closes the connection and releases resources
func (c *MySQLConnector) Close() error {
	c.logger.Info("Closing MySQL connection")
	return c.db.Close()
}

// QueryWithTimeout executes a query with a timeout
func (c *MySQLConnector) QueryWithTimeout(ctx context.Context, query string, timeout time.Duration, args ...interface{}) (*sql.Rows, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := c.db.QueryContext(queryCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("mysql query failed: %w", err)
	}
	return rows, nil
}

// ExecWithTimeout executes a statement with a timeout
func (c *MySQLConnector) ExecWithTimeout(ctx context.Context, query string, timeout time.Duration, args ...interface{}) (sql.Result, error) {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.db.ExecContext(execCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("mysql exec failed: %w", err)
	}
	return result, nil
}
