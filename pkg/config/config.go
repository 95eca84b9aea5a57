// pkg/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// WarehouseBackend selects which warehouse client receives the pipeline's
// output tables.
type WarehouseBackend string

const (
	WarehousePostgres  WarehouseBackend = "postgres"
	WarehouseSnowflake WarehouseBackend = "snowflake"
)

// Config represents the application configuration
type Config struct {
	// Database connections
	MySQL     *MySQLConfig
	Postgres  *PostgresConfig
	Snowflake *SnowflakeConfig

	// Which warehouse backend receives the dimensional model
	Warehouse WarehouseBackend

	// Target schema/dataset in the warehouse
	WarehouseSchema string

	// Directory for intermediate audit artifacts (merged snapshot)
	ArtifactDir string

	// Load settings
	InsertBatchSize int
	RetryAttempts   int
	RetryDelay      time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Warehouse:       WarehouseBackend(getEnv("WAREHOUSE_BACKEND", string(WarehousePostgres))),
		WarehouseSchema: getEnv("WAREHOUSE_SCHEMA", "ecom_dw"),
		ArtifactDir:     getEnv("ARTIFACT_DIR", "./data"),
		InsertBatchSize: getEnvAsInt("INSERT_BATCH_SIZE", 1000),
		RetryAttempts:   getEnvAsInt("RETRY_ATTEMPTS", 3),
		RetryDelay:      time.Duration(getEnvAsInt("RETRY_DELAY_MS", 1000)) * time.Millisecond,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
	}

	mysqlConfig, err := LoadMySQLConfig()
	if err != nil {
		return nil, errors.New("failed to load MySQL configuration: " + err.Error())
	}
	cfg.MySQL = mysqlConfig

	switch cfg.Warehouse {
	case WarehousePostgres:
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		cfg.Postgres = pgConfig
	case WarehouseSnowflake:
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, errors.New("failed to load Snowflake configuration: " + err.Error())
		}
		cfg.Snowflake = snowConfig
	default:
		return nil, errors.New("unknown warehouse backend: " + string(cfg.Warehouse))
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.MySQL == nil {
		return errors.New("mySQL source configuration is required")
	}

	if c.Warehouse == WarehousePostgres && c.Postgres == nil {
		return errors.New("postgreSQL configuration is required for the postgres backend")
	}

	if c.Warehouse == WarehouseSnowflake && c.Snowflake == nil {
		return errors.New("snowflake configuration is required for the snowflake backend")
	}

	if c.WarehouseSchema == "" {
		return errors.New("warehouse schema cannot be empty")
	}

	if c.InsertBatchSize <= 0 {
		return errors.New("insert batch size must be positive")
	}

	if c.RetryAttempts < 0 {
		return errors.New("retry attempts cannot be negative")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
