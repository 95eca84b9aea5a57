// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ecomdw/warehouse-pipeline/pkg/config"
)

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSourceConnector creates the MySQL connector the raw extracts come from
func (f *ConnectorFactory) CreateSourceConnector(ctx context.Context) (*MySQLConnector, error) {
	f.logger.Info("Creating MySQL source connector")

	connector, err := NewMySQLConnector(ctx, f.cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to create MySQL connector: %w", err)
	}

	if err := connector.Validate(); err != nil {
		connector.Close()
		return nil, fmt.Errorf("MySQL connector validation failed: %w", err)
	}

	return connector, nil
}

// CreateWarehouseConnector creates the warehouse connector selected by configuration
func (f *ConnectorFactory) CreateWarehouseConnector(ctx context.Context) (DatabaseConnector, error) {
	switch f.cfg.Warehouse {
	case config.WarehousePostgres:
		f.logger.Info("Creating PostgreSQL warehouse connector")
		connector, err := NewPostgresConnector(ctx, f.cfg.Postgres, f.cfg.WarehouseSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL connector: %w", err)
		}
		return connector, nil
	case config.WarehouseSnowflake:
		f.logger.Info("Creating Snowflake warehouse connector")
		connector, err := NewSnowflakeConnector(ctx, f.cfg.Snowflake, f.cfg.WarehouseSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to create Snowflake connector: %w", err)
		}
		return connector, nil
	default:
		return nil, fmt.Errorf("unknown warehouse backend: %s", f.cfg.Warehouse)
	}
}

// CreateAllConnectors creates the source and warehouse connectors for one run
func (f *ConnectorFactory) CreateAllConnectors(ctx context.Context) (*MySQLConnector, DatabaseConnector, error) {
	source, err := f.CreateSourceConnector(ctx)
	if err != nil {
		return nil, nil, err
	}

	warehouse, err := f.CreateWarehouseConnector(ctx)
	if err != nil {
		source.Close() // Clean up the source connection if the warehouse fails
		return nil, nil, err
	}

	if err := warehouse.Validate(); err != nil {
		source.Close()
		warehouse.Close()
		return nil, nil, fmt.Errorf("warehouse connector validation failed: %w", err)
	}

	return source, warehouse, nil
}
