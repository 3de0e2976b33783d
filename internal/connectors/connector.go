// Package connectors provides the target-database abstraction the scan
// pipeline samples and introspects through: a small Connector capability
// plus a registry of per-engine implementations. Grounded on the
// teacher's DataSourceConnector/ConnectorRegistry (internal/connectors),
// trimmed of its catalog-sync persistence — that concern belongs to
// internal/repository, not to the connector itself.
package connectors

import (
	"context"
	"database/sql"
	"fmt"
)

/* ConnectorType names a supported target database engine. */
type ConnectorType string

const (
	ConnectorPostgreSQL   ConnectorType = "postgresql"
	ConnectorMySQL        ConnectorType = "mysql"
	ConnectorSQLServer    ConnectorType = "sqlserver"
	ConnectorOracle       ConnectorType = "oracle"
	ConnectorSnowflake    ConnectorType = "snowflake"
	ConnectorBigQuery     ConnectorType = "bigquery"
	ConnectorRedshift     ConnectorType = "redshift"
	ConnectorDatabricks   ConnectorType = "databricks"
)

/* ConnectionConfig is everything a Connector needs to reach a target
database. ConnectionString takes precedence over the discrete fields
when set. */
type ConnectionConfig struct {
	Type             ConnectorType
	ConnectionString string
	Host             string
	Port             string
	User             string
	Password         string
	Database         string
	SSLMode          string
}

/* Connector is the minimal surface the Metadata Extractor and Sampler
need against a live target database. */
type Connector interface {
	// Open establishes the underlying connection pool.
	Open(ctx context.Context) error
	// Close releases the connection pool. Safe to call on every exit path,
	// including ones where Open never succeeded.
	Close() error
	// DB exposes the pooled *sql.DB for metadata/sampling queries.
	DB() *sql.DB
	// ProductName and ProductVersion identify the target engine.
	ProductName() string
	ProductVersion(ctx context.Context) (string, error)
}

/* Open resolves cfg.Type through the default registry and opens it. */
func Open(ctx context.Context, cfg ConnectionConfig) (Connector, error) {
	factory, ok := DefaultRegistry.factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("connector type %q is not supported", cfg.Type)
	}
	conn := factory(cfg)
	if err := conn.Open(ctx); err != nil {
		return nil, fmt.Errorf("open connector %q: %w", cfg.Type, err)
	}
	return conn, nil
}
