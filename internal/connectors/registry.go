package connectors

import (
	"context"
	"database/sql"
	"fmt"
)

/* factory builds an unopened Connector for a ConnectionConfig. */
type factory func(cfg ConnectionConfig) Connector

/* Registry maps ConnectorType to a factory. Every relational engine in
the pack's dependency set gets a real database/sql-backed connector;
BigQuery is the one exception (its client library has no database/sql
driver in the pack, so it cannot satisfy Connector.DB() without a fake
shim) and is registered as unsupported. */
type Registry struct {
	factories map[ConnectorType]factory
}

/* DefaultRegistry is populated once at package init with every known
ConnectorType; unimplemented engines return an error when opened. */
var DefaultRegistry = newRegistry()

func newRegistry() *Registry {
	r := &Registry{factories: make(map[ConnectorType]factory)}
	r.register(ConnectorPostgreSQL, func(cfg ConnectionConfig) Connector { return newPostgresConnector(cfg) })
	r.register(ConnectorRedshift, func(cfg ConnectionConfig) Connector { return newRedshiftConnector(cfg) })
	r.register(ConnectorMySQL, func(cfg ConnectionConfig) Connector { return newMySQLConnector(cfg) })
	r.register(ConnectorSQLServer, func(cfg ConnectionConfig) Connector { return newSQLServerConnector(cfg) })
	r.register(ConnectorOracle, func(cfg ConnectionConfig) Connector { return newOracleConnector(cfg) })
	r.register(ConnectorSnowflake, func(cfg ConnectionConfig) Connector { return newSnowflakeConnector(cfg) })
	r.register(ConnectorDatabricks, func(cfg ConnectionConfig) Connector { return newDatabricksConnector(cfg) })
	r.register(ConnectorBigQuery, unsupportedFactory(ConnectorBigQuery))
	return r
}

func (r *Registry) register(t ConnectorType, f factory) {
	r.factories[t] = f
}

func unsupportedFactory(t ConnectorType) factory {
	return func(cfg ConnectionConfig) Connector {
		return &unsupportedConnector{connectorType: t}
	}
}

/* unsupportedConnector satisfies Connector so the registry can be total,
but fails fast on Open with a clear message rather than a missing-factory
panic. */
type unsupportedConnector struct {
	connectorType ConnectorType
}

func (u *unsupportedConnector) Open(ctx context.Context) error {
	return fmt.Errorf("connector type %q has no implementation yet", u.connectorType)
}
func (u *unsupportedConnector) Close() error                               { return nil }
func (u *unsupportedConnector) DB() *sql.DB                                { return nil }
func (u *unsupportedConnector) ProductName() string                       { return string(u.connectorType) }
func (u *unsupportedConnector) ProductVersion(ctx context.Context) (string, error) {
	return "", fmt.Errorf("connector type %q has no implementation yet", u.connectorType)
}
