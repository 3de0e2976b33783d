package connectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_EveryConnectorTypeIsRegistered(t *testing.T) {
	types := []ConnectorType{
		ConnectorPostgreSQL, ConnectorMySQL, ConnectorSQLServer, ConnectorOracle,
		ConnectorSnowflake, ConnectorBigQuery, ConnectorRedshift, ConnectorDatabricks,
	}
	for _, ct := range types {
		_, ok := DefaultRegistry.factories[ct]
		assert.True(t, ok, "connector type %q must be registered", ct)
	}
}

func TestOpen_UnknownConnectorTypeFails(t *testing.T) {
	_, err := Open(context.Background(), ConnectionConfig{Type: "unknown-engine"})
	require.Error(t, err)
}

func TestOpen_BigQueryIsRegisteredButUnsupported(t *testing.T) {
	_, err := Open(context.Background(), ConnectionConfig{Type: ConnectorBigQuery})
	require.Error(t, err, "bigquery has no database/sql driver in the pack and must fail fast rather than return a half-working connector")
}
