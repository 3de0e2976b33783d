package sampling

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

type stubConnector struct {
	db *sql.DB
}

func (s *stubConnector) Open(ctx context.Context) error { return nil }
func (s *stubConnector) Close() error                   { return s.db.Close() }
func (s *stubConnector) DB() *sql.DB                    { return s.db }
func (s *stubConnector) ProductName() string            { return "PostgreSQL" }
func (s *stubConnector) ProductVersion(ctx context.Context) (string, error) {
	return "16.0", nil
}

func TestSample_ReturnsValuesAndTracksNulls(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	col := &piimodel.ColumnInfo{TableRef: "users", SchemaRef: "public", ColumnName: "email"}
	schema := &piimodel.SchemaInfo{Tables: []*piimodel.TableInfo{
		{SchemaRef: "public", Name: "users", Columns: []*piimodel.ColumnInfo{col}},
	}}

	mock.ExpectQuery(`SELECT "email" FROM "public"."users"`).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).
			AddRow("a@example.com").
			AddRow(nil).
			AddRow("b@example.com"))

	sampler := NewSampler()
	results, err := sampler.Sample(context.Background(), &stubConnector{db: db}, schema, piimodel.SamplingConfig{
		DefaultSize:            100,
		MaxConcurrentDBQueries: 2,
	})
	require.NoError(t, err)
	require.Contains(t, results, col.Key())

	sample := results[col.Key()]
	assert.Equal(t, 3, sample.TotalRowCount)
	assert.Equal(t, 1, sample.TotalNullCount)
	assert.Len(t, sample.NonNullValues(), 2)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSample_EmptySchemaYieldsEmptyMap(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sampler := NewSampler()
	results, err := sampler.Sample(context.Background(), &stubConnector{db: db}, &piimodel.SchemaInfo{}, piimodel.SamplingConfig{})
	require.NoError(t, err)
	assert.Empty(t, results)
}
