// Package sampling implements the sampling phase of the scan: pulls a
// bounded row sample per column under a concurrency cap, fanned out with
// x/sync/errgroup, producing the columnDataMap the Detection Engine and
// QI Analyzer both consume.
package sampling

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/neurondb/NeuronIP/api/internal/connectors"
	"github.com/neurondb/NeuronIP/api/internal/piimodel"
	"github.com/neurondb/NeuronIP/api/internal/scanerrors"
)

/* Sampler pulls a bounded sample of values for every column in a schema,
respecting SamplingConfig.MaxConcurrentDBQueries. */
type Sampler struct{}

func NewSampler() *Sampler {
	return &Sampler{}
}

/* Sample queries every column in schema concurrently (bounded by
cfg.MaxConcurrentDBQueries) and returns a columnDataMap keyed by
ColumnInfo.Key(). A single column's query failure does not abort the
batch; it is recorded via the returned error only when every column
fails. */
func (s *Sampler) Sample(ctx context.Context, conn connectors.Connector, schema *piimodel.SchemaInfo, cfg piimodel.SamplingConfig) (map[string]*piimodel.SampleData, error) {
	db := conn.DB()
	if db == nil {
		return nil, fmt.Errorf("sampling: connector has no open database handle")
	}

	var columns []*piimodel.ColumnInfo
	for _, table := range schema.Tables {
		columns = append(columns, table.Columns...)
	}
	if len(columns) == 0 {
		return map[string]*piimodel.SampleData{}, nil
	}

	maxConcurrency := cfg.MaxConcurrentDBQueries
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	results := make(map[string]*piimodel.SampleData, len(columns))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	failures := 0
	for _, col := range columns {
		col := col
		g.Go(func() error {
			sample, err := s.sampleColumn(gctx, db, col, cfg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				sample = &piimodel.SampleData{Column: col}
			}
			results[col.Key()] = sample
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if failures == len(columns) {
		return nil, scanerrors.New(scanerrors.SQL, fmt.Sprintf("sampling: all %d column queries failed", len(columns)))
	}

	return results, nil
}

func (s *Sampler) sampleColumn(ctx context.Context, db *sql.DB, col *piimodel.ColumnInfo, cfg piimodel.SamplingConfig) (*piimodel.SampleData, error) {
	size := cfg.DefaultSize
	if size <= 0 {
		size = 1000
	}

	query := fmt.Sprintf(
		`SELECT %s FROM %s.%s ORDER BY random() LIMIT %d`,
		quoteIdent(col.ColumnName), quoteIdent(col.SchemaRef), quoteIdent(col.TableRef), size,
	)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, scanerrors.Wrap(scanerrors.SQL, fmt.Sprintf("sample column %s", col.Key()), err)
	}
	defer rows.Close()

	sample := &piimodel.SampleData{Column: col}
	for rows.Next() {
		var value sql.NullString
		if err := rows.Scan(&value); err != nil {
			continue
		}
		sample.TotalRowCount++
		if value.Valid {
			v := value.String
			sample.Values = append(sample.Values, &v)
		} else {
			sample.TotalNullCount++
			sample.Values = append(sample.Values, nil)
		}
	}
	return sample, rows.Err()
}

func quoteIdent(ident string) string {
	return `"` + ident + `"`
}
