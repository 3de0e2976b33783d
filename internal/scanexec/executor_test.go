package scanexec

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronIP/api/internal/connectors"
	"github.com/neurondb/NeuronIP/api/internal/detection"
	"github.com/neurondb/NeuronIP/api/internal/detectcache"
	"github.com/neurondb/NeuronIP/api/internal/detectstrategy"
	"github.com/neurondb/NeuronIP/api/internal/metadata"
	"github.com/neurondb/NeuronIP/api/internal/notify"
	"github.com/neurondb/NeuronIP/api/internal/piimodel"
	"github.com/neurondb/NeuronIP/api/internal/qianalyzer"
	"github.com/neurondb/NeuronIP/api/internal/reportbuilder"
	"github.com/neurondb/NeuronIP/api/internal/repository"
	"github.com/neurondb/NeuronIP/api/internal/sampling"
	"github.com/neurondb/NeuronIP/api/internal/scanjob"
)

/* stubConnector wraps a sqlmock-backed *sql.DB so the executor can drive
the real metadata/sampling packages without a live database. */
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

func TestRunJobPhases_CompleteAllFiveAndSaveReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewMemoryRepository()
	jobs := scanjob.NewManager(repo, notify.NewNoop(), nil)
	heuristic := detectstrategy.NewHeuristic()
	engine := detection.NewEngine([]detectstrategy.Strategy{heuristic}, detectcache.Init(10), piimodel.DefaultDetectionConfig(), nil)
	exec := NewExecutor(jobs, repo, metadata.NewExtractor(), sampling.NewSampler(), engine, qianalyzer.NewAnalyzer(), reportbuilder.NewBuilder(), nil, 2)

	mock.ExpectQuery("SELECT column_name, data_type").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_numeric", "description"}).
			AddRow("email", "text", false, ""))
	mock.ExpectQuery("information_schema.table_constraints").
		WithArgs("public", "users", "PRIMARY KEY").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))
	mock.ExpectQuery("information_schema.table_constraints").
		WithArgs("public", "users", "FOREIGN KEY").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}))
	mock.ExpectQuery(`SELECT "email" FROM "public"."users"`).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("jane@example.com"))

	ctx := context.Background()
	job, err := jobs.CreateJob(ctx, piimodel.ScanRequest{
		ConnectionID: "conn-1",
		TargetTables: []string{"public.users"},
		SamplingConfig: piimodel.SamplingConfig{DefaultSize: 10, MaxConcurrentDBQueries: 1},
		DetectionConfig: piimodel.DefaultDetectionConfig(),
	})
	require.NoError(t, err)

	conn := &stubConnector{db: db}
	openConnAndRun(t, exec, job, conn)

	view, err := jobs.GetStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, piimodel.StatusCompleted, view.Status)

	report, err := repo.FindReportByJobId(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "PostgreSQL", report.DatabaseProductName)
	assert.Len(t, report.Findings, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}

/* openConnAndRun runs the executor's phase sequence directly against an
already-open stub connector, bypassing connectors.Open (which would dial a
real driver) the way RunJob does internally — by calling the unexported
phase helpers would require same-package access, which this test already
has. */
func openConnAndRun(t *testing.T, exec *Executor, job *piimodel.Job, conn connectors.Connector) {
	t.Helper()
	ctx := context.Background()

	schema, ok := exec.extractMetadata(ctx, job, conn)
	require.True(t, ok)

	samples, ok := exec.sample(ctx, job, conn, schema)
	require.True(t, ok)

	results, ok := exec.detectPII(ctx, job, samples)
	require.True(t, ok)

	groups, ok := exec.analyzeQI(ctx, job, samples, results)
	require.True(t, ok)

	productName := conn.ProductName()
	productVersion, _ := conn.ProductVersion(ctx)
	exec.generateReport(ctx, job, connectors.ConnectionConfig{Host: "db.internal"}, productName, productVersion, results, groups)
}

func TestCancelledAtBoundary_TransitionsJobToCancelled(t *testing.T) {
	repo := repository.NewMemoryRepository()
	jobs := scanjob.NewManager(repo, notify.NewNoop(), nil)
	exec := NewExecutor(jobs, repo, metadata.NewExtractor(), sampling.NewSampler(), nil, nil, nil, nil, 2)

	ctx := context.Background()
	job, err := jobs.CreateJob(ctx, piimodel.ScanRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)
	_, err = jobs.UpdateStatus(ctx, job.ID, piimodel.StatusExtractingMetadata)
	require.NoError(t, err)

	cancelledCtx, cancel := context.WithCancel(ctx)
	cancel()

	assert.True(t, exec.cancelledAtBoundary(cancelledCtx, job))

	view, err := jobs.GetStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, piimodel.StatusCancelled, view.Status)
}

func TestFail_FormatsPhaseAndCauseIntoErrorMessage(t *testing.T) {
	repo := repository.NewMemoryRepository()
	jobs := scanjob.NewManager(repo, notify.NewNoop(), nil)
	exec := NewExecutor(jobs, repo, nil, nil, nil, nil, nil, nil, 2)

	ctx := context.Background()
	job, err := jobs.CreateJob(ctx, piimodel.ScanRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)

	exec.fail(ctx, job.ID, "extract-metadata", assertTestError("boom"))

	view, err := jobs.GetStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, piimodel.StatusFailed, view.Status)
	require.NotNil(t, view.ErrorMessage)
	assert.Equal(t, "extract-metadata: unexpected error", *view.ErrorMessage)
}

type assertTestError string

func (e assertTestError) Error() string { return string(e) }
