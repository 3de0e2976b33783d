package scanapi

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
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
	"github.com/neurondb/NeuronIP/api/internal/scanerrors"
	"github.com/neurondb/NeuronIP/api/internal/scanexec"
	"github.com/neurondb/NeuronIP/api/internal/scanjob"
)

func newTestService() *Service {
	repo := repository.NewMemoryRepository()
	n := notify.NewChannelNotifier()
	jobs := scanjob.NewManager(repo, n, nil)
	heuristic := detectstrategy.NewHeuristic()
	engine := detection.NewEngine([]detectstrategy.Strategy{heuristic}, detectcache.Init(10), piimodel.DefaultDetectionConfig(), nil)
	executor := scanexec.NewExecutor(jobs, repo, metadata.NewExtractor(), sampling.NewSampler(), engine, qianalyzer.NewAnalyzer(), reportbuilder.NewBuilder(), nil, 2)
	return NewService(jobs, executor, repo, n)
}

func TestStartScan_RejectsMissingConnectionID(t *testing.T) {
	s := newTestService()
	_, err := s.StartScan(context.Background(), StartScanRequest{Connection: connectors.ConnectionConfig{Type: connectors.ConnectorPostgreSQL, Host: "db"}})
	require.Error(t, err)
	assert.True(t, scanerrors.IsCode(err, scanerrors.InvalidInput))
}

func TestStartScan_ReturnsJobIDAndEventuallyFailsOnUnreachableConnection(t *testing.T) {
	s := newTestService()
	jobID, err := s.StartScan(context.Background(), StartScanRequest{
		ConnectionID: "conn-1",
		Connection:   connectors.ConnectionConfig{Type: "nonexistent-engine", Host: "nowhere"},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, jobID)

	require.Eventually(t, func() bool {
		view, err := s.GetJobStatus(context.Background(), jobID)
		return err == nil && view.Status.Terminal()
	}, time.Second, 10*time.Millisecond)

	view, err := s.GetJobStatus(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, piimodel.StatusFailed, view.Status)
}

func TestGetReport_FailsBeforeJobCompletes(t *testing.T) {
	s := newTestService()
	jobID, err := s.StartScan(context.Background(), StartScanRequest{
		ConnectionID: "conn-1",
		Connection:   connectors.ConnectionConfig{Type: "nonexistent-engine", Host: "nowhere"},
	})
	require.NoError(t, err)

	_, err = s.GetReport(context.Background(), jobID)
	require.Error(t, err)
}

func TestSubscribeProgress_ReceivesAtLeastOneEvent(t *testing.T) {
	s := newTestService()
	jobID, err := s.StartScan(context.Background(), StartScanRequest{
		ConnectionID: "conn-1",
		Connection:   connectors.ConnectionConfig{Type: "nonexistent-engine", Host: "nowhere"},
	})
	require.NoError(t, err)

	ch, unsubscribe := s.SubscribeProgress(context.Background(), jobID)
	defer unsubscribe()

	select {
	case event := <-ch:
		assert.Equal(t, jobID, event.JobID)
	case <-time.After(time.Second):
		t.Fatal("expected at least one progress event")
	}
}
