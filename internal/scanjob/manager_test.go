package scanjob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronIP/api/internal/notify"
	"github.com/neurondb/NeuronIP/api/internal/piimodel"
	"github.com/neurondb/NeuronIP/api/internal/repository"
	"github.com/neurondb/NeuronIP/api/internal/scanerrors"
)

func newTestManager() (*Manager, *repository.MemoryRepository) {
	repo := repository.NewMemoryRepository()
	return NewManager(repo, notify.NewNoop(), nil), repo
}

func TestCreateJob_RejectsMissingConnectionID(t *testing.T) {
	m, _ := newTestManager()
	_, err := m.CreateJob(context.Background(), piimodel.ScanRequest{})
	require.Error(t, err)
	assert.True(t, scanerrors.IsCode(err, scanerrors.InvalidInput))
}

func TestCreateJob_PersistsJobInPendingState(t *testing.T) {
	m, _ := newTestManager()
	job, err := m.CreateJob(context.Background(), piimodel.ScanRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)
	assert.Equal(t, piimodel.StatusPending, job.Status)

	view, err := m.GetStatus(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.ProgressPercent)
}

func TestUpdateStatus_WalksForwardThroughAllFivePhases(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	job, err := m.CreateJob(ctx, piimodel.ScanRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)

	sequence := []piimodel.JobStatus{
		piimodel.StatusExtractingMetadata,
		piimodel.StatusSampling,
		piimodel.StatusDetectingPII,
		piimodel.StatusAnalyzingQI,
		piimodel.StatusGeneratingReport,
	}
	for _, status := range sequence {
		_, err := m.UpdateStatus(ctx, job.ID, status)
		require.NoError(t, err)
	}

	require.NoError(t, m.CompleteJob(ctx, job.ID))

	view, err := m.GetStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, piimodel.StatusCompleted, view.Status)
	assert.Equal(t, 100, view.ProgressPercent)
	assert.NotNil(t, view.EndTime)
}

func TestUpdateStatus_RejectsSkippingAPhase(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	job, err := m.CreateJob(ctx, piimodel.ScanRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)

	_, err = m.UpdateStatus(ctx, job.ID, piimodel.StatusDetectingPII)
	require.Error(t, err)
	assert.True(t, scanerrors.IsCode(err, scanerrors.IllegalStateTransition))

	view, err := m.GetStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, piimodel.StatusPending, view.Status)
}

func TestUpdateStatus_RejectsReenteringTerminalState(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	job, err := m.CreateJob(ctx, piimodel.ScanRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)
	require.NoError(t, m.CancelJob(ctx, job.ID))

	_, err = m.UpdateStatus(ctx, job.ID, piimodel.StatusExtractingMetadata)
	require.Error(t, err)
	assert.True(t, scanerrors.IsCode(err, scanerrors.IllegalStateTransition))

	view, err := m.GetStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, piimodel.StatusCancelled, view.Status)
}

func TestFailJob_FromAnyNonTerminalStateSetsErrorMessage(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	job, err := m.CreateJob(ctx, piimodel.ScanRequest{ConnectionID: "conn-1"})
	require.NoError(t, err)
	_, err = m.UpdateStatus(ctx, job.ID, piimodel.StatusExtractingMetadata)
	require.NoError(t, err)
	_, err = m.UpdateStatus(ctx, job.ID, piimodel.StatusSampling)
	require.NoError(t, err)

	require.NoError(t, m.FailJob(ctx, job.ID, "connection dropped"))

	view, err := m.GetStatus(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, piimodel.StatusFailed, view.Status)
	require.NotNil(t, view.ErrorMessage)
	assert.Equal(t, "connection dropped", *view.ErrorMessage)
}
