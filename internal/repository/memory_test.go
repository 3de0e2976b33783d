package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

func TestMemoryRepository_SaveAndFindJob(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	job := &piimodel.Job{
		ID:         uuid.New(),
		Status:     piimodel.StatusPending,
		StartTime:  time.Now(),
	}
	require.NoError(t, repo.SaveJob(ctx, job))

	found, err := repo.FindJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, piimodel.StatusPending, found.Status)

	job.Status = piimodel.StatusCompleted
	require.NoError(t, repo.UpdateJob(ctx, job))

	found, err = repo.FindJobByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, piimodel.StatusCompleted, found.Status)
}

func TestMemoryRepository_UpdateUnknownJobFails(t *testing.T) {
	repo := NewMemoryRepository()
	err := repo.UpdateJob(context.Background(), &piimodel.Job{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_SaveAndFindReport(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	jobID := uuid.New()

	report := &piimodel.ComplianceReport{JobID: jobID, Host: "db.internal"}
	require.NoError(t, repo.SaveReport(ctx, report))

	found, err := repo.FindReportByJobId(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", found.Host)

	_, err = repo.FindReportByJobId(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_SaveDetectionResultsAndQiGroups(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	jobID := uuid.New()

	col := &piimodel.ColumnInfo{TableRef: "users", ColumnName: "email"}
	results := []piimodel.DetectionResult{{Column: col, HasPii: true}}
	require.NoError(t, repo.SaveDetectionResults(ctx, jobID, results))
	assert.Len(t, repo.DetectionResultsFor(jobID), 1)

	group := piimodel.CorrelatedQuasiIdentifierGroup{JobID: jobID, Name: "group-1"}
	require.NoError(t, repo.SaveQiGroup(ctx, group))
	assert.Len(t, repo.QiGroupsFor(jobID), 1)
}
