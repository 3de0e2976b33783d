package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* MemoryRepository is an in-process Repository used by tests. */
type MemoryRepository struct {
	mu       sync.RWMutex
	jobs     map[uuid.UUID]*piimodel.Job
	results  map[uuid.UUID][]piimodel.DetectionResult
	qiGroups map[uuid.UUID][]piimodel.CorrelatedQuasiIdentifierGroup
	reports  map[uuid.UUID]*piimodel.ComplianceReport
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		jobs:     make(map[uuid.UUID]*piimodel.Job),
		results:  make(map[uuid.UUID][]piimodel.DetectionResult),
		qiGroups: make(map[uuid.UUID][]piimodel.CorrelatedQuasiIdentifierGroup),
		reports:  make(map[uuid.UUID]*piimodel.ComplianceReport),
	}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) SaveJob(ctx context.Context, job *piimodel.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *MemoryRepository) UpdateJob(ctx context.Context, job *piimodel.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *MemoryRepository) FindJobByID(ctx context.Context, id uuid.UUID) (*piimodel.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (r *MemoryRepository) SaveDetectionResults(ctx context.Context, jobID uuid.UUID, results []piimodel.DetectionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[jobID] = append([]piimodel.DetectionResult{}, results...)
	return nil
}

func (r *MemoryRepository) SaveQiGroup(ctx context.Context, group piimodel.CorrelatedQuasiIdentifierGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.qiGroups[group.JobID] = append(r.qiGroups[group.JobID], group)
	return nil
}

func (r *MemoryRepository) SaveReport(ctx context.Context, report *piimodel.ComplianceReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *report
	r.reports[report.JobID] = &copied
	return nil
}

func (r *MemoryRepository) FindReportByJobId(ctx context.Context, jobID uuid.UUID) (*piimodel.ComplianceReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	report, ok := r.reports[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *report
	return &copied, nil
}

/* DetectionResultsFor and QiGroupsFor are test-only accessors exposing what
was saved for a job, since the Repository interface intentionally doesn't
expose list methods the production services don't need. */
func (r *MemoryRepository) DetectionResultsFor(jobID uuid.UUID) []piimodel.DetectionResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]piimodel.DetectionResult{}, r.results[jobID]...)
}

func (r *MemoryRepository) QiGroupsFor(jobID uuid.UUID) []piimodel.CorrelatedQuasiIdentifierGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]piimodel.CorrelatedQuasiIdentifierGroup{}, r.qiGroups[jobID]...)
}
