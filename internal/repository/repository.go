// Package repository persists jobs, detection results, quasi-identifier
// groups and compliance reports through a pgxpool-backed Postgres store.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* Repository is the persistence boundary for the scan pipeline. The Job
Manager calls SaveJob/UpdateJob, the Scan Executor calls
SaveDetectionResults/SaveQiGroup as each phase completes, and the Report
Builder calls SaveReport/FindReportByJobId. */
type Repository interface {
	SaveJob(ctx context.Context, job *piimodel.Job) error
	UpdateJob(ctx context.Context, job *piimodel.Job) error
	FindJobByID(ctx context.Context, id uuid.UUID) (*piimodel.Job, error)
	SaveDetectionResults(ctx context.Context, jobID uuid.UUID, results []piimodel.DetectionResult) error
	SaveQiGroup(ctx context.Context, group piimodel.CorrelatedQuasiIdentifierGroup) error
	SaveReport(ctx context.Context, report *piimodel.ComplianceReport) error
	FindReportByJobId(ctx context.Context, jobID uuid.UUID) (*piimodel.ComplianceReport, error)
}

/* ErrNotFound is returned by Find* methods when no matching row exists. */
type notFoundError string

func (e notFoundError) Error() string { return string(e) }

const ErrNotFound = notFoundError("not found")
