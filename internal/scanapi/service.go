// Package scanapi exposes the transport-agnostic inbound operations of
//: StartScan, GetJobStatus, CancelJob, GetReport, SubscribeProgress.
package scanapi

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/neurondb/NeuronIP/api/internal/connectors"
	"github.com/neurondb/NeuronIP/api/internal/notify"
	"github.com/neurondb/NeuronIP/api/internal/piimodel"
	"github.com/neurondb/NeuronIP/api/internal/repository"
	"github.com/neurondb/NeuronIP/api/internal/scanerrors"
	"github.com/neurondb/NeuronIP/api/internal/scanexec"
	"github.com/neurondb/NeuronIP/api/internal/scanjob"
)

/* StartScanRequest is the validated wire shape for StartScan, validated
with go-playground/validator struct tags. */
type StartScanRequest struct {
	ConnectionID    string                  `validate:"required"`
	Connection      connectors.ConnectionConfig `validate:"required"`
	TargetTables    []string
	SamplingConfig  piimodel.SamplingConfig
	DetectionConfig piimodel.DetectionConfig
}

/* ScanService is the transport-agnostic inbound surface of */
type ScanService interface {
	StartScan(ctx context.Context, req StartScanRequest) (uuid.UUID, error)
	GetJobStatus(ctx context.Context, jobID uuid.UUID) (piimodel.JobView, error)
	CancelJob(ctx context.Context, jobID uuid.UUID) error
	GetReport(ctx context.Context, jobID uuid.UUID) (*piimodel.ComplianceReport, error)
	SubscribeProgress(ctx context.Context, jobID uuid.UUID) (<-chan piimodel.ProgressEvent, func())
}

/* Service wires the Job Manager, Scan Executor and Repository together
behind the ScanService surface. StartScan validates the request, creates
the job, then hands it to the executor on its own goroutine so the caller
gets jobId back immediately. */
type Service struct {
	jobs     *scanjob.Manager
	executor *scanexec.Executor
	repo     repository.Repository
	notifier notify.Notifier
	validate *validator.Validate
}

func NewService(jobs *scanjob.Manager, executor *scanexec.Executor, repo repository.Repository, notifier notify.Notifier) *Service {
	return &Service{
		jobs:     jobs,
		executor: executor,
		repo:     repo,
		notifier: notifier,
		validate: validator.New(),
	}
}

var _ ScanService = (*Service)(nil)

func (s *Service) StartScan(ctx context.Context, req StartScanRequest) (uuid.UUID, error) {
	if err := s.validate.Struct(req); err != nil {
		return uuid.Nil, scanerrors.Wrap(scanerrors.InvalidInput, "invalid StartScan request", err)
	}

	job, err := s.jobs.CreateJob(ctx, piimodel.ScanRequest{
		ConnectionID:    req.ConnectionID,
		TargetTables:    req.TargetTables,
		SamplingConfig:  req.SamplingConfig,
		DetectionConfig: req.DetectionConfig,
	})
	if err != nil {
		return uuid.Nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.jobs.TrackCancel(job.ID, cancel)
	go s.executor.RunJob(runCtx, job, req.Connection)

	return job.ID, nil
}

func (s *Service) GetJobStatus(ctx context.Context, jobID uuid.UUID) (piimodel.JobView, error) {
	return s.jobs.GetStatus(ctx, jobID)
}

func (s *Service) CancelJob(ctx context.Context, jobID uuid.UUID) error {
	return s.jobs.CancelJob(ctx, jobID)
}

func (s *Service) GetReport(ctx context.Context, jobID uuid.UUID) (*piimodel.ComplianceReport, error) {
	view, err := s.jobs.GetStatus(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if view.Status != piimodel.StatusCompleted {
		return nil, scanerrors.New(scanerrors.InvalidInput, "report unavailable until job is COMPLETED")
	}

	report, err := s.repo.FindReportByJobId(ctx, jobID)
	if err != nil {
		return nil, scanerrors.Wrap(scanerrors.ReportGeneration, "loading report", err)
	}
	return report, nil
}

func (s *Service) SubscribeProgress(ctx context.Context, jobID uuid.UUID) (<-chan piimodel.ProgressEvent, func()) {
	return s.notifier.Subscribe(jobID)
}
