// Package scanjob implements the Job Manager: the finite state machine
// that owns a scan Job's lifecycle.
package scanjob

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronIP/api/internal/logging"
	"github.com/neurondb/NeuronIP/api/internal/notify"
	"github.com/neurondb/NeuronIP/api/internal/piimodel"
	"github.com/neurondb/NeuronIP/api/internal/repository"
	"github.com/neurondb/NeuronIP/api/internal/scanerrors"
)

/* allowedTransitions encodes the DAG: PENDING walks forward through
the five phases to COMPLETED, and any non-terminal state may jump to
FAILED or CANCELLED. No state may be re-entered. */
var allowedTransitions = map[piimodel.JobStatus][]piimodel.JobStatus{
	piimodel.StatusPending:            {piimodel.StatusExtractingMetadata, piimodel.StatusFailed, piimodel.StatusCancelled},
	piimodel.StatusExtractingMetadata: {piimodel.StatusSampling, piimodel.StatusFailed, piimodel.StatusCancelled},
	piimodel.StatusSampling:           {piimodel.StatusDetectingPII, piimodel.StatusFailed, piimodel.StatusCancelled},
	piimodel.StatusDetectingPII:       {piimodel.StatusAnalyzingQI, piimodel.StatusFailed, piimodel.StatusCancelled},
	piimodel.StatusAnalyzingQI:        {piimodel.StatusGeneratingReport, piimodel.StatusFailed, piimodel.StatusCancelled},
	piimodel.StatusGeneratingReport:   {piimodel.StatusCompleted, piimodel.StatusFailed, piimodel.StatusCancelled},
}

/* Manager owns job lifecycle transitions; the job store is shared and
updates are serialized per job id. */
type Manager struct {
	repo     repository.Repository
	notifier notify.Notifier
	log      *logging.Logger

	mu       sync.Mutex
	jobLocks map[uuid.UUID]*sync.Mutex

	cancelMu    sync.Mutex
	cancelFuncs map[uuid.UUID]context.CancelFunc
}

func NewManager(repo repository.Repository, notifier notify.Notifier, log *logging.Logger) *Manager {
	if notifier == nil {
		notifier = notify.NewNoop()
	}
	return &Manager{
		repo:        repo,
		notifier:    notifier,
		log:         log,
		jobLocks:    make(map[uuid.UUID]*sync.Mutex),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
	}
}

/* TrackCancel registers the CancelFunc of the context a running Job was
started with, so a later CancelJob call can actually interrupt the
Executor's goroutine instead of only flipping repository state. Callers
that never register one (e.g. batch runs with no external cancel surface)
still get the repository-state transition from CancelJob. */
func (m *Manager) TrackCancel(jobID uuid.UUID, cancel context.CancelFunc) {
	m.cancelMu.Lock()
	defer m.cancelMu.Unlock()
	m.cancelFuncs[jobID] = cancel
}

func (m *Manager) untrackCancel(jobID uuid.UUID) {
	m.cancelMu.Lock()
	defer m.cancelMu.Unlock()
	delete(m.cancelFuncs, jobID)
}

func (m *Manager) lockFor(jobID uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.jobLocks[jobID]
	if !ok {
		l = &sync.Mutex{}
		m.jobLocks[jobID] = l
	}
	return l
}

/* CreateJob validates the request carries a connection id and persists a
new Job in PENDING. */
func (m *Manager) CreateJob(ctx context.Context, request piimodel.ScanRequest) (*piimodel.Job, error) {
	if request.ConnectionID == "" {
		return nil, scanerrors.New(scanerrors.InvalidInput, "connectionId is required")
	}

	now := time.Now()
	job := &piimodel.Job{
		ID:              uuid.New(),
		ConnectionID:    request.ConnectionID,
		Request:         request,
		Status:          piimodel.StatusPending,
		StartTime:       now,
		LastUpdateTime:  now,
	}

	if err := m.repo.SaveJob(ctx, job); err != nil {
		return nil, scanerrors.Wrap(scanerrors.Unexpected, "persisting new job", err)
	}

	m.publish(job, "job-created", "")
	return job, nil
}

/* GetStatus returns a read-only snapshot of the job. */
func (m *Manager) GetStatus(ctx context.Context, jobID uuid.UUID) (piimodel.JobView, error) {
	job, err := m.repo.FindJobByID(ctx, jobID)
	if err != nil {
		return piimodel.JobView{}, scanerrors.Wrap(scanerrors.InvalidInput, "job not found", err)
	}
	return job.View(), nil
}

/* UpdateStatus enforces a legal transition, stamps lastUpdateTime and
publishes a progress event. Rejecting a transition out of a terminal state
leaves the job unchanged and returns an IllegalStateTransition error. It
returns the job as persisted after the transition, since the caller's own
copy (e.g. the Executor's) was never mutated by this call and would
otherwise go stale the moment the caller saves it back. */
func (m *Manager) UpdateStatus(ctx context.Context, jobID uuid.UUID, newStatus piimodel.JobStatus) (*piimodel.Job, error) {
	lock := m.lockFor(jobID)
	lock.Lock()
	defer lock.Unlock()

	job, err := m.repo.FindJobByID(ctx, jobID)
	if err != nil {
		return nil, scanerrors.Wrap(scanerrors.InvalidInput, "job not found", err)
	}

	if err := m.transition(job, newStatus); err != nil {
		return nil, err
	}

	if err := m.repo.UpdateJob(ctx, job); err != nil {
		return nil, scanerrors.Wrap(scanerrors.Unexpected, "persisting status update", err)
	}

	m.publish(job, "phase-changed", "")
	return job, nil
}

/* CompleteJob, FailJob and CancelJob are terminal transitions; each sets
endTime in addition to status. */
func (m *Manager) CompleteJob(ctx context.Context, jobID uuid.UUID) error {
	return m.terminal(ctx, jobID, piimodel.StatusCompleted, "", "scan-completed")
}

func (m *Manager) FailJob(ctx context.Context, jobID uuid.UUID, message string) error {
	return m.terminal(ctx, jobID, piimodel.StatusFailed, message, "job-failed")
}

/* CancelJob invokes the Job's tracked CancelFunc, if any was registered via
TrackCancel, so the Executor's goroutine observes ctx.Done() at its next
phase boundary, then transitions repository state to CANCELLED regardless
of whether a CancelFunc was registered. */
func (m *Manager) CancelJob(ctx context.Context, jobID uuid.UUID) error {
	m.cancelMu.Lock()
	cancel, ok := m.cancelFuncs[jobID]
	m.cancelMu.Unlock()
	if ok {
		cancel()
	}
	return m.terminal(ctx, jobID, piimodel.StatusCancelled, "", "job-cancelled")
}

func (m *Manager) terminal(ctx context.Context, jobID uuid.UUID, newStatus piimodel.JobStatus, message, eventPhase string) error {
	lock := m.lockFor(jobID)
	lock.Lock()
	defer lock.Unlock()

	job, err := m.repo.FindJobByID(ctx, jobID)
	if err != nil {
		return scanerrors.Wrap(scanerrors.InvalidInput, "job not found", err)
	}

	if err := m.transition(job, newStatus); err != nil {
		return err
	}

	now := time.Now()
	job.EndTime = &now
	if message != "" {
		job.ErrorMessage = &message
	}

	if err := m.repo.UpdateJob(ctx, job); err != nil {
		return scanerrors.Wrap(scanerrors.Unexpected, "persisting terminal status", err)
	}

	m.untrackCancel(jobID)
	m.publish(job, eventPhase, message)
	return nil
}

/* transition mutates job.Status/LastUpdateTime in place if newStatus is a
legal move from job.Status, or returns an IllegalStateTransition error
leaving job untouched. */
func (m *Manager) transition(job *piimodel.Job, newStatus piimodel.JobStatus) error {
	if job.Status.Terminal() {
		return scanerrors.New(scanerrors.IllegalStateTransition,
			fmt.Sprintf("cannot transition job %s out of terminal state %s", job.ID, job.Status))
	}

	allowed := allowedTransitions[job.Status]
	legal := false
	for _, s := range allowed {
		if s == newStatus {
			legal = true
			break
		}
	}
	if !legal {
		return scanerrors.New(scanerrors.IllegalStateTransition,
			fmt.Sprintf("cannot transition job %s from %s to %s", job.ID, job.Status, newStatus))
	}

	job.Status = newStatus
	job.LastUpdateTime = time.Now()
	return nil
}

/* publish emits a progress event; a failure to publish is logged and never
propagated. */
func (m *Manager) publish(job *piimodel.Job, phase, message string) {
	defer func() {
		if r := recover(); r != nil && m.log != nil {
			m.log.Error("recovered from panic publishing progress event", "panic", r)
		}
	}()

	m.notifier.Publish(piimodel.ProgressEvent{
		JobID:     job.ID,
		Status:    job.Status,
		Percent:   job.Status.ProgressPercent(),
		Phase:     phase,
		Message:   message,
		EmittedAt: time.Now(),
	})
}
