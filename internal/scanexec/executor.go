// Package scanexec implements the Scan Executor: it drives one Job through
// the five sequential phases of a scan (metadata, sampling, detection, QI
// analysis, report).
package scanexec

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/neurondb/NeuronIP/api/internal/connectors"
	"github.com/neurondb/NeuronIP/api/internal/detection"
	"github.com/neurondb/NeuronIP/api/internal/logging"
	"github.com/neurondb/NeuronIP/api/internal/metadata"
	"github.com/neurondb/NeuronIP/api/internal/metrics"
	"github.com/neurondb/NeuronIP/api/internal/piimodel"
	"github.com/neurondb/NeuronIP/api/internal/qianalyzer"
	"github.com/neurondb/NeuronIP/api/internal/reportbuilder"
	"github.com/neurondb/NeuronIP/api/internal/repository"
	"github.com/neurondb/NeuronIP/api/internal/sampling"
	"github.com/neurondb/NeuronIP/api/internal/scanerrors"
	"github.com/neurondb/NeuronIP/api/internal/scanjob"
)

/* Executor runs scan Jobs end to end. Each Job runs its phases one after
another; RunAll bounds how many Jobs of a batch run at once. */
type Executor struct {
	jobs     *scanjob.Manager
	repo     repository.Repository
	metadata *metadata.Extractor
	sampler  *sampling.Sampler
	detector *detection.Engine
	qi       *qianalyzer.Analyzer
	reports  *reportbuilder.Builder
	log      *logging.Logger

	maxConcurrentJobs int
}

func NewExecutor(
	jobs *scanjob.Manager,
	repo repository.Repository,
	metadataExtractor *metadata.Extractor,
	sampler *sampling.Sampler,
	detector *detection.Engine,
	qi *qianalyzer.Analyzer,
	reports *reportbuilder.Builder,
	log *logging.Logger,
	maxConcurrentJobs int,
) *Executor {
	if maxConcurrentJobs <= 0 {
		maxConcurrentJobs = 4
	}
	return &Executor{
		jobs:              jobs,
		repo:              repo,
		metadata:          metadataExtractor,
		sampler:           sampler,
		detector:          detector,
		qi:                qi,
		reports:           reports,
		log:               log,
		maxConcurrentJobs: maxConcurrentJobs,
	}
}

/* RunAll runs every job with at most maxConcurrentJobs running at once and
blocks until all have finished. RunJob itself takes no slot from that
limit: the scan API calls it directly on one goroutine per StartScan call,
so jobs started that way are not bounded by maxConcurrentJobs. */
func (e *Executor) RunAll(ctx context.Context, jobs []*piimodel.Job, connCfg map[uuid.UUID]connectors.ConnectionConfig) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrentJobs)

	for _, job := range jobs {
		job := job
		cfg := connCfg[job.ID]
		g.Go(func() error {
			e.RunJob(ctx, job, cfg)
			return nil
		})
	}
	return g.Wait()
}

/* RunJob drives one Job through extract-metadata, sample, detect-PII,
analyze-QI and generate-report, transitioning the Job Manager's state
machine between phases and releasing the database connection on every
exit path, including panics. */
func (e *Executor) RunJob(ctx context.Context, job *piimodel.Job, connCfg connectors.ConnectionConfig) {
	var conn connectors.Connector
	defer func() {
		if r := recover(); r != nil {
			if conn != nil {
				_ = conn.Close()
			}
			e.fail(ctx, job.ID, "unexpected error", fmt.Errorf("panic: %v", r))
			return
		}
	}()

	conn, err := connectors.Open(ctx, connCfg)
	if err != nil {
		e.fail(ctx, job.ID, "extract-metadata", scanerrors.Wrap(scanerrors.DatabaseConnection, "opening connector", err))
		return
	}

	schema, ok := e.extractMetadata(ctx, job, conn)
	if !ok {
		_ = conn.Close()
		return
	}

	if e.cancelledAtBoundary(ctx, job) {
		_ = conn.Close()
		return
	}

	sampleMap, ok := e.sample(ctx, job, conn, schema)
	if !ok {
		_ = conn.Close()
		return
	}

	if e.cancelledAtBoundary(ctx, job) {
		_ = conn.Close()
		return
	}

	results, ok := e.detectPII(ctx, job, sampleMap)
	if !ok {
		_ = conn.Close()
		return
	}

	if e.cancelledAtBoundary(ctx, job) {
		_ = conn.Close()
		return
	}

	groups, ok := e.analyzeQI(ctx, job, sampleMap, results)
	if !ok {
		_ = conn.Close()
		return
	}

	if e.cancelledAtBoundary(ctx, job) {
		_ = conn.Close()
		return
	}

	productName := conn.ProductName()
	productVersion, _ := conn.ProductVersion(ctx)
	_ = conn.Close()
	conn = nil

	e.generateReport(ctx, job, connCfg, productName, productVersion, results, groups)
}

func (e *Executor) extractMetadata(ctx context.Context, job *piimodel.Job, conn connectors.Connector) (*piimodel.SchemaInfo, bool) {
	updated, err := e.jobs.UpdateStatus(ctx, job.ID, piimodel.StatusExtractingMetadata)
	if err != nil {
		e.fail(ctx, job.ID, "extract-metadata", err)
		return nil, false
	}
	*job = *updated

	schema, err := e.metadata.Extract(ctx, conn, job.Request.TargetTables)
	if err != nil {
		e.fail(ctx, job.ID, "extract-metadata", scanerrors.Wrap(scanerrors.MetadataExtraction, "extracting schema", err))
		return nil, false
	}

	totalColumns := 0
	for _, t := range schema.Tables {
		totalColumns += len(t.Columns)
	}

	job.DatabaseName = schema.Name
	job.DatabaseProductName = conn.ProductName()
	if version, err := conn.ProductVersion(ctx); err == nil {
		job.DatabaseProductVersion = version
	}
	job.TotalColumnsScanned = totalColumns

	if err := e.repo.UpdateJob(ctx, job); err != nil {
		e.fail(ctx, job.ID, "extract-metadata", err)
		return nil, false
	}

	return schema, true
}

func (e *Executor) sample(ctx context.Context, job *piimodel.Job, conn connectors.Connector, schema *piimodel.SchemaInfo) (map[string]*piimodel.SampleData, bool) {
	updated, err := e.jobs.UpdateStatus(ctx, job.ID, piimodel.StatusSampling)
	if err != nil {
		e.fail(ctx, job.ID, "sample", err)
		return nil, false
	}
	*job = *updated

	samples, err := e.sampler.Sample(ctx, conn, schema, job.Request.SamplingConfig)
	if err != nil {
		e.fail(ctx, job.ID, "sample", scanerrors.Wrap(scanerrors.Sampling, "sampling columns", err))
		return nil, false
	}
	return samples, true
}

func (e *Executor) detectPII(ctx context.Context, job *piimodel.Job, samples map[string]*piimodel.SampleData) ([]piimodel.DetectionResult, bool) {
	updated, err := e.jobs.UpdateStatus(ctx, job.ID, piimodel.StatusDetectingPII)
	if err != nil {
		e.fail(ctx, job.ID, "detect-pii", err)
		return nil, false
	}
	*job = *updated

	results := e.detector.Detect(ctx, samples)

	piiColumns := 0
	for _, r := range results {
		if r.HasPii {
			piiColumns++
		}
	}
	metrics.RecordColumnsScanned(len(results))
	metrics.RecordPiiColumnsFound(piiColumns)
	metrics.SetDetectionCacheHitRatio(e.detector.CacheHitRatio())

	job.TotalPiiColumnsFound = piiColumns
	if err := e.repo.UpdateJob(ctx, job); err != nil {
		e.fail(ctx, job.ID, "detect-pii", err)
		return nil, false
	}
	if err := e.repo.SaveDetectionResults(ctx, job.ID, results); err != nil {
		e.fail(ctx, job.ID, "detect-pii", err)
		return nil, false
	}

	return results, true
}

func (e *Executor) analyzeQI(ctx context.Context, job *piimodel.Job, samples map[string]*piimodel.SampleData, results []piimodel.DetectionResult) ([]piimodel.CorrelatedQuasiIdentifierGroup, bool) {
	updated, err := e.jobs.UpdateStatus(ctx, job.ID, piimodel.StatusAnalyzingQI)
	if err != nil {
		e.fail(ctx, job.ID, "analyze-qi", err)
		return nil, false
	}
	*job = *updated

	if !job.Request.DetectionConfig.QuasiIdentifier.Enabled {
		return nil, true
	}

	groups := e.qi.Analyze(job.ID, samples, results, job.Request.DetectionConfig.QuasiIdentifier)

	qiColumns := 0
	for _, r := range results {
		if r.IsQuasiIdentifier {
			qiColumns++
		}
	}
	job.TotalQuasiIdentifierColumnsFound = qiColumns
	if err := e.repo.UpdateJob(ctx, job); err != nil {
		e.fail(ctx, job.ID, "analyze-qi", err)
		return nil, false
	}

	for _, group := range groups {
		if err := e.repo.SaveQiGroup(ctx, group); err != nil && e.log != nil {
			e.log.WithError(err).Error("saving qi group failed, continuing")
		}
	}

	return groups, true
}

func (e *Executor) generateReport(
	ctx context.Context,
	job *piimodel.Job,
	connCfg connectors.ConnectionConfig,
	productName, productVersion string,
	results []piimodel.DetectionResult,
	groups []piimodel.CorrelatedQuasiIdentifierGroup,
) {
	updated, err := e.jobs.UpdateStatus(ctx, job.ID, piimodel.StatusGeneratingReport)
	if err != nil {
		e.fail(ctx, job.ID, "generate-report", err)
		return
	}
	*job = *updated

	report := e.reports.Build(job, connCfg, productName, productVersion, results, groups)
	if err := e.repo.SaveReport(ctx, report); err != nil {
		e.fail(ctx, job.ID, "generate-report", scanerrors.Wrap(scanerrors.ReportGeneration, "saving report", err))
		return
	}

	if err := e.jobs.CompleteJob(ctx, job.ID); err != nil && e.log != nil {
		e.log.WithError(err).Error("completing job failed after report was saved")
		return
	}
	metrics.RecordScanJobDuration("COMPLETED", time.Since(job.StartTime).Seconds())
}

/* cancelledAtBoundary checks the cancellation signal only at phase
boundaries; in-flight work within a phase always runs to completion. */
func (e *Executor) cancelledAtBoundary(ctx context.Context, job *piimodel.Job) bool {
	select {
	case <-ctx.Done():
		if err := e.jobs.CancelJob(context.Background(), job.ID); err != nil && e.log != nil {
			e.log.WithError(err).Error("cancelling job at phase boundary failed")
		} else {
			metrics.RecordScanJobDuration("CANCELLED", time.Since(job.StartTime).Seconds())
		}
		return true
	default:
		return false
	}
}

/* fail maps any phase error to a FAILED transition with message
"<phase>: <cause>", or "unexpected error" for unrecognized causes. */
func (e *Executor) fail(ctx context.Context, jobID uuid.UUID, phase string, cause error) {
	message := fmt.Sprintf("%s: %s", phase, classify(cause))
	job, lookupErr := e.jobs.GetStatus(context.Background(), jobID)
	if err := e.jobs.FailJob(context.Background(), jobID, message); err != nil && e.log != nil {
		e.log.WithError(err).Error("transitioning job to FAILED failed")
		return
	}
	if lookupErr == nil {
		metrics.RecordScanJobDuration("FAILED", time.Since(job.StartTime).Seconds())
	}
}

func classify(err error) string {
	if se, ok := scanerrors.As(err); ok {
		return se.Error()
	}
	return "unexpected error"
}
