// Package reportbuilder assembles the final ComplianceReport for a
// completed Job.
package reportbuilder

import (
	"time"

	"github.com/neurondb/NeuronIP/api/internal/connectors"
	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* Builder has no state; it is a pure assembly step over a Job's
DetectionResults and QI groups. */
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

/* Build assembles the ComplianceReport. The host field never carries
credentials: only ConnectionConfig.Host (and, failing that, a
connection-string-free placeholder) is surfaced. */
func (b *Builder) Build(
	job *piimodel.Job,
	connCfg connectors.ConnectionConfig,
	productName, productVersion string,
	results []piimodel.DetectionResult,
	groups []piimodel.CorrelatedQuasiIdentifierGroup,
) *piimodel.ComplianceReport {
	summary := b.summarize(job, results, groups)

	report := &piimodel.ComplianceReport{
		JobID:                  job.ID,
		GeneratedAt:            time.Now(),
		Host:                   sanitizedHost(connCfg),
		DatabaseProductName:    productName,
		DatabaseProductVersion: productVersion,
		Findings:               results,
		QuasiIdentifierGroups:  groups,
		Summary:                summary,
	}

	if score := complianceScore(summary); score != nil {
		report.ComplianceScore = score
	}

	return report
}

func (b *Builder) summarize(job *piimodel.Job, results []piimodel.DetectionResult, groups []piimodel.CorrelatedQuasiIdentifierGroup) piimodel.ReportSummary {
	tables := map[string]struct{}{}
	piiColumns := 0
	qiColumns := 0
	totalCandidates := 0

	for _, r := range results {
		if r.Column != nil {
			tables[r.Column.TableRef] = struct{}{}
		}
		if r.HasPii {
			piiColumns++
		}
		if r.IsQuasiIdentifier {
			qiColumns++
		}
		totalCandidates += len(r.Candidates)
	}

	var duration int64
	if job.EndTime != nil {
		duration = job.EndTime.Sub(job.StartTime).Milliseconds()
	}

	return piimodel.ReportSummary{
		TablesScanned:               len(tables),
		ColumnsScanned:              len(results),
		PiiColumnsFound:             piiColumns,
		TotalPiiCandidates:          totalCandidates,
		QuasiIdentifierColumnsFound: qiColumns,
		QuasiIdentifierGroupsFound:  len(groups),
		ScanDurationMillis:          duration,
	}
}

/* complianceScore is max(0, (1 - piiColumns/totalColumns) * 100); nil when
there are no scanned columns to avoid a divide-by-zero. */
func complianceScore(summary piimodel.ReportSummary) *float64 {
	if summary.ColumnsScanned == 0 {
		return nil
	}
	ratio := float64(summary.PiiColumnsFound) / float64(summary.ColumnsScanned)
	score := (1 - ratio) * 100
	if score < 0 {
		score = 0
	}
	return &score
}

/* sanitizedHost strips credentials: only Host is used, never
ConnectionString (which may embed user:password). */
func sanitizedHost(cfg connectors.ConnectionConfig) string {
	if cfg.Host != "" {
		return cfg.Host
	}
	return "unknown"
}
