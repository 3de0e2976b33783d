// Package piimodel holds the shared data model for the PII scan core:
// jobs, schema metadata, sample data, detection results, quasi-identifier
// groups and the compliance report. Types here are owned by exactly one
// of Job / TableInfo / SchemaInfo; cross-references are expressed as ids
// resolved through internal/repository rather than mutable pointers, so
// the graph serializes forward-only with no cycles.
package piimodel

import (
	"time"

	"github.com/google/uuid"
)

/* JobStatus is one state in the scan lifecycle state machine (see scanjob). */
type JobStatus string

const (
	StatusPending            JobStatus = "PENDING"
	StatusExtractingMetadata JobStatus = "EXTRACTING_METADATA"
	StatusSampling           JobStatus = "SAMPLING"
	StatusDetectingPII       JobStatus = "DETECTING_PII"
	StatusAnalyzingQI        JobStatus = "ANALYZING_QI"
	StatusGeneratingReport   JobStatus = "GENERATING_REPORT"
	StatusCompleted          JobStatus = "COMPLETED"
	StatusFailed             JobStatus = "FAILED"
	StatusCancelled          JobStatus = "CANCELLED"
)

/* Terminal reports whether the status cannot transition further. */
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

/* ProgressPercent is the progress estimate for a given status. */
func (s JobStatus) ProgressPercent() int {
	switch s {
	case StatusPending:
		return 0
	case StatusExtractingMetadata:
		return 10
	case StatusSampling:
		return 30
	case StatusDetectingPII:
		return 60
	case StatusAnalyzingQI:
		return 70
	case StatusGeneratingReport:
		return 85
	case StatusCompleted, StatusFailed, StatusCancelled:
		return 100
	default:
		return 0
	}
}

/* DetectionConfig is the configurable multi-strategy pipeline surface. */
type DetectionConfig struct {
	HeuristicThreshold          float64
	RegexThreshold               float64
	NERThreshold                 float64
	ReportingThreshold           float64
	StopPipelineOnHighConfidence bool
	QuasiIdentifier              QIConfig
}

/* QIConfig configures the QI Analyzer's eligibility filter, grouping and risk scoring. */
type QIConfig struct {
	Enabled                    bool
	CorrelationAnalysisEnabled bool
	UseMachineLearning         bool
	MinGroupSize               int
	MaxGroupSize               int
	CorrelationThreshold       float64
	ClusteringDistanceThreshold float64
	MinDistinctValueCount      int
	MaxDistinctValueRatio      float64
	EntropyThreshold           float64
	KAnonymityThreshold        float64
}

/* SamplingConfig configures the sampling phase's row count, method and concurrency. */
type SamplingConfig struct {
	DefaultSize              int
	DefaultMethod             string
	MaxConcurrentDBQueries    int
	EntropyCalculationEnabled bool
}

/* DefaultDetectionConfig mirrors the thresholds used in the seed scenarios. */
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		HeuristicThreshold:           0.7,
		RegexThreshold:               0.5,
		NERThreshold:                 0.6,
		ReportingThreshold:           0.5,
		StopPipelineOnHighConfidence: true,
		QuasiIdentifier: QIConfig{
			Enabled:                     true,
			CorrelationAnalysisEnabled:  true,
			UseMachineLearning:          false,
			MinGroupSize:                2,
			MaxGroupSize:                5,
			CorrelationThreshold:        0.8,
			ClusteringDistanceThreshold: 0.3,
			MinDistinctValueCount:       5,
			MaxDistinctValueRatio:       0.9,
			EntropyThreshold:            1.0,
			KAnonymityThreshold:         5,
		},
	}
}

/* DefaultSamplingConfig is a reasonable default for local development and tests. */
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		DefaultSize:               1000,
		DefaultMethod:             "random",
		MaxConcurrentDBQueries:    4,
		EntropyCalculationEnabled: true,
	}
}

/* ScanRequest is the input to StartScan. */
type ScanRequest struct {
	ConnectionID    string
	TargetTables    []string
	SamplingConfig  SamplingConfig
	DetectionConfig DetectionConfig
}

/* Job is one long-running scan, tracked through the state machine. */
type Job struct {
	ID                             uuid.UUID
	ConnectionID                   string
	Request                        ScanRequest
	Status                         JobStatus
	StartTime                      time.Time
	EndTime                        *time.Time
	LastUpdateTime                 time.Time
	ErrorMessage                   *string
	DatabaseName                   string
	DatabaseProductName            string
	DatabaseProductVersion         string
	TotalColumnsScanned            int
	TotalPiiColumnsFound           int
	TotalQuasiIdentifierColumnsFound int
}

/* JobView is the read-only snapshot returned by GetJobStatus. */
type JobView struct {
	ID              uuid.UUID
	Status          JobStatus
	ProgressPercent int
	StartTime       time.Time
	EndTime         *time.Time
	ErrorMessage    *string
	TotalColumnsScanned  int
	TotalPiiColumnsFound int
}

func (j *Job) View() JobView {
	return JobView{
		ID:                   j.ID,
		Status:               j.Status,
		ProgressPercent:      j.Status.ProgressPercent(),
		StartTime:            j.StartTime,
		EndTime:              j.EndTime,
		ErrorMessage:         j.ErrorMessage,
		TotalColumnsScanned:  j.TotalColumnsScanned,
		TotalPiiColumnsFound: j.TotalPiiColumnsFound,
	}
}

/* ProgressEvent is published by the Job Manager on every state change. */
type ProgressEvent struct {
	JobID       uuid.UUID
	Status      JobStatus
	Percent     int
	Phase       string
	Message     string
	EmittedAt   time.Time
}

/* SchemaInfo owns a set of tables discovered during metadata extraction. */
type SchemaInfo struct {
	Name   string
	Tables []*TableInfo
}

/* TableInfo belongs to one SchemaInfo (by name, resolved via the Repository) and owns its columns. */
type TableInfo struct {
	SchemaRef string
	Name      string
	Columns   []*ColumnInfo
}

/* ColumnInfo is immutable after extraction and carries the foreign-key/PK facts
the QI Analyzer's eligibility filter needs. */
type ColumnInfo struct {
	TableRef           string
	SchemaRef          string
	ColumnName         string
	DatabaseTypeName   string
	IsNumeric          bool
	IsPrimaryKey       bool
	ParticipatesInFK   bool
	Comments           string
}

/* Key is the "table.column" cache/identity key used throughout the engine. */
func (c *ColumnInfo) Key() string {
	return c.TableRef + "." + c.ColumnName
}

/* SampleData is produced by the Sampler for one column. */
type SampleData struct {
	Column        *ColumnInfo
	Values        []*string // nil entry = SQL NULL
	TotalRowCount int
	TotalNullCount int
	Entropy       *float64
}

/* NonNullValues returns the sample's values with nulls excluded. */
func (s *SampleData) NonNullValues() []string {
	out := make([]string, 0, len(s.Values))
	for _, v := range s.Values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

/* PiiCandidate is one proposed finding from a single detection strategy. */
type PiiCandidate struct {
	Column           *ColumnInfo
	PiiType          string
	ConfidenceScore  float64
	StrategyName     string
	Evidence         string
}

/* DetectionResult is the per-column outcome of the Detection Engine, later
annotated by the QI Analyzer. */
type DetectionResult struct {
	Column                   *ColumnInfo
	Candidates               []PiiCandidate
	HighestConfidencePiiType string
	HighestConfidenceScore   float64
	HasPii                   bool
	IsQuasiIdentifier        bool
	QuasiIdentifierRiskScore float64
	ClusteringMethod         ClusteringMethod
	CorrelatedColumns        []string
}

/* Recompute derives HighestConfidencePiiType/Score/HasPii from Candidates. */
func (d *DetectionResult) Recompute(reportingThreshold float64) {
	d.HighestConfidencePiiType = ""
	d.HighestConfidenceScore = 0
	for _, c := range d.Candidates {
		if c.ConfidenceScore > d.HighestConfidenceScore {
			d.HighestConfidenceScore = c.ConfidenceScore
			d.HighestConfidencePiiType = c.PiiType
		}
	}
	d.HasPii = d.HighestConfidenceScore >= reportingThreshold
}

/* ClusteringMethod is how a CorrelatedQuasiIdentifierGroup was produced. */
type ClusteringMethod string

const (
	ClusteringGraphCorrelation ClusteringMethod = "GRAPH_CORRELATION"
	ClusteringMLClustering     ClusteringMethod = "ML_CLUSTERING"
)

/* CorrelatedQuasiIdentifierGroup is a named set of >= minGroupSize columns
that together carry re-identification risk. */
type CorrelatedQuasiIdentifierGroup struct {
	JobID                     uuid.UUID
	Name                      string
	Columns                   []*ColumnInfo
	ReIdentificationRiskScore float64
	ClusteringMethod          ClusteringMethod
	DistinctCombinations      int32
	SingletonCombinations     int32
	ContributionScores        map[string]float64 // keyed by ColumnInfo.Key()
}

/* DistributionMetrics is the Distribution Analyzer's output for one column. */
type DistributionMetrics struct {
	DistinctValueCount int
	TotalSampleCount   int
	DistinctValueRatio float64
	SingletonValueCount int
	Entropy            float64
	FrequencyMap       map[string]int
}

/* ComplianceReport is the Report Builder's output for one completed Job. */
type ComplianceReport struct {
	JobID                  uuid.UUID
	GeneratedAt            time.Time
	Host                   string // credentials stripped
	DatabaseProductName    string
	DatabaseProductVersion string
	Findings               []DetectionResult
	QuasiIdentifierGroups  []CorrelatedQuasiIdentifierGroup
	Summary                ReportSummary
	ComplianceScore        *float64
}

/* ReportSummary is the summary block. */
type ReportSummary struct {
	TablesScanned                  int
	ColumnsScanned                 int
	PiiColumnsFound                int
	TotalPiiCandidates             int
	QuasiIdentifierColumnsFound    int
	QuasiIdentifierGroupsFound     int
	ScanDurationMillis             int64
}
