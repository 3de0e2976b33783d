package reportbuilder

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronIP/api/internal/connectors"
	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

func TestBuild_ComputesSummaryAndComplianceScore(t *testing.T) {
	start := time.Now().Add(-time.Minute)
	end := start.Add(45 * time.Second)
	job := &piimodel.Job{ID: uuid.New(), StartTime: start, EndTime: &end}

	results := []piimodel.DetectionResult{
		{Column: &piimodel.ColumnInfo{TableRef: "users", ColumnName: "email"}, HasPii: true, Candidates: []piimodel.PiiCandidate{{}}},
		{Column: &piimodel.ColumnInfo{TableRef: "users", ColumnName: "zip"}, IsQuasiIdentifier: true},
		{Column: &piimodel.ColumnInfo{TableRef: "orders", ColumnName: "id"}},
	}
	groups := []piimodel.CorrelatedQuasiIdentifierGroup{{JobID: job.ID, Name: "group-1"}}

	b := NewBuilder()
	report := b.Build(job, connectors.ConnectionConfig{Host: "db.internal", Password: "s3cr3t"}, "PostgreSQL", "16.0", results, groups)

	assert.Equal(t, "db.internal", report.Host)
	assert.NotContains(t, report.Host, "s3cr3t")
	assert.Equal(t, 2, report.Summary.TablesScanned)
	assert.Equal(t, 3, report.Summary.ColumnsScanned)
	assert.Equal(t, 1, report.Summary.PiiColumnsFound)
	assert.Equal(t, 1, report.Summary.QuasiIdentifierColumnsFound)
	assert.Equal(t, 1, report.Summary.QuasiIdentifierGroupsFound)
	assert.Equal(t, int64(45000), report.Summary.ScanDurationMillis)

	require.NotNil(t, report.ComplianceScore)
	assert.InDelta(t, 66.67, *report.ComplianceScore, 0.1)
}

func TestBuild_NoColumnsYieldsNilComplianceScore(t *testing.T) {
	job := &piimodel.Job{ID: uuid.New(), StartTime: time.Now()}
	b := NewBuilder()
	report := b.Build(job, connectors.ConnectionConfig{}, "PostgreSQL", "16.0", nil, nil)
	assert.Nil(t, report.ComplianceScore)
	assert.Equal(t, "unknown", report.Host)
}
