package qianalyzer

import (
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

func strPtr(s string) *string { return &s }

func numericColumn(table, name string) *piimodel.ColumnInfo {
	return &piimodel.ColumnInfo{TableRef: table, ColumnName: name, IsNumeric: true}
}

func numericValues(vals ...float64) []*string {
	out := make([]*string, len(vals))
	for i, v := range vals {
		out[i] = strPtr(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return out
}

func defaultQIConfig() piimodel.QIConfig {
	return piimodel.QIConfig{
		Enabled:                     true,
		CorrelationAnalysisEnabled:  true,
		MinGroupSize:                2,
		MaxGroupSize:                5,
		CorrelationThreshold:        0.8,
		ClusteringDistanceThreshold: 0.3,
		MinDistinctValueCount:       3,
		MaxDistinctValueRatio:       1.0,
		EntropyThreshold:            0,
		KAnonymityThreshold:         5,
	}
}

func TestAnalyze_ThreeCorrelatedColumnsFormOneGroup(t *testing.T) {
	colA := numericColumn("t", "a")
	colB := numericColumn("t", "b")
	colC := numericColumn("t", "c")

	// Strongly co-varying linear series so Pearson correlation clears 0.8 for every pair.
	a := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	b := []float64{2, 4, 6, 8, 10, 12, 14, 16}
	c := []float64{1.1, 2.2, 3.1, 4.3, 5.2, 6.1, 7.3, 8.2}

	samples := map[string]*piimodel.SampleData{
		colA.Key(): {Column: colA, Values: numericValues(a...), TotalRowCount: len(a)},
		colB.Key(): {Column: colB, Values: numericValues(b...), TotalRowCount: len(b)},
		colC.Key(): {Column: colC, Values: numericValues(c...), TotalRowCount: len(c)},
	}

	results := []piimodel.DetectionResult{
		{Column: colA}, {Column: colB}, {Column: colC},
	}

	analyzer := NewAnalyzer()
	groups := analyzer.Analyze(uuid.New(), samples, results, defaultQIConfig())

	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Columns, 3)
	assert.Equal(t, piimodel.ClusteringGraphCorrelation, groups[0].ClusteringMethod)
	assert.True(t, groups[0].ReIdentificationRiskScore >= 0 && groups[0].ReIdentificationRiskScore <= 1)

	for i := range results {
		assert.True(t, results[i].IsQuasiIdentifier)
		assert.Len(t, results[i].CorrelatedColumns, 2)
	}
}

func TestAnalyze_SingleEligibleColumnYieldsNoGroups(t *testing.T) {
	col := numericColumn("t", "a")
	samples := map[string]*piimodel.SampleData{
		col.Key(): {Column: col, Values: numericValues(1, 2, 3, 4, 5), TotalRowCount: 5},
	}
	results := []piimodel.DetectionResult{{Column: col}}

	analyzer := NewAnalyzer()
	groups := analyzer.Analyze(uuid.New(), samples, results, defaultQIConfig())

	assert.Empty(t, groups)
	assert.False(t, results[0].IsQuasiIdentifier)
}

func TestAnalyze_PrimaryKeyColumnExcludedFromEligibility(t *testing.T) {
	pk := &piimodel.ColumnInfo{TableRef: "t", ColumnName: "id", IsNumeric: true, IsPrimaryKey: true}
	other := numericColumn("t", "b")

	samples := map[string]*piimodel.SampleData{
		pk.Key():    {Column: pk, Values: numericValues(1, 2, 3, 4, 5), TotalRowCount: 5},
		other.Key(): {Column: other, Values: numericValues(2, 4, 6, 8, 10), TotalRowCount: 5},
	}
	results := []piimodel.DetectionResult{{Column: pk}, {Column: other}}

	analyzer := NewAnalyzer()
	groups := analyzer.Analyze(uuid.New(), samples, results, defaultQIConfig())

	assert.Empty(t, groups, "only one non-PK column remains eligible, below minGroupSize")
}

func TestAnalyze_ColumnWithExistingPiiExcluded(t *testing.T) {
	colA := numericColumn("t", "a")
	colB := numericColumn("t", "b")

	samples := map[string]*piimodel.SampleData{
		colA.Key(): {Column: colA, Values: numericValues(1, 2, 3, 4, 5), TotalRowCount: 5},
		colB.Key(): {Column: colB, Values: numericValues(2, 4, 6, 8, 10), TotalRowCount: 5},
	}
	results := []piimodel.DetectionResult{
		{Column: colA, HasPii: true},
		{Column: colB},
	}

	analyzer := NewAnalyzer()
	groups := analyzer.Analyze(uuid.New(), samples, results, defaultQIConfig())

	assert.Empty(t, groups)
}
