package correlation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

func numericSample(col *piimodel.ColumnInfo, vals ...string) *piimodel.SampleData {
	values := make([]*string, len(vals))
	for i, v := range vals {
		vv := v
		values[i] = &vv
	}
	return &piimodel.SampleData{Column: col, Values: values}
}

func TestMatrix_PerfectlyCorrelatedNumericColumns(t *testing.T) {
	c := NewCalculator()
	colA := &piimodel.ColumnInfo{TableRef: "t", ColumnName: "a", IsNumeric: true}
	colB := &piimodel.ColumnInfo{TableRef: "t", ColumnName: "b", IsNumeric: true}

	samples := map[string]*piimodel.SampleData{
		colA.Key(): numericSample(colA, "1", "2", "3", "4", "5"),
		colB.Key(): numericSample(colB, "2", "4", "6", "8", "10"),
	}

	m := c.Matrix(samples)
	require.Len(t, m, 1)
	for _, v := range m {
		assert.InDelta(t, 1.0, v, 1e-9)
	}
}

func TestMatrix_InsufficientNumericPairsYieldsZero(t *testing.T) {
	c := NewCalculator()
	colA := &piimodel.ColumnInfo{TableRef: "t", ColumnName: "a", IsNumeric: true}
	colB := &piimodel.ColumnInfo{TableRef: "t", ColumnName: "b", IsNumeric: true}

	samples := map[string]*piimodel.SampleData{
		colA.Key(): numericSample(colA, "1", "2"),
		colB.Key(): numericSample(colB, "1", "2"),
	}

	m := c.Matrix(samples)
	for _, v := range m {
		assert.Equal(t, 0.0, v)
	}
}

func TestMatrix_CategoricalPairWithinUnitRange(t *testing.T) {
	c := NewCalculator()
	colA := &piimodel.ColumnInfo{TableRef: "t", ColumnName: "city"}
	colB := &piimodel.ColumnInfo{TableRef: "t", ColumnName: "zip"}

	samples := map[string]*piimodel.SampleData{
		colA.Key(): numericSample(colA, "NYC", "NYC", "LA", "LA", "LA"),
		colB.Key(): numericSample(colB, "10001", "10001", "90001", "90001", "90001"),
	}

	m := c.Matrix(samples)
	require.Len(t, m, 1)
	for _, v := range m {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestMatrix_SingleColumnYieldsEmptyMatrix(t *testing.T) {
	c := NewCalculator()
	colA := &piimodel.ColumnInfo{TableRef: "t", ColumnName: "a", IsNumeric: true}
	samples := map[string]*piimodel.SampleData{
		colA.Key(): numericSample(colA, "1", "2", "3"),
	}

	m := c.Matrix(samples)
	assert.Empty(t, m)
}
