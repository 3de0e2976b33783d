// Package correlation computes pairwise column correlation for the QI
// Analyzer's grouping step: Pearson for numeric/numeric pairs, Cramér's V
// (via a chi-square contingency table) otherwise. Grounded on the
// pairwise-test-selection shape of gohypo's stats engine, adapted from a
// [-1,1] signed coefficient to an unsigned [0,1] scale.
package correlation

import (
	"math"
	"strconv"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* Pair identifies an unordered column pair by key (piimodel.ColumnInfo.Key()). */
type Pair struct {
	A, B string
}

/* Calculator computes a correlation matrix over a columnDataMap. */
type Calculator struct{}

func NewCalculator() *Calculator {
	return &Calculator{}
}

/* Matrix computes correlation in [0,1] for every unordered pair of columns
in samples. A pair's correlation is 0 whenever the underlying test cannot be
computed (insufficient data, NaN, zero denominator) rather than propagating
an error. */
func (c *Calculator) Matrix(samples map[string]*piimodel.SampleData) map[Pair]float64 {
	keys := make([]string, 0, len(samples))
	for k := range samples {
		keys = append(keys, k)
	}

	out := make(map[Pair]float64, len(keys)*(len(keys)-1)/2)
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			a, b := samples[keys[i]], samples[keys[j]]
			pair := Pair{A: keys[i], B: keys[j]}
			out[pair] = c.pairCorrelation(a, b)
		}
	}
	return out
}

func (c *Calculator) pairCorrelation(a, b *piimodel.SampleData) float64 {
	defer func() { recover() }() // a malformed pair must not abort the matrix

	if a.Column.IsNumeric && b.Column.IsNumeric {
		x, y, ok := alignNumeric(a.Values, b.Values)
		if !ok {
			return 0
		}
		return math.Abs(pearson(x, y))
	}
	return cramersV(a.Values, b.Values)
}

/* alignNumeric aligns two value sequences by position up to min(lengths),
parses both sides as numeric, and requires at least 3 coercible pairs. */
func alignNumeric(a, b []*string) ([]float64, []float64, bool) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	x := make([]float64, 0, n)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if a[i] == nil || b[i] == nil {
			continue
		}
		fx, errX := strconv.ParseFloat(*a[i], 64)
		fy, errY := strconv.ParseFloat(*b[i], 64)
		if errX != nil || errY != nil {
			continue
		}
		x = append(x, fx)
		y = append(y, fy)
	}

	if len(x) < 3 {
		return nil, nil, false
	}
	return x, y, true
}

/* pearson computes the Pearson correlation coefficient of x and y; returns
0 if the denominator is zero or the result is NaN. */
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	numerator := n*sumXY - sumX*sumY
	denominator := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))
	if denominator == 0 {
		return 0
	}

	r := numerator / denominator
	if math.IsNaN(r) {
		return 0
	}
	return r
}

/* cramersV builds a contingency table over positionally aligned non-null
pairs and returns the association strength in [0,1]. Requires at least 2
unique values on each side. */
func cramersV(a, b []*string) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	rowIndex := map[string]int{}
	colIndex := map[string]int{}
	type cell struct{ r, c int }
	counts := map[cell]int{}

	aligned := 0
	for i := 0; i < n; i++ {
		if a[i] == nil || b[i] == nil {
			continue
		}
		r, ok := rowIndex[*a[i]]
		if !ok {
			r = len(rowIndex)
			rowIndex[*a[i]] = r
		}
		cIdx, ok := colIndex[*b[i]]
		if !ok {
			cIdx = len(colIndex)
			colIndex[*b[i]] = cIdx
		}
		counts[cell{r, cIdx}]++
		aligned++
	}

	rows, cols := len(rowIndex), len(colIndex)
	if rows < 2 || cols < 2 || aligned == 0 {
		return 0
	}

	rowTotals := make([]int, rows)
	colTotals := make([]int, cols)
	for cl, cnt := range counts {
		rowTotals[cl.r] += cnt
		colTotals[cl.c] += cnt
	}

	n2 := float64(aligned)
	var chiSq float64
	for r := 0; r < rows; r++ {
		for cIdx := 0; cIdx < cols; cIdx++ {
			observed := float64(counts[cell{r, cIdx}])
			expected := float64(rowTotals[r]) * float64(colTotals[cIdx]) / n2
			if expected == 0 {
				continue
			}
			diff := observed - expected
			chiSq += diff * diff / expected
		}
	}

	minDim := rows
	if cols < minDim {
		minDim = cols
	}
	denom := n2 * float64(minDim-1)
	if denom <= 0 {
		return 0
	}

	v := math.Sqrt(chiSq / denom)
	if math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		v = 1
	}
	if v < 0 {
		v = 0
	}
	return v
}
