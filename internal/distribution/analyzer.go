// Package distribution computes per-column frequency and entropy metrics
// used by the QI Analyzer's eligibility filter and contribution scoring.
package distribution

import (
	"math"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* Analyzer computes DistributionMetrics for a single column's sample data. */
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

/* Analyze builds frequency, cardinality and Shannon entropy stats for one
column. Null samples are excluded from counts and entropy; empty input
yields zero entropy and zero ratios. */
func (a *Analyzer) Analyze(sample *piimodel.SampleData) piimodel.DistributionMetrics {
	values := sample.NonNullValues()
	freq := make(map[string]int, len(values))
	for _, v := range values {
		freq[v]++
	}

	total := len(values)
	distinct := len(freq)

	metrics := piimodel.DistributionMetrics{
		DistinctValueCount: distinct,
		TotalSampleCount:   total,
		FrequencyMap:       freq,
	}

	if total == 0 {
		return metrics
	}

	metrics.DistinctValueRatio = float64(distinct) / float64(total)

	singletons := 0
	var entropy float64
	totalF := float64(total)
	for _, count := range freq {
		if count == 1 {
			singletons++
		}
		p := float64(count) / totalF
		entropy -= p * math.Log2(p)
	}
	metrics.SingletonValueCount = singletons
	metrics.Entropy = entropy

	return metrics
}
