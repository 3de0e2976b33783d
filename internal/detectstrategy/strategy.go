// Package detectstrategy implements the three pluggable detection
// strategies — Heuristic, Regex, and NER — behind a small shared
// capability interface. The Detection Engine iterates a fixed ordered
// slice of Strategy rather than a polymorphic class hierarchy.
package detectstrategy

import (
	"context"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* Strategy is the capability every detection strategy implements. */
type Strategy interface {
	Name() string
	Detect(ctx context.Context, column *piimodel.ColumnInfo, sample *piimodel.SampleData) []piimodel.PiiCandidate
}

/* maskEvidence keeps the first and last character of a value and masks the
interior, per's Regex evidence requirement. */
func maskEvidence(value string) string {
	r := []rune(value)
	if len(r) <= 2 {
		return value
	}
	masked := make([]rune, len(r))
	masked[0] = r[0]
	masked[len(r)-1] = r[len(r)-1]
	for i := 1; i < len(r)-1; i++ {
		masked[i] = '*'
	}
	return string(masked)
}
