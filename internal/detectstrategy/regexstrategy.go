package detectstrategy

import (
	"context"
	"fmt"
	"regexp"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* patternEntry is one precompiled regex with its canonical PII type and
base score, reshaped to the single baseScore the detection scoring
formula uses. */
type patternEntry struct {
	piiType   string
	baseScore float64
	pattern   *regexp.Regexp
}

var regexPatterns = []patternEntry{
	{"EMAIL", 0.85, regexp.MustCompile(`(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)},
	{"SSN", 0.9, regexp.MustCompile(`\b\d{3}-?\d{2}-?\d{4}\b`)},
	{"CREDIT_CARD_NUMBER", 0.95, regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`)},
	{"PHONE_NUMBER", 0.7, regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`)},
	{"IP_ADDRESS", 0.6, regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)},
}

/* Regex maintains the precompiled pattern map and scores a column by the
fraction of string samples each pattern matches . */
type Regex struct {
	patterns []patternEntry
}

func NewRegex() *Regex {
	return &Regex{patterns: regexPatterns}
}

func (r *Regex) Name() string {
	return "regex"
}

func (r *Regex) Detect(ctx context.Context, column *piimodel.ColumnInfo, sample *piimodel.SampleData) []piimodel.PiiCandidate {
	values := sample.NonNullValues()
	total := len(values)
	if total == 0 {
		return nil
	}

	var candidates []piimodel.PiiCandidate
	for _, p := range r.patterns {
		var firstMatch string
		matches := 0
		for _, v := range values {
			if p.pattern.MatchString(v) {
				matches++
				if firstMatch == "" {
					firstMatch = p.pattern.FindString(v)
				}
			}
		}
		if matches == 0 {
			continue
		}

		score := p.baseScore * (float64(matches) / float64(total))
		if score <= 0.2 {
			continue
		}

		pct := float64(matches) / float64(total) * 100
		evidence := fmt.Sprintf("%d of %d (%.1f%%) matched; example %q", matches, total, pct, maskEvidence(firstMatch))

		candidates = append(candidates, piimodel.PiiCandidate{
			Column:          column,
			PiiType:         p.piiType,
			ConfidenceScore: score,
			StrategyName:    r.Name(),
			Evidence:        evidence,
		})
	}

	return candidates
}
