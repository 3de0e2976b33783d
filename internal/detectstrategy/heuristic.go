package detectstrategy

import (
	"context"
	"strings"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* keywordEntry maps a keyword to its canonical PII type and a single
baseScore, collapsing what a richer category/riskLevel scheme would track
into the one number the scoring formula needs. */
type keywordEntry struct {
	piiType   string
	baseScore float64
}

var heuristicKeywords = map[string]keywordEntry{
	"ssn":             {"SSN", 0.95},
	"social_security": {"SSN", 0.95},
	"email":           {"EMAIL", 0.8},
	"phone":           {"PHONE_NUMBER", 0.8},
	"credit_card":     {"CREDIT_CARD_NUMBER", 0.95},
	"card_number":     {"CREDIT_CARD_NUMBER", 0.9},
	"passport":        {"PASSPORT_NUMBER", 0.9},
	"driver_license":  {"DRIVER_LICENSE", 0.85},
	"date_of_birth":   {"DATE_OF_BIRTH", 0.85},
	"dob":             {"DATE_OF_BIRTH", 0.85},
	"birth_date":      {"DATE_OF_BIRTH", 0.85},
	"address":         {"ADDRESS", 0.75},
	"street":          {"ADDRESS", 0.7},
	"city":            {"ADDRESS", 0.5},
	"zip":             {"POSTAL_CODE", 0.6},
	"postal":          {"POSTAL_CODE", 0.6},
	"first_name":      {"PERSON_NAME", 0.8},
	"last_name":       {"PERSON_NAME", 0.8},
	"full_name":       {"PERSON_NAME", 0.85},
	"name":            {"PERSON_NAME", 0.7},
	"username":        {"USERNAME", 0.6},
	"ip_address":      {"IP_ADDRESS", 0.7},
}

/* Heuristic matches the column name and comment against a keyword→baseScore
table . */
type Heuristic struct {
	keywords map[string]keywordEntry
}

func NewHeuristic() *Heuristic {
	return &Heuristic{keywords: heuristicKeywords}
}

func (h *Heuristic) Name() string {
	return "heuristic"
}

func (h *Heuristic) Detect(ctx context.Context, column *piimodel.ColumnInfo, sample *piimodel.SampleData) []piimodel.PiiCandidate {
	nameLower := strings.ToLower(column.ColumnName)
	commentLower := strings.ToLower(column.Comments)

	var candidates []piimodel.PiiCandidate
	for keyword, entry := range h.keywords {
		var score float64
		var evidence string

		switch {
		case nameLower == keyword:
			score = entry.baseScore
			evidence = "column name equals keyword \"" + keyword + "\""
		case strings.Contains(nameLower, keyword):
			score = 0.8 * entry.baseScore
			evidence = "column name contains keyword \"" + keyword + "\""
		case commentLower != "" && strings.Contains(commentLower, keyword):
			score = 0.7 * entry.baseScore
			evidence = "comment contains keyword \"" + keyword + "\""
		default:
			continue
		}

		candidates = append(candidates, piimodel.PiiCandidate{
			Column:          column,
			PiiType:         entry.piiType,
			ConfidenceScore: score,
			StrategyName:    h.Name(),
			Evidence:        evidence,
		})
	}

	return candidates
}
