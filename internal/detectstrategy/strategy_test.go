package detectstrategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

func strPtr(s string) *string { return &s }

func TestHeuristic_ExactNameMatch(t *testing.T) {
	h := NewHeuristic()
	col := &piimodel.ColumnInfo{ColumnName: "email"}

	candidates := h.Detect(context.Background(), col, &piimodel.SampleData{Column: col})

	var emailCandidate *piimodel.PiiCandidate
	for i := range candidates {
		if candidates[i].PiiType == "EMAIL" {
			emailCandidate = &candidates[i]
		}
	}
	require.NotNil(t, emailCandidate)
	assert.Equal(t, 0.8, emailCandidate.ConfidenceScore)
}

func TestHeuristic_ContainsMatchIsDiscounted(t *testing.T) {
	h := NewHeuristic()
	col := &piimodel.ColumnInfo{ColumnName: "user_email_address"}

	candidates := h.Detect(context.Background(), col, &piimodel.SampleData{Column: col})

	var emailCandidate *piimodel.PiiCandidate
	for i := range candidates {
		if candidates[i].PiiType == "EMAIL" {
			emailCandidate = &candidates[i]
		}
	}
	require.NotNil(t, emailCandidate)
	assert.InDelta(t, 0.8*0.8, emailCandidate.ConfidenceScore, 1e-9)
}

func TestRegex_CreditCardSeedScenario(t *testing.T) {
	r := NewRegex()
	col := &piimodel.ColumnInfo{ColumnName: "card_num"}

	values := []string{
		"4111111111111111", "4111-1111-1111-1111", "not a card", "also not",
		"4222222222222222", "5105105105105100", "nope", "nothing here",
		"4012888888881881", "6011111111111117",
	}
	samples := make([]*string, len(values))
	for i, v := range values {
		samples[i] = strPtr(v)
	}

	candidates := r.Detect(context.Background(), col, &piimodel.SampleData{Column: col, Values: samples})

	var cc *piimodel.PiiCandidate
	for i := range candidates {
		if candidates[i].PiiType == "CREDIT_CARD_NUMBER" {
			cc = &candidates[i]
		}
	}
	require.NotNil(t, cc)
	assert.InDelta(t, 0.57, cc.ConfidenceScore, 0.01)
	assert.Contains(t, cc.Evidence, "6 of 10")
	assert.Contains(t, cc.Evidence, "60.0%")
}

func TestRegex_BelowThresholdScoreIsDropped(t *testing.T) {
	r := NewRegex()
	col := &piimodel.ColumnInfo{ColumnName: "notes"}

	values := make([]*string, 20)
	for i := range values {
		values[i] = strPtr("plain text")
	}
	// Only one of twenty values matches the IP pattern.
	values[0] = strPtr("192.168.1.1")

	candidates := r.Detect(context.Background(), col, &piimodel.SampleData{Column: col, Values: values})
	assert.Empty(t, candidates)
}

type stubDetector struct {
	available bool
}

func (s *stubDetector) Available() bool { return s.available }
func (s *stubDetector) DetectEntities(ctx context.Context, samples []string) ([][]DetectedEntity, error) {
	return nil, nil
}

func TestNER_UnavailableYieldsNoCandidates(t *testing.T) {
	n := NewNER(&stubDetector{available: false}, 50)
	col := &piimodel.ColumnInfo{ColumnName: "notes"}

	candidates := n.Detect(context.Background(), col, &piimodel.SampleData{Column: col, Values: []*string{strPtr("x")}})
	assert.Empty(t, candidates)
}

func TestNER_NilClientYieldsNoCandidates(t *testing.T) {
	n := NewNER(nil, 50)
	col := &piimodel.ColumnInfo{ColumnName: "notes"}

	candidates := n.Detect(context.Background(), col, &piimodel.SampleData{Column: col, Values: []*string{strPtr("x")}})
	assert.Empty(t, candidates)
}
