package detectstrategy

import (
	"context"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* EntityDetector is the minimal remote-NER surface the strategy needs; the
concrete HTTP/circuit-breaker/retry client lives in internal/ner so this
package stays free of transport concerns. */
type EntityDetector interface {
	// Available reports whether the remote service is currently usable
	// (startup probe succeeded and the circuit breaker is not open).
	Available() bool
	// DetectEntities posts samples and returns, per input sample, a list
	// of {text, type, score} entities.
	DetectEntities(ctx context.Context, samples []string) ([][]DetectedEntity, error)
}

/* DetectedEntity mirrors one element of the NER service's response shape
. */
type DetectedEntity struct {
	Text  string
	Type  string
	Score float64
}

/* serviceTypeToPiiType maps the remote service's entity type vocabulary to
this system's canonical PII types . */
var serviceTypeToPiiType = map[string]string{
	"PERSON":       "PERSON_NAME",
	"EMAIL":        "EMAIL",
	"PHONE_NUMBER": "PHONE_NUMBER",
	"SSN":          "SSN",
	"CREDIT_CARD":  "CREDIT_CARD_NUMBER",
	"LOCATION":     "ADDRESS",
	"DATE":         "DATE_OF_BIRTH",
	"IP_ADDRESS":   "IP_ADDRESS",
}

/* NER posts string samples to a remote entity-recognition service and
scores each distinct entity type by average confidence times the fraction
of samples that contained it. The strategy treats the service as optional:
when Available() is false it emits nothing rather than failing the column
. */
type NER struct {
	client     EntityDetector
	maxSamples int
}

func NewNER(client EntityDetector, maxSamples int) *NER {
	return &NER{client: client, maxSamples: maxSamples}
}

func (n *NER) Name() string {
	return "ner"
}

func (n *NER) Detect(ctx context.Context, column *piimodel.ColumnInfo, sample *piimodel.SampleData) []piimodel.PiiCandidate {
	if n.client == nil || !n.client.Available() {
		return nil
	}

	values := sample.NonNullValues()
	if len(values) == 0 {
		return nil
	}
	if n.maxSamples > 0 && len(values) > n.maxSamples {
		values = values[:n.maxSamples]
	}

	results, err := n.client.DetectEntities(ctx, values)
	if err != nil {
		return nil
	}

	totalSamples := len(values)
	scoreSum := map[string]float64{}
	countSum := map[string]int{}
	samplesWithType := map[string]int{}

	for _, entities := range results {
		seenInThisSample := map[string]bool{}
		for _, e := range entities {
			scoreSum[e.Type] += e.Score
			countSum[e.Type]++
			if !seenInThisSample[e.Type] {
				samplesWithType[e.Type]++
				seenInThisSample[e.Type] = true
			}
		}
	}

	var candidates []piimodel.PiiCandidate
	for entityType, count := range countSum {
		avgScore := scoreSum[entityType] / float64(count)
		matchPct := float64(samplesWithType[entityType]) / float64(totalSamples)
		score := avgScore * matchPct
		if score <= 0.2 {
			continue
		}

		piiType, ok := serviceTypeToPiiType[entityType]
		if !ok {
			continue
		}

		candidates = append(candidates, piimodel.PiiCandidate{
			Column:          column,
			PiiType:         piiType,
			ConfidenceScore: score,
			StrategyName:    n.Name(),
			Evidence:        "NER entity type " + entityType,
		})
	}

	return candidates
}
