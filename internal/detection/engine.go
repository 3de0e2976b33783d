// Package detection implements the Detection Engine of: runs the
// ordered strategy pipeline per column with short-circuit, resolves
// conflicts by highest confidence per PII type, filters by reporting
// threshold, and caches results. Grounded on the rule-priority /
// early-exit shape of classification.ClassifyColumn.
package detection

import (
	"context"
	"fmt"

	"github.com/neurondb/NeuronIP/api/internal/detectcache"
	"github.com/neurondb/NeuronIP/api/internal/detectstrategy"
	"github.com/neurondb/NeuronIP/api/internal/logging"
	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* thresholdFor returns the strategy-specific short-circuit threshold used
to decide whether later strategies in the pipeline should run. */
func thresholdFor(cfg piimodel.DetectionConfig, strategyName string) float64 {
	switch strategyName {
	case "heuristic":
		return cfg.HeuristicThreshold
	case "regex":
		return cfg.RegexThreshold
	case "ner":
		return cfg.NERThreshold
	default:
		return 1.0
	}
}

/* Engine runs the fixed-order strategy pipeline over a batch of columns. */
type Engine struct {
	strategies []detectstrategy.Strategy
	cache      *detectcache.Cache
	config     piimodel.DetectionConfig
	log        *logging.Logger
}

/* NewEngine builds an Engine that runs strategies in the order of the given
slice; the Engine does not reorder them and no configuration key does. */
func NewEngine(strategies []detectstrategy.Strategy, cache *detectcache.Cache, config piimodel.DetectionConfig, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.DefaultLogger
	}
	return &Engine{strategies: strategies, cache: cache, config: config, log: log}
}

/* configStamp fingerprints the thresholds that affect cached results, so a
config change invalidates the cache lazily . */
func (e *Engine) configStamp() string {
	return fmt.Sprintf("h=%.3f|r=%.3f|n=%.3f|rep=%.3f|stop=%t",
		e.config.HeuristicThreshold, e.config.RegexThreshold, e.config.NERThreshold,
		e.config.ReportingThreshold, e.config.StopPipelineOnHighConfidence)
}

/* Detect runs the pipeline over every column in columnDataMap, preserving
the input set: exactly one DetectionResult is returned per input column,
even when a strategy errors or the sample data is empty. */
func (e *Engine) Detect(ctx context.Context, columnDataMap map[string]*piimodel.SampleData) []piimodel.DetectionResult {
	stamp := e.configStamp()
	results := make([]piimodel.DetectionResult, 0, len(columnDataMap))

	for key, sample := range columnDataMap {
		if cached, ok := e.cacheGet(key, stamp); ok {
			results = append(results, cached)
			continue
		}
		result := e.detectColumn(ctx, sample)
		if e.cache != nil {
			e.cache.Put(key, stamp, result)
		}
		results = append(results, result)
	}

	return results
}

/* CacheHitRatio reports the engine's detection-result cache hit ratio, or 0
if the engine has no cache wired. */
func (e *Engine) CacheHitRatio() float64 {
	if e.cache == nil {
		return 0
	}
	return e.cache.HitRatio()
}

func (e *Engine) cacheGet(key, stamp string) (piimodel.DetectionResult, bool) {
	if e.cache == nil {
		return piimodel.DetectionResult{}, false
	}
	return e.cache.Get(key, stamp)
}

func (e *Engine) detectColumn(ctx context.Context, sample *piimodel.SampleData) piimodel.DetectionResult {
	var all []piimodel.PiiCandidate

	for _, strategy := range e.strategies {
		candidates := e.runStrategy(ctx, strategy, sample)
		all = append(all, candidates...)

		if e.config.StopPipelineOnHighConfidence && clearsThreshold(candidates, thresholdFor(e.config, strategy.Name())) {
			break
		}
	}

	resolved := resolveConflicts(all)
	filtered := filterByThreshold(resolved, e.config.ReportingThreshold)

	result := piimodel.DetectionResult{
		Column:     sample.Column,
		Candidates: filtered,
	}
	result.Recompute(e.config.ReportingThreshold)
	return result
}

/* runStrategy isolates a single strategy's panic behind a recover so that
errors inside one strategy yield an empty candidate list for that strategy
and never abort the batch. */
func (e *Engine) runStrategy(ctx context.Context, strategy detectstrategy.Strategy, sample *piimodel.SampleData) (candidates []piimodel.PiiCandidate) {
	defer func() {
		if r := recover(); r != nil {
			if e.log != nil {
				e.log.Error("detection strategy panicked", "strategy", strategy.Name(), "recovered", r)
			}
			candidates = nil
		}
	}()
	return strategy.Detect(ctx, sample.Column, sample)
}

func clearsThreshold(candidates []piimodel.PiiCandidate, threshold float64) bool {
	for _, c := range candidates {
		if c.ConfidenceScore >= threshold {
			return true
		}
	}
	return false
}

/* resolveConflicts groups candidates by PII type and keeps only the
highest-confidence candidate per type . */
func resolveConflicts(candidates []piimodel.PiiCandidate) []piimodel.PiiCandidate {
	best := map[string]piimodel.PiiCandidate{}
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		existing, ok := best[c.PiiType]
		if !ok {
			order = append(order, c.PiiType)
			best[c.PiiType] = c
			continue
		}
		if c.ConfidenceScore > existing.ConfidenceScore {
			best[c.PiiType] = c
		}
	}

	out := make([]piimodel.PiiCandidate, 0, len(order))
	for _, t := range order {
		out = append(out, best[t])
	}
	return out
}

func filterByThreshold(candidates []piimodel.PiiCandidate, reportingThreshold float64) []piimodel.PiiCandidate {
	out := make([]piimodel.PiiCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ConfidenceScore >= reportingThreshold {
			out = append(out, c)
		}
	}
	return out
}
