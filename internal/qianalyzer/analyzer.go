// Package qianalyzer implements the QI Analyzer: filters eligible
// columns, builds a correlation graph over them, extracts groups by
// connected components (with weighted-degree decomposition for oversized
// components) or DBSCAN, scores re-identification risk per group, and
// annotates the DetectionResults accordingly.
package qianalyzer

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/neurondb/NeuronIP/api/internal/correlation"
	"github.com/neurondb/NeuronIP/api/internal/distribution"
	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* Analyzer runs the eligibility filter, correlation matrix, grouping and
risk scoring steps over one job's column batch. */
type Analyzer struct {
	correlator *correlation.Calculator
	distAnalyzer *distribution.Analyzer
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		correlator:   correlation.NewCalculator(),
		distAnalyzer: distribution.NewAnalyzer(),
	}
}

/* Analyze mutates results in place: columns belonging to an extracted
group get IsQuasiIdentifier/QuasiIdentifierRiskScore/ClusteringMethod/
CorrelatedColumns set, and returns the extracted groups for
persistence. */
func (a *Analyzer) Analyze(jobID uuid.UUID, columnDataMap map[string]*piimodel.SampleData, results []piimodel.DetectionResult, cfg piimodel.QIConfig) []piimodel.CorrelatedQuasiIdentifierGroup {
	resultByKey := make(map[string]*piimodel.DetectionResult, len(results))
	for i := range results {
		resultByKey[results[i].Column.Key()] = &results[i]
	}

	eligible := a.eligibleColumns(columnDataMap, resultByKey, cfg)
	if len(eligible) == 0 {
		return nil
	}

	matrix := a.correlator.Matrix(eligible)

	var components [][]string
	if cfg.UseMachineLearning {
		components = dbscanGroups(eligible, matrix, cfg)
	} else {
		components = graphGroups(eligible, matrix, cfg)
	}

	method := piimodel.ClusteringGraphCorrelation
	if cfg.UseMachineLearning {
		method = piimodel.ClusteringMLClustering
	}

	groups := make([]piimodel.CorrelatedQuasiIdentifierGroup, 0, len(components))
	for _, comp := range components {
		group := a.buildGroup(comp, eligible, matrix, cfg, method)
		group.JobID = jobID
		groups = append(groups, group)
		annotate(group, resultByKey)
	}

	return groups
}

/* eligibleColumns excludes columns with PII, PKs, FK participants, and
columns failing the distribution thresholds. */
func (a *Analyzer) eligibleColumns(columnDataMap map[string]*piimodel.SampleData, resultByKey map[string]*piimodel.DetectionResult, cfg piimodel.QIConfig) map[string]*piimodel.SampleData {
	out := make(map[string]*piimodel.SampleData)
	for key, sample := range columnDataMap {
		col := sample.Column
		if col.IsPrimaryKey || col.ParticipatesInFK {
			continue
		}
		if result, ok := resultByKey[key]; ok && result.HasPii {
			continue
		}

		metrics := a.distAnalyzer.Analyze(sample)
		if metrics.DistinctValueCount < cfg.MinDistinctValueCount {
			continue
		}
		if metrics.DistinctValueRatio > cfg.MaxDistinctValueRatio {
			continue
		}
		if metrics.Entropy < cfg.EntropyThreshold {
			continue
		}

		out[key] = sample
	}
	return out
}

/* graphGroups extracts connected-component groups from the correlation
graph. */
func graphGroups(eligible map[string]*piimodel.SampleData, matrix map[correlation.Pair]float64, cfg piimodel.QIConfig) [][]string {
	keys := sortedKeys(eligible)
	if len(keys) < 2 {
		return nil
	}

	threshold := cfg.CorrelationThreshold
	adjacency := buildAdjacency(keys, matrix, threshold)
	if !hasAnyEdge(adjacency) {
		retryThreshold := math.Max(0.5, threshold-0.1)
		adjacency = buildAdjacency(keys, matrix, retryThreshold)
	}

	components := connectedComponents(keys, adjacency)

	var groups [][]string
	for _, comp := range components {
		switch {
		case len(comp) < cfg.MinGroupSize:
			continue
		case len(comp) <= cfg.MaxGroupSize:
			groups = append(groups, comp)
		default:
			sub := decomposeOversizedComponent(comp, adjacency, matrix, cfg)
			groups = append(groups, sub...)
		}
	}

	if len(groups) == 0 {
		groups = fallbackDisjointPairs(keys, matrix, threshold)
	}

	return groups
}

func buildAdjacency(keys []string, matrix map[correlation.Pair]float64, threshold float64) map[string]map[string]float64 {
	adjacency := make(map[string]map[string]float64, len(keys))
	for _, k := range keys {
		adjacency[k] = map[string]float64{}
	}
	for pair, corrVal := range matrix {
		if corrVal < threshold {
			continue
		}
		if _, ok := adjacency[pair.A]; !ok {
			continue
		}
		if _, ok := adjacency[pair.B]; !ok {
			continue
		}
		adjacency[pair.A][pair.B] = corrVal
		adjacency[pair.B][pair.A] = corrVal
	}
	return adjacency
}

func hasAnyEdge(adjacency map[string]map[string]float64) bool {
	for _, neighbors := range adjacency {
		if len(neighbors) > 0 {
			return true
		}
	}
	return false
}

func connectedComponents(keys []string, adjacency map[string]map[string]float64) [][]string {
	visited := make(map[string]bool, len(keys))
	var components [][]string

	for _, start := range keys {
		if visited[start] {
			continue
		}
		var component []string
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			component = append(component, node)
			for neighbor := range adjacency[node] {
				if !visited[neighbor] {
					visited[neighbor] = true
					queue = append(queue, neighbor)
				}
			}
		}
		components = append(components, component)
	}
	return components
}

/* decomposeOversizedComponent implements the weighted-degree seeding
decomposition, falling back to greedy pair extraction. */
func decomposeOversizedComponent(component []string, adjacency map[string]map[string]float64, matrix map[correlation.Pair]float64, cfg piimodel.QIConfig) [][]string {
	degree := make(map[string]float64, len(component))
	for _, node := range component {
		var sum float64
		for _, w := range adjacency[node] {
			sum += w
		}
		degree[node] = sum
	}

	ordered := append([]string(nil), component...)
	sort.Slice(ordered, func(i, j int) bool { return degree[ordered[i]] > degree[ordered[j]] })

	grouped := map[string]bool{}
	var subgroups [][]string
	for _, seed := range ordered {
		if grouped[seed] {
			continue
		}
		sub := []string{seed}
		grouped[seed] = true

		neighbors := append([]string(nil), component...)
		sort.Slice(neighbors, func(i, j int) bool {
			return adjacency[seed][neighbors[i]] > adjacency[seed][neighbors[j]]
		})
		for _, n := range neighbors {
			if len(sub) >= cfg.MaxGroupSize {
				break
			}
			if grouped[n] || n == seed {
				continue
			}
			if _, ok := adjacency[seed][n]; !ok {
				continue
			}
			sub = append(sub, n)
			grouped[n] = true
		}
		subgroups = append(subgroups, sub)
	}

	var qualifying [][]string
	for _, sub := range subgroups {
		if len(sub) >= cfg.MinGroupSize {
			qualifying = append(qualifying, sub)
		}
	}
	if len(qualifying) > 0 {
		return qualifying
	}

	return greedyPairExtraction(component, matrix, cfg)
}

/* greedyPairExtraction pairs the highest-correlation columns first, no
column reused, and optionally expands a pair into a triplet. */
func greedyPairExtraction(component []string, matrix map[correlation.Pair]float64, cfg piimodel.QIConfig) [][]string {
	type scoredPair struct {
		a, b string
		corr float64
	}
	var pairs []scoredPair
	for i := 0; i < len(component); i++ {
		for j := i + 1; j < len(component); j++ {
			if corrVal, ok := lookup(matrix, component[i], component[j]); ok {
				pairs = append(pairs, scoredPair{component[i], component[j], corrVal})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].corr > pairs[j].corr })

	used := map[string]bool{}
	var groups [][]string
	for _, p := range pairs {
		if used[p.a] || used[p.b] {
			continue
		}
		group := []string{p.a, p.b}
		used[p.a], used[p.b] = true, true

		for _, candidate := range component {
			if used[candidate] {
				continue
			}
			cA, okA := lookup(matrix, candidate, p.a)
			cB, okB := lookup(matrix, candidate, p.b)
			if okA && okB && cA >= cfg.CorrelationThreshold && cB >= cfg.CorrelationThreshold {
				group = append(group, candidate)
				used[candidate] = true
				break
			}
		}
		groups = append(groups, group)
	}
	return groups
}

/* fallbackDisjointPairs implements the last-resort global fallback: at
most five disjoint pairs from the globally highest correlations at or
above 0.8·threshold. */
func fallbackDisjointPairs(keys []string, matrix map[correlation.Pair]float64, threshold float64) [][]string {
	minCorr := 0.8 * threshold

	type scoredPair struct {
		a, b string
		corr float64
	}
	var pairs []scoredPair
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if corrVal, ok := lookup(matrix, keys[i], keys[j]); ok && corrVal >= minCorr {
				pairs = append(pairs, scoredPair{keys[i], keys[j], corrVal})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].corr > pairs[j].corr })

	used := map[string]bool{}
	var groups [][]string
	for _, p := range pairs {
		if len(groups) >= 5 {
			break
		}
		if used[p.a] || used[p.b] {
			continue
		}
		groups = append(groups, []string{p.a, p.b})
		used[p.a], used[p.b] = true, true
	}
	return groups
}

func lookup(matrix map[correlation.Pair]float64, a, b string) (float64, bool) {
	if v, ok := matrix[correlation.Pair{A: a, B: b}]; ok {
		return v, true
	}
	if v, ok := matrix[correlation.Pair{A: b, B: a}]; ok {
		return v, true
	}
	return 0, false
}

func sortedKeys(m map[string]*piimodel.SampleData) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

/* buildGroup computes per-column contribution scores, distinct/singleton
combination estimates, a k-anonymity approximation, and the final
re-identification risk score. */
func (a *Analyzer) buildGroup(memberKeys []string, eligible map[string]*piimodel.SampleData, matrix map[correlation.Pair]float64, cfg piimodel.QIConfig, method piimodel.ClusteringMethod) piimodel.CorrelatedQuasiIdentifierGroup {
	type memberStats struct {
		key         string
		column      *piimodel.ColumnInfo
		cardinality int
		entropy     float64
		totalCount  int
	}

	members := make([]memberStats, 0, len(memberKeys))
	for _, key := range memberKeys {
		sample := eligible[key]
		metrics := a.distAnalyzer.Analyze(sample)
		members = append(members, memberStats{
			key:         key,
			column:      sample.Column,
			cardinality: metrics.DistinctValueCount,
			entropy:     metrics.Entropy,
			totalCount:  metrics.TotalSampleCount,
		})
	}

	contributionScores := make(map[string]float64, len(members))
	var entropySum float64
	var cardinalitySum int
	distinctCombinations := 1.0

	for _, m := range members {
		entropySum += m.entropy
		cardinalitySum += m.cardinality
		distinctCombinations *= float64(m.cardinality) * 0.7

		normalizedEntropy := 0.0
		if m.totalCount > 1 {
			normalizedEntropy = m.entropy / math.Log2(float64(m.totalCount))
		}

		var corrSum float64
		var corrCount int
		for _, other := range members {
			if other.key == m.key {
				continue
			}
			if v, ok := lookup(matrix, m.key, other.key); ok {
				corrSum += v
				corrCount++
			}
		}
		avgCorrelation := 0.0
		if corrCount > 0 {
			avgCorrelation = corrSum / float64(corrCount)
		}

		contributionScores[m.column.Key()] = 0.7*normalizedEntropy + 0.3*avgCorrelation
	}

	distinctCombinationsInt := clampToInt32(distinctCombinations)
	singletonCombinations := clampToInt32(0.2 * distinctCombinations)

	avgEntropy := entropySum / float64(len(members))
	avgCardinality := float64(cardinalitySum) / float64(len(members))

	k := estimateKAnonymity(distinctCombinations, members[0].totalCount)
	kAnonymityFactor := clamp(cfg.KAnonymityThreshold/(k+1), 0, 1)

	maxPossibleEntropy := 0.0
	if avgCardinality > 1 {
		maxPossibleEntropy = math.Log2(avgCardinality)
	}
	normalizedGroupEntropy := 0.0
	if maxPossibleEntropy > 0 {
		normalizedGroupEntropy = clamp(avgEntropy/maxPossibleEntropy, 0, 1)
	}

	risk := clamp(0.6*kAnonymityFactor+0.4*normalizedGroupEntropy, 0, 1)

	columns := make([]*piimodel.ColumnInfo, 0, len(members))
	for _, m := range members {
		columns = append(columns, m.column)
	}

	return piimodel.CorrelatedQuasiIdentifierGroup{
		Name:                      groupName(columns),
		Columns:                   columns,
		ReIdentificationRiskScore: risk,
		ClusteringMethod:          method,
		DistinctCombinations:      distinctCombinationsInt,
		SingletonCombinations:     singletonCombinations,
		ContributionScores:        contributionScores,
	}
}

/* estimateKAnonymity approximates the smallest bucket size as sampled rows
divided by the estimated distinct value combinations across the group's
columns, rather than running a literal GROUP BY over the full table. */
func estimateKAnonymity(distinctCombinations float64, totalRows int) float64 {
	if distinctCombinations <= 0 {
		return float64(totalRows)
	}
	k := float64(totalRows) / distinctCombinations
	if k < 0 {
		return 0
	}
	return k
}

func clampToInt32(v float64) int32 {
	if v < 0 {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func groupName(columns []*piimodel.ColumnInfo) string {
	name := "qi_group"
	for _, c := range columns {
		name += "_" + c.ColumnName
	}
	return name
}

/* annotate stamps the group's computed fields onto each member column's
DetectionResult. */
func annotate(group piimodel.CorrelatedQuasiIdentifierGroup, resultByKey map[string]*piimodel.DetectionResult) {
	for _, col := range group.Columns {
		result, ok := resultByKey[col.Key()]
		if !ok {
			continue
		}
		result.IsQuasiIdentifier = true
		result.QuasiIdentifierRiskScore = group.ReIdentificationRiskScore
		result.ClusteringMethod = group.ClusteringMethod

		var others []string
		for _, other := range group.Columns {
			if other.Key() != col.Key() {
				others = append(others, other.Key())
			}
		}
		result.CorrelatedColumns = others
	}
}
