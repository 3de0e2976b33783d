package qianalyzer

import (
	"github.com/neurondb/NeuronIP/api/internal/correlation"
	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

/* dbscanGroups implements ML mode: distance d(i,j) = 1 -
|corr(i,j)|, eps = min(0.5, clusteringDistanceThreshold*1.5), minPts =
minGroupSize, with one retry at eps = 0.6 if no clusters form. Clusters
outside [minGroupSize, maxGroupSize] are dropped. */
func dbscanGroups(eligible map[string]*piimodel.SampleData, matrix map[correlation.Pair]float64, cfg piimodel.QIConfig) [][]string {
	keys := sortedKeys(eligible)
	if len(keys) < cfg.MinGroupSize {
		return nil
	}

	eps := cfg.ClusteringDistanceThreshold * 1.5
	if eps > 0.5 {
		eps = 0.5
	}

	clusters := runDBSCAN(keys, matrix, eps, cfg.MinGroupSize)
	if len(clusters) == 0 {
		clusters = runDBSCAN(keys, matrix, 0.6, cfg.MinGroupSize)
	}

	var kept [][]string
	for _, c := range clusters {
		if len(c) >= cfg.MinGroupSize && len(c) <= cfg.MaxGroupSize {
			kept = append(kept, c)
		}
	}
	return kept
}

func distance(matrix map[correlation.Pair]float64, a, b string) float64 {
	corrVal, ok := lookup(matrix, a, b)
	if !ok {
		return 1
	}
	d := 1 - corrVal
	if d < 0 {
		d = 0
	}
	return d
}

func neighborsWithin(keys []string, matrix map[correlation.Pair]float64, point string, eps float64) []string {
	var out []string
	for _, k := range keys {
		if k == point {
			continue
		}
		if distance(matrix, point, k) <= eps {
			out = append(out, k)
		}
	}
	return out
}

/* runDBSCAN is a standard density-based clustering pass: seeds clusters
from core points (>= minPts neighbours within eps) and expands them by
neighbour-of-neighbour reachability. Points not reached by any core
point are left as noise. */
func runDBSCAN(keys []string, matrix map[correlation.Pair]float64, eps float64, minPts int) [][]string {
	visited := make(map[string]bool, len(keys))
	clustered := make(map[string]bool, len(keys))
	var clusters [][]string

	for _, point := range keys {
		if visited[point] {
			continue
		}
		visited[point] = true

		neighbors := neighborsWithin(keys, matrix, point, eps)
		if len(neighbors) < minPts {
			continue
		}

		cluster := []string{point}
		clustered[point] = true
		queue := append([]string(nil), neighbors...)

		for len(queue) > 0 {
			candidate := queue[0]
			queue = queue[1:]

			if !visited[candidate] {
				visited[candidate] = true
				candidateNeighbors := neighborsWithin(keys, matrix, candidate, eps)
				if len(candidateNeighbors) >= minPts {
					queue = append(queue, candidateNeighbors...)
				}
			}
			if !clustered[candidate] {
				clustered[candidate] = true
				cluster = append(cluster, candidate)
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}
