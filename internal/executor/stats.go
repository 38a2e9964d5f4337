package executor

import (
	"sort"

	"simeval/internal/models"
	"simeval/internal/render"
)

// Flatten turns rule evaluations into a flat metric-path to value mapping.
// Paths are "<rule>/<metric>", or just "<rule>" for an unnamed metric.
func Flatten(evaluated map[string]render.RuleEvaluation) models.EpisodeStats {
	stats := make(models.EpisodeStats)
	for rule, evr := range evaluated {
		for metric, value := range evr.Metrics {
			path := rule
			if metric != "" {
				path = rule + "/" + metric
			}
			stats[path] = value
		}
	}
	return stats
}

// Aggregate computes mean, median, min and max for every metric path seen
// in any completed episode, keyed "<path>_<aggregation>".
func Aggregate(perEpisode map[string]models.EpisodeStats) map[string]float64 {
	paths := make(map[string]struct{})
	for _, stats := range perEpisode {
		for path := range stats {
			paths[path] = struct{}{}
		}
	}

	out := make(map[string]float64, 4*len(paths))
	for path := range paths {
		var values []float64
		for _, stats := range perEpisode {
			if v, ok := stats[path]; ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		out[path+"_mean"] = mean(values)
		out[path+"_median"] = median(values)
		out[path+"_min"] = minOf(values)
		out[path+"_max"] = maxOf(values)
	}
	return out
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
