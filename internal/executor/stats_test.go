package executor_test

import (
	"math"
	"testing"

	"simeval/internal/executor"
	"simeval/internal/models"
	"simeval/internal/render"
)

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestFlatten(t *testing.T) {
	evaluated := map[string]render.RuleEvaluation{
		"lane_following": {Metrics: map[string]float64{"deviation": 0.2, "heading": 1.5}},
		"collisions":     {Metrics: map[string]float64{"": 3}},
	}
	stats := executor.Flatten(evaluated)

	want := map[string]float64{
		"lane_following/deviation": 0.2,
		"lane_following/heading":   1.5,
		"collisions":               3,
	}
	if len(stats) != len(want) {
		t.Fatalf("got %d paths %v, want %d", len(stats), stats, len(want))
	}
	for path, v := range want {
		if !approx(stats[path], v) {
			t.Errorf("stats[%s] = %v, want %v", path, stats[path], v)
		}
	}
}

func TestAggregate(t *testing.T) {
	perEpisode := map[string]models.EpisodeStats{
		"loop-0": {"lane_following/deviation": 0.2},
		"loop-1": {"lane_following/deviation": 0.4},
	}
	agg := executor.Aggregate(perEpisode)

	for suffix, want := range map[string]float64{
		"_mean":   0.3,
		"_median": 0.3,
		"_min":    0.2,
		"_max":    0.4,
	} {
		key := "lane_following/deviation" + suffix
		if !approx(agg[key], want) {
			t.Errorf("%s = %v, want %v", key, agg[key], want)
		}
	}
}

func TestAggregateOddCountMedian(t *testing.T) {
	perEpisode := map[string]models.EpisodeStats{
		"a-0": {"m": 1},
		"a-1": {"m": 9},
		"a-2": {"m": 2},
	}
	agg := executor.Aggregate(perEpisode)
	if !approx(agg["m_median"], 2) {
		t.Errorf("median = %v, want 2", agg["m_median"])
	}
	if !approx(agg["m_mean"], 4) {
		t.Errorf("mean = %v, want 4", agg["m_mean"])
	}
}

func TestAggregateSkipsEpisodesWithoutPath(t *testing.T) {
	perEpisode := map[string]models.EpisodeStats{
		"a-0": {"m": 1, "n": 5},
		"a-1": {"m": 3},
	}
	agg := executor.Aggregate(perEpisode)
	if !approx(agg["n_mean"], 5) {
		t.Errorf("n_mean = %v, want 5", agg["n_mean"])
	}
	if !approx(agg["m_max"], 3) {
		t.Errorf("m_max = %v, want 3", agg["m_max"])
	}
}
