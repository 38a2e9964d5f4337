package models

import "time"

// EpisodeStats maps slash-joined metric paths to scalar values for one
// completed episode.
type EpisodeStats map[string]float64

// RunResult contains the outcome of a whole run.
type RunResult struct {
	RunID            string                  `json:"run_id"`
	Passed           bool                    `json:"passed"`
	Episodes         int                     `json:"episodes"`
	PerEpisode       map[string]EpisodeStats `json:"per_episode"`
	Aggregates       map[string]float64      `json:"aggregates"`
	StartedAt        time.Time               `json:"started_at"`
	EndedAt          time.Time               `json:"ended_at"`
	TotalDurationSec float64                 `json:"total_duration_sec"`
}
