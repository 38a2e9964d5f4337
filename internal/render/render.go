// Package render defines the external collaborators that turn a recorded
// episode log into evaluation metrics and video artifacts. The evaluator
// only sequences these calls; what they compute is their business.
package render

import "context"

// RuleEvaluation is the outcome of one evaluation rule: zero or more named
// numeric metrics.
type RuleEvaluation struct {
	Metrics map[string]float64 `json:"metrics"`
}

// Renderer computes rule evaluations from an episode log, writing any
// visualization artifacts into outDir. This may take a long time.
type Renderer interface {
	Render(ctx context.Context, logPath, outDir string) (map[string]RuleEvaluation, error)
}

// VideoEncoder writes a video rendition of an episode log.
type VideoEncoder interface {
	Encode(ctx context.Context, logPath, outPath string) error
}
