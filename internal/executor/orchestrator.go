// Package executor owns the episode retry policy, the log lifecycle and
// the aggregation of per-episode statistics.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"simeval/internal/channel"
	"simeval/internal/config"
	"simeval/internal/driver"
	"simeval/internal/models"
	"simeval/internal/progress"
	"simeval/internal/protocol"
	"simeval/internal/render"
	"simeval/internal/scenario"
)

// LogFileName is the episode log artifact inside each attempt directory.
const LogFileName = "log.sev.cbor"

// VideoFileName is the video artifact rendered for accepted episodes.
const VideoFileName = "camera.mp4"

// noticeInterval is how often long external calls announce liveness.
const noticeInterval = 2 * time.Second

// Orchestrator drives the whole run: handshake, compatibility gate,
// scenario enumeration, episode loop with bounded retries, and final
// aggregation. It is single-threaded; peer channels are never shared.
type Orchestrator struct {
	Cfg      config.Config
	Sim      *channel.Channel
	Agents   []*channel.Channel
	SM       *channel.Channel
	Renderer render.Renderer
	Video    render.VideoEncoder
	Logger   *slog.Logger
}

// Run executes every pending episode and returns the aggregated result.
// All peer channels are closed before Run returns, on every path.
func (o *Orchestrator) Run(ctx context.Context) (*models.RunResult, error) {
	startedAt := time.Now()
	runID := uuid.NewString()
	logger := o.Logger.With("run_id", runID)

	defer o.closeAll(logger)

	result, err := o.run(ctx, logger)
	if err != nil {
		switch models.ClassOf(err) {
		case models.FailureSubmission, models.FailureRemoteAbort, models.FailureConfiguration, models.FailureRetriesExhausted:
			return nil, err
		}
		logger.Error("anomalous error while running episodes", "error", err)
		var re *models.RunError
		if errors.As(err, &re) {
			return nil, err
		}
		return nil, models.Infrastructure(err, "anomalous error while running episodes")
	}

	result.RunID = runID
	result.StartedAt = startedAt
	result.EndedAt = time.Now()
	result.TotalDurationSec = result.EndedAt.Sub(result.StartedAt).Seconds()
	logger.Info("simulation done", "episodes", result.Episodes)
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger) (*models.RunResult, error) {
	// Handshakes use the shorter initialization timeout; everything after
	// runs on the regular one.
	initTimeout := o.Cfg.TimeoutInitialization()
	channels := append([]*channel.Channel{o.SM, o.Sim}, o.Agents...)
	for _, ch := range channels {
		if err := ch.Handshake(initTimeout); err != nil {
			return nil, err
		}
	}

	for _, agent := range o.Agents {
		if err := CheckCompatibility(agent, o.Sim, logger); err != nil {
			return nil, err
		}
	}

	if err := o.Sim.WriteTopicExpectZero(protocol.TopicSeed, o.Cfg.Seed); err != nil {
		return nil, err
	}
	for _, agent := range o.Agents {
		if err := agent.WriteTopicExpectZero(protocol.TopicSeed, o.Cfg.Seed); err != nil {
			return nil, err
		}
	}

	episodes, err := scenario.Enumerate(o.SM, o.Cfg.EpisodesPerScenario, o.Cfg.Seed, logger)
	if err != nil {
		return nil, err
	}

	perEpisode := make(map[string]models.EpisodeStats)
	attempt := 0
	nfailures := 0

	for len(episodes) > 0 {
		if nfailures >= o.Cfg.MaxFailures {
			return nil, models.RetriesExhausted(nfailures)
		}

		spec := episodes[0]
		logger.Info("starting episode", "episode", spec.Name, "attempt", attempt)

		stats, lengthS, attemptDir, logPath, err := o.runAttempt(ctx, spec, attempt, logger)
		attempt++
		if err != nil {
			return nil, err
		}
		perEpisode[spec.Name] = stats

		if lengthS >= o.Cfg.MinEpisodeLengthS {
			logger.Info("episode accepted", "episode", spec.Name, "length_s", lengthS)
			episodes = episodes[1:]

			if err := o.promote(ctx, spec.Name, attemptDir, logPath, logger); err != nil {
				return nil, err
			}
		} else {
			logger.Error("episode too short",
				"episode", spec.Name, "length_s", lengthS, "min_length_s", o.Cfg.MinEpisodeLengthS)
			nfailures++
		}
	}

	return &models.RunResult{
		Passed:     true,
		Episodes:   len(perEpisode),
		PerEpisode: perEpisode,
		Aggregates: Aggregate(perEpisode),
	}, nil
}

// runAttempt executes one attempt of an episode: fresh attempt directory,
// recorded log via temp-name-then-rename, step loop, then rendering. The
// log file is finalized even when the episode fails, so whatever was
// recorded stays inspectable.
func (o *Orchestrator) runAttempt(ctx context.Context, spec models.EpisodeSpec, attempt int, logger *slog.Logger) (models.EpisodeStats, float64, string, string, error) {
	finalDir := filepath.Join(o.Cfg.EpisodesDir, spec.Name)
	if err := os.RemoveAll(finalDir); err != nil {
		return nil, 0, "", "", models.Infrastructure(err, "removing stale episode directory")
	}

	attemptDir := filepath.Join(o.Cfg.AttemptsDir, fmt.Sprintf("%s.attempt%d", spec.Name, attempt))
	if err := os.RemoveAll(attemptDir); err != nil {
		return nil, 0, "", "", models.Infrastructure(err, "removing stale attempt directory")
	}
	if err := os.MkdirAll(attemptDir, 0o755); err != nil {
		return nil, 0, "", "", models.Infrastructure(err, "creating attempt directory")
	}

	logPath := filepath.Join(attemptDir, LogFileName)
	tmpPath := logPath + ".tmp"
	fw, err := os.Create(tmpPath)
	if err != nil {
		return nil, 0, "", "", models.Infrastructure(err, "creating episode log")
	}

	for _, agent := range o.Agents {
		agent.SetRecorder(fw)
	}
	o.Sim.SetRecorder(fw)

	logger.Info("now running episode", "episode", spec.Name)
	d := &driver.Driver{
		Sim:            o.Sim,
		Agents:         o.Agents,
		PhysicsDT:      o.Cfg.PhysicsDT,
		EpisodeLengthS: o.Cfg.EpisodeLengthS,
		Logger:         logger,
	}
	lengthS, runErr := d.RunEpisode(ctx, spec.Name, spec.Scenario)

	for _, agent := range o.Agents {
		agent.SetRecorder(nil)
	}
	o.Sim.SetRecorder(nil)
	if err := fw.Close(); err != nil && runErr == nil {
		runErr = models.Infrastructure(err, "closing episode log")
	}
	if err := os.Rename(tmpPath, logPath); err != nil && runErr == nil {
		runErr = models.Infrastructure(err, "finalizing episode log")
	}

	if runErr != nil {
		return nil, 0, "", "", runErr
	}
	logger.Info("finished episode", "episode", spec.Name, "length_s", lengthS)

	logger.Info("now creating visualization and analyzing statistics")
	logger.Warn("this might take a long time")
	notice := progress.Start(logger, "visualization", noticeInterval)
	evaluated, err := o.Renderer.Render(ctx, logPath, attemptDir)
	notice.Stop()
	if err != nil {
		return nil, 0, "", "", models.Infrastructure(err, "rendering episode "+spec.Name)
	}

	return Flatten(evaluated), lengthS, attemptDir, logPath, nil
}

// promote renders the video artifact and atomically moves the accepted
// attempt directory into its final episode location.
func (o *Orchestrator) promote(ctx context.Context, episodeName, attemptDir, logPath string, logger *slog.Logger) error {
	outVideo := filepath.Join(attemptDir, VideoFileName)
	notice := progress.Start(logger, "make video", noticeInterval)
	err := o.Video.Encode(ctx, logPath, outVideo)
	notice.Stop()
	if err != nil {
		return models.Infrastructure(err, "encoding video for episode "+episodeName)
	}

	if err := os.MkdirAll(o.Cfg.EpisodesDir, 0o755); err != nil {
		return models.Infrastructure(err, "creating episodes directory")
	}
	finalDir := filepath.Join(o.Cfg.EpisodesDir, episodeName)
	if err := os.Rename(attemptDir, finalDir); err != nil {
		return models.Infrastructure(err, "promoting attempt of episode "+episodeName)
	}
	return nil
}

func (o *Orchestrator) closeAll(logger *slog.Logger) {
	for _, agent := range o.Agents {
		if err := agent.Close(); err != nil {
			logger.Warn("closing agent channel", "peer", agent.Name(), "error", err)
		}
	}
	if err := o.Sim.Close(); err != nil {
		logger.Warn("closing simulator channel", "error", err)
	}
	// The scenario source is normally closed by the enumerator already.
	if err := o.SM.Close(); err != nil {
		logger.Warn("closing scenario source channel", "error", err)
	}
}
