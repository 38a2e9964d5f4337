package executor

import (
	"context"
	"log/slog"

	"simeval/internal/channel"
	"simeval/internal/config"
	"simeval/internal/models"
	"simeval/internal/protocol"
	"simeval/internal/render"
)

// RunFromConfig resolves endpoints, opens every peer channel, and executes
// the run. All channels are opened before any of them is used, so a
// missing peer surfaces as an open error instead of a deadlock mid-run.
func RunFromConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) (*models.RunResult, error) {
	var manifest config.Manifest
	if cfg.ChannelsManifest != "" {
		var err error
		manifest, err = config.LoadManifest(cfg.ChannelsManifest)
		if err != nil {
			return nil, err
		}
	}

	open := func(peer, in, out string) (channel.Transport, error) {
		if ep, ok := manifest.Lookup(peer); ok {
			if ep.Transport == "ws" {
				tr, err := channel.DialWebSocket(ep.URL)
				if err != nil {
					return nil, models.Infrastructure(err, "connecting to "+peer)
				}
				return tr, nil
			}
			in, out = ep.In, ep.Out
		}
		tr, err := channel.OpenFIFO(in, out)
		if err != nil {
			return nil, models.Infrastructure(err, "connecting to "+peer)
		}
		return tr, nil
	}

	smTr, err := open("scenario_maker", cfg.SMIn, cfg.SMOut)
	if err != nil {
		return nil, err
	}
	simTr, err := open("simulator", cfg.SimIn, cfg.SimOut)
	if err != nil {
		smTr.Close()
		return nil, err
	}
	agentTr, err := open("agent", cfg.AgentIn, cfg.AgentOut)
	if err != nil {
		smTr.Close()
		simTr.Close()
		return nil, err
	}

	timeout := cfg.TimeoutRegular()
	o := &Orchestrator{
		Cfg:      cfg,
		SM:       channel.New("scenario_maker", smTr, protocol.ScenarioMaker(), timeout, logger),
		Sim:      channel.New("simulator", simTr, protocol.Simulator(), timeout, logger),
		Agents:   []*channel.Channel{channel.New("agent", agentTr, protocol.Agent(), timeout, logger)},
		Renderer: &render.ExecRenderer{Command: cfg.RendererCommand},
		Video:    &render.ExecVideoEncoder{Command: cfg.VideoCommand},
		Logger:   logger,
	}
	return o.Run(ctx)
}
