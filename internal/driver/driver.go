// Package driver runs one episode to completion against the simulator and
// agent channels in lock step.
package driver

import (
	"context"
	"log/slog"

	"simeval/internal/channel"
	"simeval/internal/models"
	"simeval/internal/protocol"
)

// Driver executes episodes. Agents are assigned one-to-one to the
// scenario's playable robots in scenario order.
type Driver struct {
	Sim            *channel.Channel
	Agents         []*channel.Channel
	PhysicsDT      float64
	EpisodeLengthS float64
	Logger         *slog.Logger
}

// RunEpisode initializes the simulator for the scenario and drives the
// step loop until the simulator reports done or simulated time reaches the
// configured episode length. It returns the elapsed simulated time; the
// caller judges whether that is enough for the episode to count.
//
// The exchange order inside a step is a protocol invariant the simulator
// is entitled to assume: every playable robot is fully processed
// (state, performance, observations, agent exchange, commands) before any
// non-playable robot, before the global state query, before the physics
// advance.
func (d *Driver) RunEpisode(ctx context.Context, episodeName string, sc *models.Scenario) (float64, error) {
	playable := sc.Playable()
	if len(playable) != len(d.Agents) {
		return 0, models.Configurationf("the scenario requires %d robots, but I only know %d agents", len(playable), len(d.Agents))
	}
	agentFor := make(map[string]*channel.Channel, len(playable))
	for i, name := range playable {
		agentFor[name] = d.Agents[i]
	}

	if err := d.Sim.WriteTopicExpectZero(protocol.TopicClear, nil); err != nil {
		return 0, err
	}
	if err := d.Sim.WriteTopicExpectZero(protocol.TopicSetMap, models.SetMap{MapData: sc.Environment}); err != nil {
		return 0, err
	}
	for _, r := range sc.Robots {
		spawn := models.SpawnRobot{RobotName: r.Name, Configuration: r.Configuration, Playable: r.Playable}
		if err := d.Sim.WriteTopicExpectZero(protocol.TopicSpawnRobot, spawn); err != nil {
			return 0, err
		}
	}
	if err := d.Sim.WriteTopicExpectZero(protocol.TopicEpisodeStart, models.EpisodeStart{EpisodeName: episodeName}); err != nil {
		return 0, err
	}
	for _, agent := range d.Agents {
		if err := agent.WriteTopicExpectZero(protocol.TopicEpisodeStart, models.EpisodeStart{EpisodeName: episodeName}); err != nil {
			return 0, err
		}
	}

	currentSimTime := 0.0
	steps := 0

	for currentSimTime < d.EpisodeLengthS {
		if err := ctx.Err(); err != nil {
			return currentSimTime, models.Infrastructure(err, "episode interrupted")
		}

		tt := newTimingRecord(steps)
		tEffective := currentSimTime

		for _, robot := range playable {
			if err := d.stepPlayable(tt, robot, agentFor[robot], tEffective); err != nil {
				return currentSimTime, err
			}
		}

		for _, robot := range sc.NotPlayable() {
			stop := tt.measure("sim_compute_robot_state-" + robot)
			_, err := d.Sim.WriteTopicExpect(protocol.TopicGetRobotState,
				models.GetRobotState{RobotName: robot, TEffective: tEffective},
				protocol.TopicRobotState)
			stop()
			if err != nil {
				return currentSimTime, err
			}
		}

		stop := tt.measure("sim_compute_sim_state")
		reply, err := d.Sim.WriteTopicExpect(protocol.TopicGetSimState, nil, protocol.TopicSimState)
		stop()
		if err != nil {
			return currentSimTime, err
		}
		var simState models.SimulationState
		if err := reply.Decode(&simState); err != nil {
			return currentSimTime, models.Infrastructure(err, "malformed sim state")
		}
		if simState.Done {
			// The simulator's verdict pre-empts the time limit; the
			// physics advance must not run after it.
			d.Logger.Info("breaking because of simulator",
				"code", simState.DoneCode, "why", simState.DoneWhy)
			d.logTiming(tt)
			break
		}

		stop = tt.measure("sim_physics")
		currentSimTime += d.PhysicsDT
		err = d.Sim.WriteTopicExpectZero(protocol.TopicStep, models.Step{Until: currentSimTime})
		stop()
		if err != nil {
			return currentSimTime, err
		}

		d.logTiming(tt)
		steps++
	}
	if currentSimTime >= d.EpisodeLengthS {
		d.Logger.Info("reached episode length, finishing", "length_s", d.EpisodeLengthS)
	}

	return currentSimTime, nil
}

// stepPlayable performs the fixed per-robot sub-order: state, performance,
// observations, agent exchange, commands.
func (d *Driver) stepPlayable(tt *TimingRecord, robot string, agent *channel.Channel, tEffective float64) error {
	// State fetched first so there is something on record for t = 0.
	stop := tt.measure("sim_compute_robot_state-" + robot)
	_, err := d.Sim.WriteTopicExpect(protocol.TopicGetRobotState,
		models.GetRobotState{RobotName: robot, TEffective: tEffective},
		protocol.TopicRobotState)
	stop()
	if err != nil {
		return err
	}

	stop = tt.measure("sim_compute_performance-" + robot)
	_, err = d.Sim.WriteTopicExpect(protocol.TopicGetRobotPerformance, robot, protocol.TopicRobotPerformance)
	stop()
	if err != nil {
		return err
	}

	stop = tt.measure("sim_render-" + robot)
	obsReply, err := d.Sim.WriteTopicExpect(protocol.TopicGetRobotObservations,
		models.GetRobotObservations{RobotName: robot, TEffective: tEffective},
		protocol.TopicRobotObservations)
	stop()
	if err != nil {
		return err
	}
	var obs models.RobotObservations
	if err := obsReply.Decode(&obs); err != nil {
		return models.Infrastructure(err, "malformed observations")
	}

	// Any trouble talking to the agent here is the submission's fault,
	// not the evaluator's.
	stop = tt.measure("agent_compute-" + robot)
	err = agent.WriteTopicExpectZero(protocol.TopicObservations, obs.Observations)
	var cmdReply *channel.Message
	if err == nil {
		cmdReply, err = agent.WriteTopicExpect(protocol.TopicGetCommands, nil, protocol.TopicCommands)
	}
	stop()
	if err != nil {
		if models.IsClass(err, models.FailureRemoteAbort) {
			return err
		}
		return models.Submission(err, "trouble with communication to the agent")
	}

	stop = tt.measure("set_robot_commands")
	err = d.Sim.WriteTopicExpectZero(protocol.TopicSetRobotCommands, models.SetRobotCommands{
		RobotName:  robot,
		TEffective: tEffective,
		Commands:   cmdReply.Data,
	})
	stop()
	return err
}

func (d *Driver) logTiming(tt *TimingRecord) {
	if err := d.Sim.Record(protocol.TopicTimingInformation, tt); err != nil {
		d.Logger.Warn("failed to record timing information", "error", err)
	}
}
