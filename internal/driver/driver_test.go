package driver_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"simeval/internal/channel"
	"simeval/internal/channel/channeltest"
	"simeval/internal/driver"
	"simeval/internal/models"
	"simeval/internal/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// simScript answers the simulator side of the protocol and records every
// exchange as "topic" or "topic:robot" for ordering assertions.
type simScript struct {
	mu        sync.Mutex
	sequence  []string
	doneAfter int // report done at the Nth get_sim_state query (1-based); 0 = never
	simStates int
}

func (s *simScript) record(entry string) {
	s.mu.Lock()
	s.sequence = append(s.sequence, entry)
	s.mu.Unlock()
}

func (s *simScript) Sequence() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.sequence...)
}

func (s *simScript) handle(m channel.Message) (string, any) {
	switch m.Topic {
	case protocol.TopicGetRobotState:
		var req models.GetRobotState
		m.Decode(&req)
		s.record(m.Topic + ":" + req.RobotName)
		return protocol.TopicRobotState, models.RobotState{RobotName: req.RobotName, TEffective: req.TEffective}
	case protocol.TopicGetRobotPerformance:
		var robot string
		m.Decode(&robot)
		s.record(m.Topic + ":" + robot)
		return protocol.TopicRobotPerformance, models.RobotPerformance{RobotName: robot}
	case protocol.TopicGetRobotObservations:
		var req models.GetRobotObservations
		m.Decode(&req)
		s.record(m.Topic + ":" + req.RobotName)
		obs, _ := cbor.Marshal(map[string]string{"camera": "frame"})
		return protocol.TopicRobotObservations, models.RobotObservations{
			RobotName: req.RobotName, TEffective: req.TEffective, Observations: obs,
		}
	case protocol.TopicSetRobotCommands:
		var req models.SetRobotCommands
		m.Decode(&req)
		s.record(m.Topic + ":" + req.RobotName)
		return channel.TopicOK, nil
	case protocol.TopicGetSimState:
		s.record(m.Topic)
		s.simStates++
		done := s.doneAfter > 0 && s.simStates >= s.doneAfter
		return protocol.TopicSimState, models.SimulationState{Done: done, DoneCode: "finished", DoneWhy: "scripted"}
	default:
		s.record(m.Topic)
		return channel.TopicOK, nil
	}
}

func agentScript(m channel.Message) (string, any) {
	if m.Topic == protocol.TopicGetCommands {
		return protocol.TopicCommands, map[string]float64{"wheel_left": 0.1, "wheel_right": 0.1}
	}
	return channel.TopicOK, nil
}

func testScenario() *models.Scenario {
	return &models.Scenario{
		Name: "loop",
		Robots: []models.RobotSpec{
			{Name: "ego", Playable: true},
			{Name: "npc", Playable: false},
		},
	}
}

func newDriver(t *testing.T, sim *simScript, agent channeltest.Handler, lengthS, dt float64) (*driver.Driver, *channeltest.Peer, *channeltest.Peer) {
	t.Helper()
	simTr, simPeerTr := channel.Pipe()
	agentTr, agentPeerTr := channel.Pipe()

	simPeer := channeltest.Serve(simPeerTr, sim.handle)
	agentPeer := channeltest.Serve(agentPeerTr, agent)
	t.Cleanup(simPeer.Close)
	t.Cleanup(agentPeer.Close)

	d := &driver.Driver{
		Sim:            channel.New("simulator", simTr, protocol.Simulator(), time.Second, testLogger()),
		Agents:         []*channel.Channel{channel.New("agent", agentTr, protocol.Agent(), time.Second, testLogger())},
		PhysicsDT:      dt,
		EpisodeLengthS: lengthS,
		Logger:         testLogger(),
	}
	return d, simPeer, agentPeer
}

func TestRunEpisodeStepOrdering(t *testing.T) {
	sim := &simScript{}
	d, _, agentPeer := newDriver(t, sim, agentScript, 1.0, 0.5)

	lengthS, err := d.RunEpisode(context.Background(), "loop-0", testScenario())
	if err != nil {
		t.Fatalf("RunEpisode: %v", err)
	}
	if lengthS != 1.0 {
		t.Errorf("elapsed = %v, want 1.0", lengthS)
	}

	step := []string{
		"get_robot_state:ego",
		"get_robot_performance:ego",
		"get_robot_observations:ego",
		"set_robot_commands:ego",
		"get_robot_state:npc",
		"get_sim_state",
		"step",
	}
	want := []string{"clear", "set_map", "spawn_robot", "spawn_robot", "episode_start"}
	want = append(want, step...)
	want = append(want, step...)

	got := sim.Sequence()
	if len(got) != len(want) {
		t.Fatalf("simulator saw %d exchanges %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("exchange[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	agentTopics := agentPeer.Topics()
	wantAgent := []string{"episode_start", "observations", "get_commands", "observations", "get_commands"}
	if len(agentTopics) != len(wantAgent) {
		t.Fatalf("agent saw %v, want %v", agentTopics, wantAgent)
	}
	for i := range wantAgent {
		if agentTopics[i] != wantAgent[i] {
			t.Errorf("agent topic[%d] = %s, want %s", i, agentTopics[i], wantAgent[i])
		}
	}
}

func TestRunEpisodeStopsWhenSimulatorIsDone(t *testing.T) {
	sim := &simScript{doneAfter: 1}
	d, _, _ := newDriver(t, sim, agentScript, 100.0, 0.5)

	lengthS, err := d.RunEpisode(context.Background(), "loop-0", testScenario())
	if err != nil {
		t.Fatalf("RunEpisode: %v", err)
	}
	if lengthS != 0 {
		t.Errorf("elapsed = %v, want 0 when done on the first state query", lengthS)
	}
	for _, entry := range sim.Sequence() {
		if entry == "step" {
			t.Fatal("physics advance must never run after the simulator reports done")
		}
	}
}

func TestRunEpisodeAgentCountMismatch(t *testing.T) {
	sim := &simScript{}
	d, simPeer, _ := newDriver(t, sim, agentScript, 1.0, 0.5)

	sc := &models.Scenario{
		Name: "crowded",
		Robots: []models.RobotSpec{
			{Name: "ego0", Playable: true},
			{Name: "ego1", Playable: true},
		},
	}
	_, err := d.RunEpisode(context.Background(), "crowded-0", sc)
	if !models.IsClass(err, models.FailureConfiguration) {
		t.Fatalf("error class = %v, want configuration", models.ClassOf(err))
	}
	if len(simPeer.Topics()) != 0 {
		t.Error("the robot/agent mismatch must be caught before any exchange")
	}
}

func TestRunEpisodeAgentFailureIsSubmission(t *testing.T) {
	sim := &simScript{}
	broken := func(m channel.Message) (string, any) {
		if m.Topic == protocol.TopicGetCommands {
			return "gibberish", nil
		}
		return channel.TopicOK, nil
	}
	d, _, _ := newDriver(t, sim, broken, 1.0, 0.5)

	_, err := d.RunEpisode(context.Background(), "loop-0", testScenario())
	if !models.IsClass(err, models.FailureSubmission) {
		t.Fatalf("error class = %v, want submission", models.ClassOf(err))
	}
}

func TestRunEpisodeAgentAbortStaysRemoteAbort(t *testing.T) {
	sim := &simScript{}
	aborting := func(m channel.Message) (string, any) {
		if m.Topic == protocol.TopicGetCommands {
			return channel.TopicAborted, nil
		}
		return channel.TopicOK, nil
	}
	d, _, _ := newDriver(t, sim, aborting, 1.0, 0.5)

	_, err := d.RunEpisode(context.Background(), "loop-0", testScenario())
	if !models.IsClass(err, models.FailureRemoteAbort) {
		t.Fatalf("error class = %v, want remote_abort", models.ClassOf(err))
	}
}
