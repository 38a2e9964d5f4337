package models

import "github.com/fxamacker/cbor/v2"

// Payload types for the topics the evaluator exchanges with its peers.
// Observation, command, state and performance contents are opaque; only the
// envelope fields the protocol needs are typed.

type SetMap struct {
	MapData cbor.RawMessage `cbor:"map_data"`
}

type SpawnRobot struct {
	RobotName     string          `cbor:"robot_name"`
	Configuration cbor.RawMessage `cbor:"configuration,omitempty"`
	Playable      bool            `cbor:"playable"`
}

type EpisodeStart struct {
	EpisodeName string `cbor:"episode_name"`
}

type GetRobotState struct {
	RobotName  string  `cbor:"robot_name"`
	TEffective float64 `cbor:"t_effective"`
}

type RobotState struct {
	RobotName  string          `cbor:"robot_name"`
	TEffective float64         `cbor:"t_effective"`
	State      cbor.RawMessage `cbor:"state,omitempty"`
}

type RobotPerformance struct {
	RobotName   string          `cbor:"robot_name"`
	Performance cbor.RawMessage `cbor:"performance,omitempty"`
}

type GetRobotObservations struct {
	RobotName  string  `cbor:"robot_name"`
	TEffective float64 `cbor:"t_effective"`
}

type RobotObservations struct {
	RobotName    string          `cbor:"robot_name"`
	TEffective   float64         `cbor:"t_effective"`
	Observations cbor.RawMessage `cbor:"observations,omitempty"`
}

type SetRobotCommands struct {
	RobotName  string          `cbor:"robot_name"`
	TEffective float64         `cbor:"t_effective"`
	Commands   cbor.RawMessage `cbor:"commands,omitempty"`
}

// SimulationState is the simulator's global verdict for the current step.
type SimulationState struct {
	Done     bool   `cbor:"done"`
	DoneWhy  string `cbor:"done_why,omitempty"`
	DoneCode string `cbor:"done_code,omitempty"`
}

// Step advances simulated time; Until is the new authoritative time.
type Step struct {
	Until float64 `cbor:"until"`
}
