package models

import "github.com/fxamacker/cbor/v2"

// RobotSpec describes one robot in a scenario. Configuration is opaque to
// the evaluator and forwarded to the simulator verbatim.
type RobotSpec struct {
	Name          string          `cbor:"name"`
	Configuration cbor.RawMessage `cbor:"configuration,omitempty"`
	Playable      bool            `cbor:"playable"`
}

// Scenario is an immutable description of an environment and its robots.
// Robots is a slice, not a map, so iteration order is deterministic: the
// step driver's per-robot ordering is a protocol invariant.
type Scenario struct {
	Name        string          `cbor:"scenario_name"`
	Environment cbor.RawMessage `cbor:"environment,omitempty"`
	Robots      []RobotSpec     `cbor:"robots"`
}

// Playable returns the names of agent-controlled robots in scenario order.
func (s *Scenario) Playable() []string {
	var names []string
	for _, r := range s.Robots {
		if r.Playable {
			names = append(names, r.Name)
		}
	}
	return names
}

// NotPlayable returns the names of scripted robots in scenario order.
func (s *Scenario) NotPlayable() []string {
	var names []string
	for _, r := range s.Robots {
		if !r.Playable {
			names = append(names, r.Name)
		}
	}
	return names
}

// EpisodeSpec names one pending episode. Multiple specs may reference the
// same scenario.
type EpisodeSpec struct {
	Name     string
	Scenario *Scenario
}
