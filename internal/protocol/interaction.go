package protocol

// Interaction declares the typed surface of one peer: which topics it
// accepts and which it emits, with a schema per topic payload.
type Interaction struct {
	Description string             `cbor:"description,omitempty"`
	Inputs      map[string]*Schema `cbor:"inputs"`
	Outputs     map[string]*Schema `cbor:"outputs"`
}

// Topics understood by the protocol. Listed here so peers and tests agree
// on spelling.
const (
	TopicSeed                 = "seed"
	TopicClear                = "clear"
	TopicSetMap               = "set_map"
	TopicSpawnRobot           = "spawn_robot"
	TopicEpisodeStart         = "episode_start"
	TopicGetRobotState        = "get_robot_state"
	TopicRobotState           = "robot_state"
	TopicGetRobotPerformance  = "get_robot_performance"
	TopicRobotPerformance     = "robot_performance"
	TopicGetRobotObservations = "get_robot_observations"
	TopicRobotObservations    = "robot_observations"
	TopicObservations         = "observations"
	TopicGetCommands          = "get_commands"
	TopicCommands             = "commands"
	TopicSetRobotCommands     = "set_robot_commands"
	TopicGetSimState          = "get_sim_state"
	TopicSimState             = "sim_state"
	TopicStep                 = "step"
	TopicNextScenario         = "next_scenario"
	TopicScenario             = "scenario"
	TopicFinished             = "finished"
	TopicTimingInformation    = "timing_information"
)

// Agent is the interaction an agent peer is expected to implement.
func Agent() *Interaction {
	return &Interaction{
		Description: "agent",
		Inputs: map[string]*Schema{
			TopicSeed:         {Kind: KindInt},
			TopicEpisodeStart: Struct("EpisodeStart", Field{Name: "episode_name", Schema: &Schema{Kind: KindString}}),
			TopicObservations: Any(),
			TopicGetCommands:  Any(),
		},
		Outputs: map[string]*Schema{
			TopicCommands: Any(),
		},
	}
}

// Simulator is the interaction a simulator peer is expected to implement.
func Simulator() *Interaction {
	timed := func(name string) *Schema {
		return Struct(name,
			Field{Name: "robot_name", Schema: &Schema{Kind: KindString}},
			Field{Name: "t_effective", Schema: &Schema{Kind: KindFloat}},
		)
	}
	return &Interaction{
		Description: "simulator",
		Inputs: map[string]*Schema{
			TopicSeed:  {Kind: KindInt},
			TopicClear: Any(),
			TopicSetMap: Struct("SetMap",
				Field{Name: "map_data", Schema: Any()}),
			TopicSpawnRobot: Struct("SpawnRobot",
				Field{Name: "robot_name", Schema: &Schema{Kind: KindString}},
				Field{Name: "configuration", Schema: Any(), Optional: true},
				Field{Name: "playable", Schema: &Schema{Kind: KindBool}}),
			TopicEpisodeStart:         Struct("EpisodeStart", Field{Name: "episode_name", Schema: &Schema{Kind: KindString}}),
			TopicGetRobotState:        timed("GetRobotState"),
			TopicGetRobotPerformance:  {Kind: KindString},
			TopicGetRobotObservations: timed("GetRobotObservations"),
			TopicSetRobotCommands: Struct("SetRobotCommands",
				Field{Name: "robot_name", Schema: &Schema{Kind: KindString}},
				Field{Name: "t_effective", Schema: &Schema{Kind: KindFloat}},
				Field{Name: "commands", Schema: Any()}),
			TopicGetSimState: Any(),
			TopicStep:        Struct("Step", Field{Name: "until", Schema: &Schema{Kind: KindFloat}}),
		},
		Outputs: map[string]*Schema{
			TopicRobotState:       timed("RobotState"),
			TopicRobotPerformance: Struct("RobotPerformance", Field{Name: "robot_name", Schema: &Schema{Kind: KindString}}),
			TopicRobotObservations: Struct("RobotObservations",
				Field{Name: "robot_name", Schema: &Schema{Kind: KindString}},
				Field{Name: "t_effective", Schema: &Schema{Kind: KindFloat}},
				Field{Name: "observations", Schema: Any()}),
			TopicSimState: Struct("SimulationState", Field{Name: "done", Schema: &Schema{Kind: KindBool}}),
		},
	}
}

// ScenarioMaker is the interaction a scenario source is expected to
// implement.
func ScenarioMaker() *Interaction {
	return &Interaction{
		Description: "scenario_maker",
		Inputs: map[string]*Schema{
			TopicSeed:         {Kind: KindInt},
			TopicNextScenario: Any(),
		},
		Outputs: map[string]*Schema{
			TopicScenario: Struct("Scenario",
				Field{Name: "scenario_name", Schema: &Schema{Kind: KindString}},
				Field{Name: "environment", Schema: Any(), Optional: true},
				Field{Name: "robots", Schema: &Schema{Kind: KindList, Elem: Any()}}),
			TopicFinished: Any(),
		},
	}
}
