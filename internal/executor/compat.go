package executor

import (
	"log/slog"

	"simeval/internal/channel"
	"simeval/internal/models"
	"simeval/internal/protocol"
)

// CheckCompatibility confirms that the simulator's observations can be
// consumed by the agent and that the agent's commands can be consumed by
// the simulator, before any simulation time is spent on an incompatible
// pairing.
//
// An agent without introspection is let through with a warning: the
// simulator's declared types are forced onto its expected protocol.
// Whether that trust policy is right is debatable; see DESIGN.md.
func CheckCompatibility(agent, sim *channel.Channel, logger *slog.Logger) error {
	simNode := sim.Node()
	if simNode == nil {
		return models.Configurationf("simulator does not declare its protocol")
	}
	obsSchema := simNode.Outputs[protocol.TopicRobotObservations].Field(protocol.TopicObservations)
	logger.Info("simulation provides observations", "schema", obsSchema)
	cmdSchema := simNode.Inputs[protocol.TopicSetRobotCommands].Field("commands")
	logger.Info("simulation requires commands", "schema", cmdSchema)

	agentNode := agent.Node()
	if agentNode == nil {
		logger.Warn("cannot check compatibility of interfaces because the agent does not implement introspection")
		agent.Expect().Outputs[protocol.TopicCommands] = cmdSchema
		agent.Expect().Inputs[protocol.TopicObservations] = obsSchema
		return nil
	}

	agentObs := agentNode.Inputs[protocol.TopicObservations]
	logger.Info("agent requires observations", "schema", agentObs)
	agentCmd := agentNode.Outputs[protocol.TopicCommands]
	logger.Info("agent provides commands", "schema", agentCmd)

	if ok, why := protocol.CanBeUsedAs(obsSchema, agentObs); !ok {
		return models.Configurationf("observations mismatch: %s", why)
	}
	if ok, why := protocol.CanBeUsedAs(agentCmd, cmdSchema); !ok {
		return models.Configurationf("commands mismatch: %s", why)
	}
	return nil
}
