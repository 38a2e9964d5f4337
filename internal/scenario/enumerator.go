// Package scenario pulls scenario definitions from the scenario-source peer
// and expands them into the pending episode list.
package scenario

import (
	"fmt"
	"log/slog"

	"simeval/internal/channel"
	"simeval/internal/models"
	"simeval/internal/protocol"
)

// Enumerate seeds the scenario source, drains it until it reports finished,
// closes its channel, and expands every scenario into episodesPerScenario
// specs named "<scenario>-<i>". Re-running with the same seed reproduces
// the same sequence.
func Enumerate(sm *channel.Channel, episodesPerScenario int, seed int64, logger *slog.Logger) ([]models.EpisodeSpec, error) {
	if err := sm.WriteTopicExpectZero(protocol.TopicSeed, seed); err != nil {
		return nil, err
	}

	var episodes []models.EpisodeSpec
	for {
		reply, err := sm.WriteTopicExpectAny(protocol.TopicNextScenario, nil)
		if err != nil {
			return nil, err
		}
		if reply.Topic == protocol.TopicFinished {
			if err := sm.Close(); err != nil {
				return nil, models.Infrastructure(err, "closing scenario source")
			}
			break
		}
		if reply.Topic != protocol.TopicScenario {
			return nil, models.Infrastructure(nil, "scenario source replied "+reply.Topic+" to "+protocol.TopicNextScenario)
		}

		var sc models.Scenario
		if err := reply.Decode(&sc); err != nil {
			return nil, models.Infrastructure(err, "malformed scenario")
		}
		logger.Info("received scenario", "scenario", sc.Name, "robots", len(sc.Robots))

		for i := 0; i < episodesPerScenario; i++ {
			episodes = append(episodes, models.EpisodeSpec{
				Name:     fmt.Sprintf("%s-%d", sc.Name, i),
				Scenario: &sc,
			})
		}
	}
	return episodes, nil
}
