// Package config loads the run parameters from the environment and the
// optional channel manifest from disk.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"simeval/internal/models"
)

// EnvVar is the environment variable holding the YAML run parameters.
const EnvVar = "SIMEVAL_PARAMETERS"

// Config carries everything a run needs. It arrives as a single YAML
// document in the environment; absence or malformed content is fatal.
type Config struct {
	EpisodeLengthS      float64 `yaml:"episode_length_s"`
	MinEpisodeLengthS   float64 `yaml:"min_episode_length_s"`
	Seed                int64   `yaml:"seed"`
	PhysicsDT           float64 `yaml:"physics_dt"`
	EpisodesPerScenario int     `yaml:"episodes_per_scenario"`
	MaxFailures         int     `yaml:"max_failures"`

	// Channel endpoint identifiers, resolved through the manifest when one
	// is configured, otherwise taken as FIFO paths directly.
	AgentIn  string `yaml:"agent_in"`
	AgentOut string `yaml:"agent_out"`
	SimIn    string `yaml:"sim_in"`
	SimOut   string `yaml:"sim_out"`
	SMIn     string `yaml:"sm_in"`
	SMOut    string `yaml:"sm_out"`

	TimeoutInitializationS float64 `yaml:"timeout_initialization"`
	TimeoutRegularS        float64 `yaml:"timeout_regular"`

	EpisodesDir      string `yaml:"episodes_dir"`
	AttemptsDir      string `yaml:"attempts_dir"`
	ChannelsManifest string `yaml:"channels_manifest,omitempty"`

	RendererCommand []string `yaml:"renderer_command,omitempty"`
	VideoCommand    []string `yaml:"video_command,omitempty"`

	// Grace period before exiting after a peer-signalled abort, so the
	// peer's own error is observed first by any external monitor.
	AbortGraceS float64 `yaml:"abort_grace_s"`
}

// Default returns a Config with default values.
func Default() Config {
	return Config{
		EpisodesPerScenario:    1,
		MaxFailures:            2,
		TimeoutInitializationS: 120,
		TimeoutRegularS:        30,
		EpisodesDir:            "episodes",
		AttemptsDir:            "attempts",
		AbortGraceS:            10,
	}
}

// FromEnv loads the run parameters from the named environment variable.
func FromEnv(name string) (Config, error) {
	cfg := Default()
	v, ok := os.LookupEnv(name)
	if !ok {
		return cfg, models.Configurationf("environment variable %s is not set", name)
	}
	return parse(cfg, []byte(v))
}

// Parse loads run parameters from raw YAML, applying defaults.
func Parse(data []byte) (Config, error) {
	return parse(Default(), data)
}

func parse(cfg Config, data []byte) (Config, error) {
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, models.Configurationf("parsing run parameters: %s", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	check := func(ok bool, format string, args ...any) error {
		if !ok {
			return models.Configurationf(format, args...)
		}
		return nil
	}
	for _, err := range []error{
		check(c.EpisodeLengthS > 0, "episode_length_s must be positive, got %v", c.EpisodeLengthS),
		check(c.MinEpisodeLengthS > 0, "min_episode_length_s must be positive, got %v", c.MinEpisodeLengthS),
		check(c.MinEpisodeLengthS <= c.EpisodeLengthS, "min_episode_length_s %v exceeds episode_length_s %v", c.MinEpisodeLengthS, c.EpisodeLengthS),
		check(c.PhysicsDT > 0, "physics_dt must be positive, got %v", c.PhysicsDT),
		check(c.EpisodesPerScenario > 0, "episodes_per_scenario must be positive, got %d", c.EpisodesPerScenario),
		check(c.MaxFailures > 0, "max_failures must be positive, got %d", c.MaxFailures),
		check(c.TimeoutInitializationS > 0, "timeout_initialization must be positive, got %v", c.TimeoutInitializationS),
		check(c.TimeoutRegularS > 0, "timeout_regular must be positive, got %v", c.TimeoutRegularS),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// TimeoutInitialization returns the handshake timeout as a duration.
func (c *Config) TimeoutInitialization() time.Duration {
	return time.Duration(c.TimeoutInitializationS * float64(time.Second))
}

// TimeoutRegular returns the steady-state exchange timeout as a duration.
func (c *Config) TimeoutRegular() time.Duration {
	return time.Duration(c.TimeoutRegularS * float64(time.Second))
}

// AbortGrace returns the remote-abort grace period as a duration.
func (c *Config) AbortGrace() time.Duration {
	return time.Duration(c.AbortGraceS * float64(time.Second))
}

func (c Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%+v", map[string]any{"marshal_error": err.Error()})
	}
	return string(out)
}
