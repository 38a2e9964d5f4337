package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"simeval/internal/models"
)

func TestFromEnvMissingVariable(t *testing.T) {
	const name = "SIMEVAL_TEST_PARAMETERS_ABSENT"
	os.Unsetenv(name)
	_, err := FromEnv(name)
	if !models.IsClass(err, models.FailureConfiguration) {
		t.Fatalf("error class = %v, want configuration", models.ClassOf(err))
	}
}

func TestFromEnvParsesParameters(t *testing.T) {
	t.Setenv(EnvVar, `
episode_length_s: 15
min_episode_length_s: 5
seed: 20200922
physics_dt: 0.05
`)
	cfg, err := FromEnv(EnvVar)
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.EpisodeLengthS != 15 || cfg.MinEpisodeLengthS != 5 {
		t.Errorf("episode lengths = %v/%v, want 15/5", cfg.EpisodeLengthS, cfg.MinEpisodeLengthS)
	}
	if cfg.Seed != 20200922 {
		t.Errorf("seed = %d, want 20200922", cfg.Seed)
	}
	// Unset keys keep their defaults.
	if cfg.EpisodesPerScenario != 1 {
		t.Errorf("episodes_per_scenario = %d, want default 1", cfg.EpisodesPerScenario)
	}
	if cfg.MaxFailures != 2 {
		t.Errorf("max_failures = %d, want default 2", cfg.MaxFailures)
	}
	if cfg.AbortGraceS != 10 {
		t.Errorf("abort_grace_s = %v, want default 10", cfg.AbortGraceS)
	}
}

func TestParseValidation(t *testing.T) {
	valid := `
episode_length_s: 20
min_episode_length_s: 10
physics_dt: 0.1
`
	if _, err := Parse([]byte(valid)); err != nil {
		t.Fatalf("valid parameters rejected: %v", err)
	}

	doc := func(overrides string) string {
		return "episode_length_s: 20\nmin_episode_length_s: 10\nphysics_dt: 0.1\n" + overrides
	}
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"malformed yaml", `episode_length_s: [`, "parsing run parameters"},
		{"missing episode length", "physics_dt: 0.1\nmin_episode_length_s: 1\n", "episode_length_s"},
		{"negative physics dt", "episode_length_s: 20\nmin_episode_length_s: 10\nphysics_dt: -1\n", "physics_dt"},
		{"minimum exceeds length", "episode_length_s: 20\nmin_episode_length_s: 30\nphysics_dt: 0.1\n", "min_episode_length_s 30 exceeds"},
		{"zero episodes per scenario", doc("episodes_per_scenario: 0"), "episodes_per_scenario"},
		{"zero max failures", doc("max_failures: 0"), "max_failures"},
		{"zero regular timeout", doc("timeout_regular: 0"), "timeout_regular"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if !models.IsClass(err, models.FailureConfiguration) {
				t.Fatalf("error class = %v, want configuration", models.ClassOf(err))
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	cfg.TimeoutRegularS = 1.5
	if got := cfg.TimeoutRegular(); got.Seconds() != 1.5 {
		t.Errorf("TimeoutRegular = %v, want 1.5s", got)
	}
	if got := cfg.TimeoutInitialization(); got.Seconds() != 120 {
		t.Errorf("TimeoutInitialization = %v, want 120s", got)
	}
	if got := cfg.AbortGrace(); got.Seconds() != 10 {
		t.Errorf("AbortGrace = %v, want 10s", got)
	}
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "channels.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
[peers.simulator]
transport = "fifo"
in = "/fifos/sim-out"
out = "/fifos/sim-in"

[peers.agent]
transport = "ws"
url = "ws://agent:8765/channel"
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}

	sim, ok := m.Lookup("simulator")
	if !ok {
		t.Fatal("simulator peer not declared")
	}
	if sim.Transport != "fifo" || sim.In != "/fifos/sim-out" || sim.Out != "/fifos/sim-in" {
		t.Errorf("unexpected simulator endpoint: %+v", sim)
	}
	agent, ok := m.Lookup("agent")
	if !ok {
		t.Fatal("agent peer not declared")
	}
	if agent.Transport != "ws" || agent.URL != "ws://agent:8765/channel" {
		t.Errorf("unexpected agent endpoint: %+v", agent)
	}
	if _, ok := m.Lookup("scenario_maker"); ok {
		t.Error("undeclared peer must not resolve")
	}
}

func TestLoadManifestRejectsIncompleteEndpoints(t *testing.T) {
	cases := []struct {
		name string
		toml string
	}{
		{"missing file", ""},
		{"fifo without out", "[peers.sim]\ntransport = \"fifo\"\nin = \"/a\""},
		{"ws without url", "[peers.agent]\ntransport = \"ws\""},
		{"unknown transport", "[peers.agent]\ntransport = \"tcp\""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "absent.toml")
			if tc.toml != "" {
				path = writeManifest(t, tc.toml)
			}
			_, err := LoadManifest(path)
			if !models.IsClass(err, models.FailureConfiguration) {
				t.Fatalf("error class = %v, want configuration", models.ClassOf(err))
			}
		})
	}
}
