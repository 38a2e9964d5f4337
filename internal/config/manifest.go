package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"simeval/internal/models"
)

// Manifest maps the endpoint identifiers in Config to concrete transport
// endpoints. Without a manifest, identifiers are treated as FIFO paths.
//
//	[peers.simulator]
//	transport = "fifo"
//	in = "/fifos/sim-to-evaluator"
//	out = "/fifos/evaluator-to-sim"
//
//	[peers.agent]
//	transport = "ws"
//	url = "ws://agent:8765/channel"
type Manifest struct {
	Peers map[string]PeerEndpoint `toml:"peers"`
}

// PeerEndpoint describes how to reach one peer.
type PeerEndpoint struct {
	Transport string `toml:"transport"`
	In        string `toml:"in,omitempty"`
	Out       string `toml:"out,omitempty"`
	URL       string `toml:"url,omitempty"`
}

// LoadManifest reads and validates a channels.toml file.
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, models.Configurationf("reading channel manifest %s: %s", path, err)
	}
	if err := toml.Unmarshal(data, &m); err != nil {
		return m, models.Configurationf("parsing channel manifest %s: %s", path, err)
	}
	for name, p := range m.Peers {
		switch p.Transport {
		case "", "fifo":
			if p.In == "" || p.Out == "" {
				return m, models.Configurationf("manifest peer %s: fifo transport needs in and out paths", name)
			}
		case "ws":
			if p.URL == "" {
				return m, models.Configurationf("manifest peer %s: ws transport needs a url", name)
			}
		default:
			return m, models.Configurationf("manifest peer %s: unknown transport %q", name, p.Transport)
		}
	}
	return m, nil
}

// Lookup returns the endpoint for the named peer, if declared.
func (m Manifest) Lookup(name string) (PeerEndpoint, bool) {
	p, ok := m.Peers[name]
	return p, ok
}
