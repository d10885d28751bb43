package congestion

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

// BootConfig is the boot-time configuration surface for a Sender (spec.md
// §4.4 "Configuration"). It is intentionally small: the spec names exactly
// one boot-time override, the server's initial congestion window.
type BootConfig struct {
	// ServerInitialCongestionWindow overrides the default initial
	// congestion window (in segments) for server-side senders only. Zero
	// means "use the protocol default".
	ServerInitialCongestionWindow int `toml:"server_initial_congestion_window"`
}

// LoadBootConfig parses TOML configuration from r into a BootConfig, the
// way the teacher's deployments load their own connection tuning
// (BurntSushi/toml, already a direct dependency of the example pack).
func LoadBootConfig(r io.Reader) (BootConfig, error) {
	var cfg BootConfig
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return BootConfig{}, fmt.Errorf("congestion: decode boot config: %w", err)
	}
	return cfg, nil
}
