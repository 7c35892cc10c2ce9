package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/termview/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int            `mapstructure:"config_version" yaml:"config_version"`
	Command       []string       `mapstructure:"command" yaml:"command"`
	Dir           string         `mapstructure:"dir" yaml:"dir"`
	Term          string         `mapstructure:"term" yaml:"term"`
	Terminal      TerminalConfig `mapstructure:"terminal" yaml:"terminal"`
	SSH           SSHConfig      `mapstructure:"ssh" yaml:"ssh"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// TerminalConfig controls how sessions render into their surface.
type TerminalConfig struct {
	ShowColors    bool    `mapstructure:"show_colors" yaml:"show_colors"`
	RightMargin   int     `mapstructure:"right_margin" yaml:"right_margin"`
	BottomMargin  int     `mapstructure:"bottom_margin" yaml:"bottom_margin"`
	ScrollHistory int     `mapstructure:"scroll_history" yaml:"scroll_history"`
	ScrollRatio   float64 `mapstructure:"scroll_ratio" yaml:"scroll_ratio"`
}

// SSHConfig configures the SSH bridge.
type SSHConfig struct {
	Addr           string `mapstructure:"addr" yaml:"addr"`
	HostKeyPath    string `mapstructure:"host_key_path" yaml:"host_key_path"`
	AuthorizedKeys string `mapstructure:"authorized_keys" yaml:"authorized_keys"`
}

// SessionConfig converts the terminal block into the per-session
// settings sessions are constructed with.
func (c Config) SessionConfig() schema.SessionConfig {
	return schema.SessionConfig{
		ShowColors:    c.Terminal.ShowColors,
		RightMargin:   c.Terminal.RightMargin,
		BottomMargin:  c.Terminal.BottomMargin,
		ScrollHistory: c.Terminal.ScrollHistory,
		ScrollRatio:   c.Terminal.ScrollRatio,
	}
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	def := schema.DefaultSessionConfig()
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Command:       []string{"/bin/bash", "-l"},
		Dir:           "",
		Term:          "linux",
		Terminal: TerminalConfig{
			ShowColors:    def.ShowColors,
			RightMargin:   def.RightMargin,
			BottomMargin:  def.BottomMargin,
			ScrollHistory: def.ScrollHistory,
			ScrollRatio:   def.ScrollRatio,
		},
		SSH: SSHConfig{
			Addr:           "127.0.0.1:2222",
			HostKeyPath:    filepath.Join(home, ".termview", "ssh_host_key"),
			AuthorizedKeys: filepath.Join(home, ".termview", "authorized_keys"),
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".termview", "config.yaml"), nil
}
