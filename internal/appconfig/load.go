package appconfig

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty,
// uses DefaultConfigPath. A missing file yields the defaults; a present
// file must carry the current config_version.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("command", cfg.Command)
	v.SetDefault("dir", cfg.Dir)
	v.SetDefault("term", cfg.Term)
	v.SetDefault("terminal.show_colors", cfg.Terminal.ShowColors)
	v.SetDefault("terminal.right_margin", cfg.Terminal.RightMargin)
	v.SetDefault("terminal.bottom_margin", cfg.Terminal.BottomMargin)
	v.SetDefault("terminal.scroll_history", cfg.Terminal.ScrollHistory)
	v.SetDefault("terminal.scroll_ratio", cfg.Terminal.ScrollRatio)
	v.SetDefault("ssh.addr", cfg.SSH.Addr)
	v.SetDefault("ssh.host_key_path", cfg.SSH.HostKeyPath)
	v.SetDefault("ssh.authorized_keys", cfg.SSH.AuthorizedKeys)

	configLoaded := false
	if err := v.ReadInConfig(); err == nil {
		configLoaded = true
	} else if !os.IsNotExist(err) {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	if configLoaded {
		// InConfig consults the file alone; IsSet would see the default.
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
		if v.InConfig("shell") {
			return Config{}, fmt.Errorf("shell is not supported; use command with the full argv")
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	if len(cfg.Command) == 0 || strings.TrimSpace(cfg.Command[0]) == "" {
		return fmt.Errorf("command must name the program to run")
	}
	if cfg.Terminal.RightMargin < 0 || cfg.Terminal.BottomMargin < 0 {
		return fmt.Errorf("terminal margins must not be negative")
	}
	if cfg.Terminal.ScrollHistory < 0 {
		return fmt.Errorf("terminal.scroll_history must not be negative")
	}
	if cfg.Terminal.ScrollRatio <= 0 || cfg.Terminal.ScrollRatio > 1 {
		return fmt.Errorf("terminal.scroll_ratio must be within (0, 1]")
	}
	if _, _, err := net.SplitHostPort(cfg.SSH.Addr); err != nil {
		return fmt.Errorf("ssh.addr must be host:port: %v", err)
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	for i, arg := range cfg.Command {
		cfg.Command[i] = expandEnv(arg)
	}
	cfg.Dir = expandEnv(cfg.Dir)
	cfg.SSH.HostKeyPath = expandEnv(cfg.SSH.HostKeyPath)
	cfg.SSH.AuthorizedKeys = expandEnv(cfg.SSH.AuthorizedKeys)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
