package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName        = "workcycle"
	configFileName = "config.yaml"
)

// Config is the application-level configuration file. Notification
// preferences are not here; they live in the database so the settings UI
// of an embedding shell can edit them at runtime.
type Config struct {
	ActiveMinutes int    `yaml:"active_minutes"`
	RestMinutes   int    `yaml:"rest_minutes"`
	PollSeconds   int    `yaml:"poll_seconds"`
	DatabasePath  string `yaml:"database_path"`
}

// Default returns the built-in configuration: 50 minute active phases,
// 10 minute rest phases, 5 second polling.
func Default() Config {
	return Config{
		ActiveMinutes: 50,
		RestMinutes:   10,
		PollSeconds:   5,
	}
}

// Load reads the YAML config at path. A missing file yields defaults;
// non-positive values in the file are ignored in favor of defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}

	if fileCfg.ActiveMinutes > 0 {
		cfg.ActiveMinutes = fileCfg.ActiveMinutes
	}
	if fileCfg.RestMinutes > 0 {
		cfg.RestMinutes = fileCfg.RestMinutes
	}
	if fileCfg.PollSeconds > 0 {
		cfg.PollSeconds = fileCfg.PollSeconds
	}
	if fileCfg.DatabasePath != "" {
		cfg.DatabasePath = fileCfg.DatabasePath
	}
	return cfg, nil
}

// DefaultPath returns ~/.config/workcycle/config.yaml
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, configFileName), nil
}

func (c Config) ActiveDuration() time.Duration {
	return time.Duration(c.ActiveMinutes) * time.Minute
}

func (c Config) RestDuration() time.Duration {
	return time.Duration(c.RestMinutes) * time.Minute
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}
