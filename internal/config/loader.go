package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader is the interface for reading Config from disk. The default
// implementation reads ~/.config/opsreport/config.yaml.
type Loader interface {
	// Load reads and parses the configuration file, returning defaults
	// merged with whatever the file sets. A missing file is not an error.
	Load() (*Config, error)

	// ConfigPath returns the absolute path to the configuration file.
	ConfigPath() string
}

// DefaultLoader reads the YAML config file at a fixed path.
type DefaultLoader struct {
	path string
}

// NewDefaultLoader returns a loader for ~/.config/opsreport/config.yaml.
func NewDefaultLoader() *DefaultLoader {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &DefaultLoader{path: filepath.Join(home, ".config", "opsreport", "config.yaml")}
}

// NewLoaderForPath returns a loader for an explicit file path. Used by tests
// and the --config flag.
func NewLoaderForPath(path string) *DefaultLoader {
	return &DefaultLoader{path: path}
}

// ConfigPath returns the path this loader reads.
func (l *DefaultLoader) ConfigPath() string { return l.path }

// Load parses the config file over the built-in defaults. When the file does
// not exist the defaults are returned unchanged.
func (l *DefaultLoader) Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %q: %w", l.path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", l.path, err)
	}

	// Re-fill anything the file explicitly zeroed that has no sensible
	// zero value.
	if cfg.Workers <= 0 {
		cfg.Workers = Default().Workers
	}
	if cfg.Retry.MaxRetries <= 0 {
		cfg.Retry.MaxRetries = Default().Retry.MaxRetries
	}
	if cfg.Retry.InitialDelaySeconds <= 0 {
		cfg.Retry.InitialDelaySeconds = Default().Retry.InitialDelaySeconds
	}
	if len(cfg.Reports.IdleRDSThresholds) == 0 {
		cfg.Reports.IdleRDSThresholds = Default().Reports.IdleRDSThresholds
	}
	if cfg.Reports.SnapshotAgeDays <= 0 {
		cfg.Reports.SnapshotAgeDays = Default().Reports.SnapshotAgeDays
	}
	if cfg.Reports.IdleDays <= 0 {
		cfg.Reports.IdleDays = Default().Reports.IdleDays
	}
	if cfg.Reports.KarpenterTagKey == "" {
		cfg.Reports.KarpenterTagKey = Default().Reports.KarpenterTagKey
	}
	if cfg.Reports.MaxRoles <= 0 {
		cfg.Reports.MaxRoles = Default().Reports.MaxRoles
	}

	return cfg, nil
}
