// Package config loads the optional opsreport configuration file and
// supplies the built-in defaults each report starts from. The loaded Config
// is passed explicitly into command constructors; there is no process-wide
// configuration state.
package config

import "time"

// Config is the top-level application configuration, loaded from
// ~/.config/opsreport/config.yaml when present.
type Config struct {
	// OutputDir is where report files are written.
	// Defaults to the user's Downloads folder.
	OutputDir string `yaml:"output_dir"`

	// Regions are the default regions for multi-region reports when no
	// --region flag is given.
	Regions []string `yaml:"regions"`

	// Workers is the default fan-out pool size.
	Workers int `yaml:"workers"`

	Retry   RetryConfig   `yaml:"retry"`
	Reports ReportsConfig `yaml:"reports"`
}

// RetryConfig holds the default throttle-retry policy. Individual reports
// may override it (the load balancer health report uses a much slower,
// longer policy than the rest).
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `yaml:"max_retries"`

	// InitialDelaySeconds is the first backoff delay; it doubles per retry.
	InitialDelaySeconds int `yaml:"initial_delay_seconds"`
}

// InitialDelay returns the configured initial delay as a duration.
func (r RetryConfig) InitialDelay() time.Duration {
	return time.Duration(r.InitialDelaySeconds) * time.Second
}

// ReportsConfig holds per-report tunables.
type ReportsConfig struct {
	// SnapshotAgeDays is the minimum age for the EBS snapshot report.
	SnapshotAgeDays int `yaml:"snapshot_age_days"`

	// IdleDays is the lookback window for the idle RDS report.
	IdleDays int `yaml:"idle_days"`

	// KarpenterTagKey identifies instances provisioned by Karpenter for the
	// rightsizing report.
	KarpenterTagKey string `yaml:"karpenter_tag_key"`

	// MaxRoles bounds how many IAM roles the access report inspects; the
	// Access Advisor job per role is slow, so this stays small by default.
	MaxRoles int `yaml:"max_roles"`

	// IdleRDSThresholds maps CloudWatch metric names to the per-datapoint
	// averages above which an RDS instance counts as active.
	IdleRDSThresholds map[string]float64 `yaml:"idle_rds_thresholds"`
}

// Default returns the built-in configuration used when no config file
// exists. File values override these; flags override both.
func Default() *Config {
	return &Config{
		OutputDir: "", // resolved to ~/Downloads by the report layer
		Regions:   []string{"us-east-1", "eu-central-1"},
		Workers:   5,
		Retry: RetryConfig{
			MaxRetries:          5,
			InitialDelaySeconds: 2,
		},
		Reports: ReportsConfig{
			SnapshotAgeDays: 80,
			IdleDays:        30,
			KarpenterTagKey: "karpenter.sh/provisioner-name",
			MaxRoles:        3,
			IdleRDSThresholds: map[string]float64{
				"DatabaseConnections":       1,
				"ReadIOPS":                  5,
				"WriteIOPS":                 5,
				"CPUUtilization":            5,
				"NetworkReceiveThroughput":  1024, // bytes
				"NetworkTransmitThroughput": 1024, // bytes
			},
		},
	}
}
