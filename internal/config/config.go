// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level static configuration. Maps to the `strix:` root
// key in YAML; env vars use the STRIX_ prefix via the key replacer
// (e.g. STRIX_LOG_LEVEL).
type Config struct {
	Interface string        `mapstructure:"interface"`
	Port      uint16        `mapstructure:"port"`
	Workers   int           `mapstructure:"workers"`
	Routes    RoutesConfig  `mapstructure:"routes"`
	Capture   CaptureConfig `mapstructure:"capture"`
	Log       LogConfig     `mapstructure:"log"`
	Metrics   MetricsConfig `mapstructure:"metrics"`
}

// RoutesConfig controls the control-plane route loader.
type RoutesConfig struct {
	PublicDir       string        `mapstructure:"public_dir"`
	Manifest        string        `mapstructure:"manifest"`         // optional per-path overrides
	ConfigPrefix    string        `mapstructure:"config_prefix"`    // env substitution into HTML; empty disables
	DevMode         bool          `mapstructure:"dev_mode"`         // reload changed files
	RefreshInterval time.Duration `mapstructure:"refresh_interval"` // dev mode poll interval
}

// CaptureConfig controls the AF_PACKET receive ring.
type CaptureConfig struct {
	SnapLen      int    `mapstructure:"snap_len"`
	BufferSizeMB int    `mapstructure:"buffer_size_mb"`
	TimeoutMs    int    `mapstructure:"timeout_ms"`
	FanoutID     uint16 `mapstructure:"fanout_id"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level"`  // debug / info / warn / error
	Format  string           `mapstructure:"format"` // json / text
	Outputs LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig contains log output destinations beyond stdout.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures rotating file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// configRoot is the top-level wrapper matching the YAML structure `strix: ...`.
type configRoot struct {
	Strix Config `mapstructure:"strix"`
}

// Load loads configuration from file, with env var overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// The `strix.` key prefix naturally maps to `STRIX_` in env vars via
	// the key replacer (key "strix.log.level" → env "STRIX_LOG_LEVEL").
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Strix

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default values. All keys use the "strix." prefix to match
// the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("strix.port", 3000)
	v.SetDefault("strix.workers", 0) // 0 = one per CPU

	v.SetDefault("strix.routes.public_dir", "public")
	v.SetDefault("strix.routes.config_prefix", "VITE_")
	v.SetDefault("strix.routes.dev_mode", false)
	v.SetDefault("strix.routes.refresh_interval", "2s")

	v.SetDefault("strix.capture.snap_len", 65536)
	v.SetDefault("strix.capture.buffer_size_mb", 8)
	v.SetDefault("strix.capture.timeout_ms", 100)
	v.SetDefault("strix.capture.fanout_id", 0)

	v.SetDefault("strix.log.level", "info")
	v.SetDefault("strix.log.format", "text")
	v.SetDefault("strix.log.outputs.file.enabled", false)
	v.SetDefault("strix.log.outputs.file.path", "/var/log/strix/strix.log")
	v.SetDefault("strix.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("strix.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("strix.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("strix.log.outputs.file.rotation.compress", true)

	v.SetDefault("strix.metrics.enabled", true)
	v.SetDefault("strix.metrics.listen", ":9092")
	v.SetDefault("strix.metrics.path", "/metrics")
}

// ValidateAndApplyDefaults validates configuration and applies runtime
// defaults that depend on the host.
func (cfg *Config) ValidateAndApplyDefaults() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json/text)", cfg.Log.Format)
	}

	if cfg.Port == 0 {
		return fmt.Errorf("port must be non-zero")
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Workers > 1 && cfg.Capture.FanoutID == 0 {
		// Multiple receive workers need a fanout group to shard traffic.
		cfg.Capture.FanoutID = cfg.Port
	}

	if cfg.Capture.SnapLen <= 0 {
		return fmt.Errorf("capture.snap_len must be positive")
	}
	if cfg.Routes.RefreshInterval <= 0 {
		cfg.Routes.RefreshInterval = 2 * time.Second
	}
	return nil
}
