package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables overriding configuration.
// LANEVIEW_ENGINE__WORKERS=8 sets engine.workers.
const EnvPrefix = "LANEVIEW_"

// Config holds all configuration for the application
type Config struct {
	Hierarchy HierarchyConfig `yaml:"hierarchy"`
	Rollout   RolloutConfig   `yaml:"rollout"`
	Engine    EngineConfig    `yaml:"engine"`
	Log       LogConfig       `yaml:"log"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// HierarchyConfig controls how lanes are grouped
type HierarchyConfig struct {
	// GroupByApp enables grouping of parentless lanes by application label
	GroupByApp bool `yaml:"groupByApp"`

	// AppLabelKeys are consulted in order for the application label
	AppLabelKeys []string `yaml:"appLabelKeys"`
}

// RolloutConfig controls rollout detection
type RolloutConfig struct {
	// Markers are diff summary substrings that identify a rollout
	Markers []string `yaml:"markers"`
}

// EngineConfig controls batch orchestration
type EngineConfig struct {
	Workers      int  `yaml:"workers"`
	CacheSize    int  `yaml:"cacheSize"`
	CacheEnabled bool `yaml:"cacheEnabled"`
}

// LogConfig holds the default level and per-package overrides
type LogConfig struct {
	Level    string            `yaml:"level"`
	Packages map[string]string `yaml:"packages"`
}

// TracingConfig holds OpenTelemetry export settings
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	TLSCAPath   string `yaml:"tlsCAPath"`
	TLSInsecure bool   `yaml:"tlsInsecure"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Hierarchy: HierarchyConfig{
			GroupByApp:   true,
			AppLabelKeys: []string{"app.kubernetes.io/name", "app"},
		},
		Rollout: RolloutConfig{
			Markers: []string{"replicas", "updated:", "image(", "template"},
		},
		Engine: EngineConfig{
			Workers:      0, // GOMAXPROCS
			CacheSize:    256,
			CacheEnabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds configuration from defaults, then the YAML file at path (if
// path is non-empty), then LANEVIEW_* environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaultValues(DefaultConfig()) {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to set default %q: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
		}
	}

	canonical := make(map[string]string)
	for _, key := range k.Keys() {
		canonical[strings.ToLower(key)] = key
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := envKey(s)
		if c, ok := canonical[key]; ok {
			return c
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// defaultValues flattens c into koanf keys
func defaultValues(c *Config) map[string]interface{} {
	return map[string]interface{}{
		"hierarchy.groupByApp":   c.Hierarchy.GroupByApp,
		"hierarchy.appLabelKeys": c.Hierarchy.AppLabelKeys,
		"rollout.markers":        c.Rollout.Markers,
		"engine.workers":         c.Engine.Workers,
		"engine.cacheSize":       c.Engine.CacheSize,
		"engine.cacheEnabled":    c.Engine.CacheEnabled,
		"log.level":              c.Log.Level,
		"tracing.enabled":        c.Tracing.Enabled,
		"tracing.endpoint":       c.Tracing.Endpoint,
		"tracing.insecure":       c.Tracing.Insecure,
		"tracing.tlsCAPath":      c.Tracing.TLSCAPath,
		"tracing.tlsInsecure":    c.Tracing.TLSInsecure,
	}
}

// envKey maps LANEVIEW_HIERARCHY__GROUPBYAPP to hierarchy.groupbyapp
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Hierarchy.GroupByApp && len(c.Hierarchy.AppLabelKeys) == 0 {
		return NewConfigError("hierarchy.appLabelKeys must not be empty when groupByApp is enabled")
	}

	for _, m := range c.Rollout.Markers {
		if strings.TrimSpace(m) == "" {
			return NewConfigError("rollout.markers must not contain empty markers")
		}
	}

	if c.Engine.Workers < 0 {
		return NewConfigError("engine.workers must not be negative")
	}

	if c.Engine.CacheEnabled && c.Engine.CacheSize < 1 {
		return NewConfigError("engine.cacheSize must be at least 1 when cache is enabled")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return NewConfigError(fmt.Sprintf("log.level %q is not one of debug, info, warn, error, fatal", c.Log.Level))
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return NewConfigError("tracing.endpoint must be set when tracing is enabled")
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}
