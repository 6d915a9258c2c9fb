package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Load reads a TOML file, fills in defaults, applies NOMINAL_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads path when it is set and otherwise returns the default
// configuration with environment overrides applied.
func LoadOrDefault(path string) (*Config, error) {
	if strings.TrimSpace(path) != "" {
		return Load(path)
	}
	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)
	normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.DatabaseDir) == "" {
		cfg.Paths.DatabaseDir = "."
	}

	if strings.TrimSpace(cfg.CodeBase.DBPath) == "" {
		cfg.CodeBase.DBPath = "nominal.db"
	}
	if strings.TrimSpace(cfg.CodeBase.Project) == "" {
		cfg.CodeBase.Project = "default"
	}
	if cfg.CodeBase.BusyTimeout <= 0 {
		cfg.CodeBase.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Analysis.MinSeverity) == "" {
		cfg.Analysis.MinSeverity = "low"
	}
	if strings.TrimSpace(cfg.Analysis.FailOn) == "" {
		cfg.Analysis.FailOn = "normal"
	}
	if cfg.Analysis.Workers <= 0 {
		cfg.Analysis.Workers = 4
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRunsPerSecond <= 0 {
		cfg.Watch.MaxRunsPerSecond = 1
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 1
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "text"
	}

	if strings.TrimSpace(cfg.Observability.MetricsAddress) == "" {
		cfg.Observability.MetricsAddress = "127.0.0.1:9464"
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "nominal"
	}

	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
	if strings.TrimSpace(cfg.Log.Format) == "" {
		cfg.Log.Format = "text"
	}
}

func normalize(cfg *Config) {
	cfg.Paths.ProjectRoot = strings.TrimSpace(cfg.Paths.ProjectRoot)
	cfg.CodeBase.DBPath = strings.TrimSpace(cfg.CodeBase.DBPath)
	cfg.CodeBase.Project = strings.TrimSpace(cfg.CodeBase.Project)
	cfg.CodeBase.Manifests = trimAll(cfg.CodeBase.Manifests)
	cfg.Analysis.Inputs = trimAll(cfg.Analysis.Inputs)
	cfg.Analysis.Suppress = trimAll(cfg.Analysis.Suppress)
	cfg.Analysis.MinSeverity = strings.ToLower(strings.TrimSpace(cfg.Analysis.MinSeverity))
	cfg.Analysis.FailOn = strings.ToLower(strings.TrimSpace(cfg.Analysis.FailOn))
	cfg.Exclude.Dirs = trimAll(cfg.Exclude.Dirs)
	cfg.Exclude.Files = trimAll(cfg.Exclude.Files)
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Output.Path = strings.TrimSpace(cfg.Output.Path)
	cfg.Observability.MetricsAddress = strings.TrimSpace(cfg.Observability.MetricsAddress)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
