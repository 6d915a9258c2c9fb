// Package config loads the TOML configuration of a nominal run.
package config

import (
	"log/slog"
	"strings"
	"time"

	"nominal/internal/core/diag"
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	CodeBase      CodeBase      `toml:"codebase"`
	Analysis      Analysis      `toml:"analysis"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	Output        Output        `toml:"output"`
	Observability Observability `toml:"observability"`
	Log           Log           `toml:"log"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	DatabaseDir string `toml:"database_dir"`
}

// CodeBase says where declarations come from besides the analysed trees.
type CodeBase struct {
	Manifests   []string      `toml:"manifests"`
	DBPath      string        `toml:"db_path"`
	Project     string        `toml:"project"`
	Persist     bool          `toml:"persist"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Analysis struct {
	Inputs      []string `toml:"inputs"`
	Suppress    []string `toml:"suppress"`
	MinSeverity string   `toml:"min_severity"`
	FailOn      string   `toml:"fail_on"`
	Workers     int      `toml:"workers"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce         time.Duration `toml:"debounce"`
	MaxRunsPerSecond float64       `toml:"max_runs_per_second"`
	Burst            int           `toml:"burst"`
	ReloadConfig     bool          `toml:"reload_config"`
}

type Output struct {
	Format string `toml:"format"`
	Path   string `toml:"path"`
	Color  *bool  `toml:"color"`

	// ContextLines is the number of source lines shown around each finding
	// in text output. Sources are read from the project root.
	ContextLines int `toml:"context_lines"`
}

type Observability struct {
	Enabled        bool   `toml:"enabled"`
	MetricsAddress string `toml:"metrics_address"`
	EnableTracing  bool   `toml:"enable_tracing"`
	OTLPEndpoint   string `toml:"otlp_endpoint"`
	OTLPInsecure   bool   `toml:"otlp_insecure"`
	ServiceName    string `toml:"service_name"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig is the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// SuppressedCategories returns the categories that must not be reported.
// Unknown entries are rejected by validation, so they are skipped here.
func (a Analysis) SuppressedCategories() map[diag.Category]bool {
	out := make(map[diag.Category]bool, len(a.Suppress))
	for _, raw := range a.Suppress {
		if c, err := diag.ParseCategory(raw); err == nil {
			out[c] = true
		}
	}
	return out
}

// MinSeverityLevel is the lowest severity that is reported.
func (a Analysis) MinSeverityLevel() diag.Severity {
	s, err := diag.ParseSeverity(a.MinSeverity)
	if err != nil {
		return diag.SeverityLow
	}
	return s
}

// FailOnLevel is the lowest severity that makes a run fail.
func (a Analysis) FailOnLevel() diag.Severity {
	s, err := diag.ParseSeverity(a.FailOn)
	if err != nil {
		return diag.SeverityNormal
	}
	return s
}

func (o Output) ColorEnabled() bool {
	if o.Color == nil {
		return true
	}
	return *o.Color
}

func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
