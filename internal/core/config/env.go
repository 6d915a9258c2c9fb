package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: NOMINAL_[SECTION]_[KEY] (e.g., NOMINAL_OUTPUT_FORMAT).
func ApplyEnvOverrides(cfg *Config) {
	// Paths
	setEnvString(&cfg.Paths.ProjectRoot, "NOMINAL_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.DatabaseDir, "NOMINAL_PATHS_DATABASE_DIR")

	// Code base
	setEnvList(&cfg.CodeBase.Manifests, "NOMINAL_CODEBASE_MANIFESTS")
	setEnvString(&cfg.CodeBase.DBPath, "NOMINAL_CODEBASE_DB_PATH")
	setEnvString(&cfg.CodeBase.Project, "NOMINAL_CODEBASE_PROJECT")
	setEnvBool(&cfg.CodeBase.Persist, "NOMINAL_CODEBASE_PERSIST")
	setEnvDuration(&cfg.CodeBase.BusyTimeout, "NOMINAL_CODEBASE_BUSY_TIMEOUT")

	// Analysis
	setEnvList(&cfg.Analysis.Suppress, "NOMINAL_ANALYSIS_SUPPRESS")
	setEnvString(&cfg.Analysis.MinSeverity, "NOMINAL_ANALYSIS_MIN_SEVERITY")
	setEnvString(&cfg.Analysis.FailOn, "NOMINAL_ANALYSIS_FAIL_ON")
	setEnvInt(&cfg.Analysis.Workers, "NOMINAL_ANALYSIS_WORKERS")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "NOMINAL_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRunsPerSecond, "NOMINAL_WATCH_MAX_RUNS_PER_SECOND")

	// Output
	setEnvString(&cfg.Output.Format, "NOMINAL_OUTPUT_FORMAT")
	setEnvString(&cfg.Output.Path, "NOMINAL_OUTPUT_PATH")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "NOMINAL_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.MetricsAddress, "NOMINAL_OBSERVABILITY_METRICS_ADDRESS")
	setEnvBool(&cfg.Observability.EnableTracing, "NOMINAL_OBSERVABILITY_ENABLE_TRACING")
	setEnvString(&cfg.Observability.OTLPEndpoint, "NOMINAL_OBSERVABILITY_OTLP_ENDPOINT")

	// Log
	setEnvString(&cfg.Log.Level, "NOMINAL_LOG_LEVEL")
	setEnvString(&cfg.Log.Format, "NOMINAL_LOG_FORMAT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList reads a comma separated list.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = strings.Split(val, ",")
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
