package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"nominal/internal/core/diag"

	"github.com/gobwas/glob"
)

var (
	outputFormats = []string{"text", "sarif", "tsv", "markdown"}
	logLevels     = []string{"debug", "info", "warn", "warning", "error"}
	logFormats    = []string{"text", "json"}
)

// Validate checks a loaded configuration. Load calls it; it is exported for
// configurations assembled in code.
func Validate(cfg *Config) error {
	validators := []func(*Config) error{
		validateVersion,
		validateCodeBase,
		validateAnalysis,
		validateExclude,
		validateWatch,
		validateOutput,
		validateObservability,
		validateLog,
	}
	for _, validate := range validators {
		if err := validate(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateCodeBase(cfg *Config) error {
	if cfg.CodeBase.Persist && cfg.CodeBase.DBPath == "" {
		return fmt.Errorf("codebase.db_path must not be empty when codebase.persist is set")
	}
	if cfg.CodeBase.Project == "" {
		return fmt.Errorf("codebase.project must not be empty")
	}
	if strings.ContainsAny(cfg.CodeBase.Project, " \t\n") {
		return fmt.Errorf("codebase.project must not contain whitespace")
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	for i, raw := range cfg.Analysis.Suppress {
		if _, err := diag.ParseCategory(raw); err != nil {
			return fmt.Errorf("analysis.suppress[%d]: %w", i, err)
		}
	}
	if _, err := diag.ParseSeverity(cfg.Analysis.MinSeverity); err != nil {
		return fmt.Errorf("analysis.min_severity: %w", err)
	}
	if _, err := diag.ParseSeverity(cfg.Analysis.FailOn); err != nil {
		return fmt.Errorf("analysis.fail_on: %w", err)
	}
	if cfg.Analysis.Workers < 1 || cfg.Analysis.Workers > 64 {
		return fmt.Errorf("analysis.workers must be between 1 and 64, got %d", cfg.Analysis.Workers)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for field, patterns := range map[string][]string{
		"exclude.dirs":  cfg.Exclude.Dirs,
		"exclude.files": cfg.Exclude.Files,
	} {
		for i, pattern := range patterns {
			if _, err := glob.Compile(pattern); err != nil {
				return fmt.Errorf("%s[%d]: invalid pattern %q: %w", field, i, pattern, err)
			}
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 10*time.Millisecond || cfg.Watch.Debounce > time.Minute {
		return fmt.Errorf("watch.debounce must be between 10ms and 1m, got %s", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxRunsPerSecond <= 0 {
		return fmt.Errorf("watch.max_runs_per_second must be positive")
	}
	if cfg.Watch.Burst < 1 {
		return fmt.Errorf("watch.burst must be at least 1")
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if !slices.Contains(outputFormats, cfg.Output.Format) {
		return fmt.Errorf("output.format must be one of: %s", strings.Join(outputFormats, ", "))
	}
	if cfg.Output.ContextLines < 0 {
		return fmt.Errorf("output.context_lines must not be negative")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if cfg.Observability.Enabled && cfg.Observability.MetricsAddress == "" {
		return fmt.Errorf("observability.metrics_address must not be empty when observability is enabled")
	}
	if cfg.Observability.EnableTracing && cfg.Observability.OTLPEndpoint == "" {
		return fmt.Errorf("observability.otlp_endpoint must be set when tracing is enabled")
	}
	return nil
}

func validateLog(cfg *Config) error {
	if !slices.Contains(logLevels, cfg.Log.Level) {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	if !slices.Contains(logFormats, cfg.Log.Format) {
		return fmt.Errorf("log.format must be one of: %s", strings.Join(logFormats, ", "))
	}
	return nil
}
