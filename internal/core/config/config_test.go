package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nominal/internal/core/diag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nominal.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version = 1

[codebase]
manifests = ["decls/vendor.toml", " "]
db_path = "cache/decls.db"
project = "shop"
persist = true

[analysis]
inputs = ["build/ast"]
suppress = ["eparam"]
min_severity = "Normal"
fail_on = "critical"
workers = 8

[exclude]
dirs = ["vendor", "**/cache"]
files = ["*.min.json"]

[watch]
debounce = "1s"
max_runs_per_second = 0.5
burst = 2

[output]
format = "SARIF"
path = "report.sarif"
color = false

[observability]
enabled = true
metrics_address = ":9100"

[log]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"decls/vendor.toml"}, cfg.CodeBase.Manifests)
	assert.Equal(t, "shop", cfg.CodeBase.Project)
	assert.True(t, cfg.CodeBase.Persist)
	assert.Equal(t, 5*time.Second, cfg.CodeBase.BusyTimeout)

	assert.Equal(t, map[diag.Category]bool{diag.CategoryParam: true}, cfg.Analysis.SuppressedCategories())
	assert.Equal(t, diag.SeverityNormal, cfg.Analysis.MinSeverityLevel())
	assert.Equal(t, diag.SeverityCritical, cfg.Analysis.FailOnLevel())
	assert.Equal(t, 8, cfg.Analysis.Workers)

	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 0.5, cfg.Watch.MaxRunsPerSecond)
	assert.Equal(t, 2, cfg.Watch.Burst)

	assert.Equal(t, "sarif", cfg.Output.Format)
	assert.False(t, cfg.Output.ColorEnabled())
	assert.Equal(t, ":9100", cfg.Observability.MetricsAddress)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
}

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "nominal.db", cfg.CodeBase.DBPath)
	assert.Equal(t, "default", cfg.CodeBase.Project)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.True(t, cfg.Output.ColorEnabled())
	assert.Equal(t, diag.SeverityLow, cfg.Analysis.MinSeverityLevel())
	assert.Equal(t, diag.SeverityNormal, cfg.Analysis.FailOnLevel())
	assert.Equal(t, slog.LevelInfo, cfg.Log.SlogLevel())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "bad = toml = format"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[analysis]\nworkerz = 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis.workerz")
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"version", "version = 3", "unsupported config version"},
		{"category", "[analysis]\nsuppress = [\"EWAT\"]", "analysis.suppress[0]"},
		{"severity", "[analysis]\nmin_severity = \"loud\"", "analysis.min_severity"},
		{"workers", "[analysis]\nworkers = 100", "analysis.workers"},
		{"glob", "[exclude]\nfiles = [\"[\"]", "exclude.files[0]"},
		{"debounce", "[watch]\ndebounce = \"1ms\"", "watch.debounce"},
		{"format", "[output]\nformat = \"html\"", "output.format"},
		{"context", "[output]\ncontext_lines = -1", "output.context_lines"},
		{"tracing", "[observability]\nenable_tracing = true", "observability.otlp_endpoint"},
		{"log level", "[log]\nlevel = \"chatty\"", "log.level"},
		{"project", "[codebase]\nproject = \"two words\"", "codebase.project"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NOMINAL_OUTPUT_FORMAT", "tsv")
	t.Setenv("NOMINAL_ANALYSIS_SUPPRESS", "EUNDEF, ETYPE")
	t.Setenv("NOMINAL_ANALYSIS_WORKERS", "not-a-number")
	t.Setenv("NOMINAL_WATCH_DEBOUNCE", "2s")
	t.Setenv("NOMINAL_CODEBASE_PERSIST", "TRUE")

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)

	assert.Equal(t, "tsv", cfg.Output.Format)
	assert.Equal(t, []string{"EUNDEF", "ETYPE"}, cfg.Analysis.Suppress)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.True(t, cfg.CodeBase.Persist)
}

func TestResolvePaths(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Paths.ProjectRoot = root
	cfg.Paths.DatabaseDir = "var"
	cfg.CodeBase.Manifests = []string{"decls.toml", "/abs/other.toml"}
	cfg.Analysis.Inputs = []string{"ast"}
	cfg.Output.Path = "out/report.txt"

	got, err := ResolvePaths(cfg, "/somewhere/else")
	require.NoError(t, err)

	assert.Equal(t, root, got.ProjectRoot)
	assert.Equal(t, filepath.Join(root, "var", "nominal.db"), got.DBPath)
	assert.Equal(t, []string{filepath.Join(root, "decls.toml"), "/abs/other.toml"}, got.Manifests)
	assert.Equal(t, []string{filepath.Join(root, "ast")}, got.Inputs)
	assert.Equal(t, filepath.Join(root, "out", "report.txt"), got.OutputPath)

	cfg.Output.Path = "-"
	got, err = ResolvePaths(cfg, root)
	require.NoError(t, err)
	assert.Empty(t, got.OutputPath)

	_, err = ResolvePaths(cfg, " ")
	assert.Error(t, err)
}

func TestDetectProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "composer.json"), []byte("{}"), 0o644))

	got, err := DetectProjectRoot([]string{nested})
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestWatcherReloads(t *testing.T) {
	path := writeConfig(t, "[output]\nformat = \"text\"\n")

	reloaded := make(chan *Config, 1)
	w := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("[output]\nformat = \"tsv\"\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "tsv", cfg.Output.Format)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}
