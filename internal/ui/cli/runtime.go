// Package cli is the command line front end of nominal.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	coreapp "nominal/internal/core/app"
	"nominal/internal/core/config"
	"nominal/internal/shared/observability"
	"nominal/internal/shared/util"
	"nominal/internal/ui/report"
)

const (
	exitOK       = 0
	exitFindings = 1
	exitUsage    = 2
)

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.version {
		fmt.Fprintf(stdout, "nominal v%s\n", versionString)
		return exitOK
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "failed to detect working directory: %v\n", err)
		return exitFindings
	}

	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return exitFindings
	}
	if err := applyModeOptions(&opts, cfg, cwd); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitUsage
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return exitUsage
	}

	closeLogs := configureLogging(cfg.Log, stderr, opts.ui)
	defer closeLogs()

	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		slog.Error("failed to resolve runtime paths", "error", err)
		return exitFindings
	}

	shutdownTracing, err := setupTracing(ctx, cfg)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		return exitFindings
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	analysis, err := coreapp.New(cfg, paths)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return exitFindings
	}
	defer analysis.Close()
	analysis.ConfigPath = cfgPath

	if cfg.Observability.Enabled {
		server := NewObservabilityServer(cfg.Observability.MetricsAddress, coreapp.NewHealthService(analysis))
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return exitFindings
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(stopCtx)
		}()
	}

	switch {
	case opts.index:
		n, err := analysis.Index(ctx)
		if err != nil {
			slog.Error("indexing failed", "error", err)
			return exitFindings
		}
		fmt.Fprintf(stdout, "indexed %d declarations into %s (project %s)\n", n, paths.DBPath, cfg.CodeBase.Project)
		return exitOK
	case opts.history > 0:
		return runHistory(ctx, analysis, opts, cfg.CodeBase.Project, stdout)
	case opts.ui:
		if err := runUI(ctx, analysis); err != nil {
			slog.Error("failed to run UI", "error", err)
			return exitFindings
		}
		return exitOK
	case opts.watch:
		return runWatch(ctx, analysis, opts, stdout)
	}

	rep, err := analysis.Run(ctx)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return exitFindings
	}
	if err := emitReport(rep, analysis, opts, stdout); err != nil {
		slog.Error("failed to write report", "error", err)
		return exitFindings
	}
	if rep.HasAtLeast(cfg.Analysis.FailOnLevel()) {
		return exitFindings
	}
	return exitOK
}

func runHistory(ctx context.Context, analysis *coreapp.App, opts cliOptions, project string, stdout io.Writer) int {
	runs, err := analysis.History(ctx, opts.history)
	if err != nil {
		slog.Error("failed to read run history", "error", err)
		return exitFindings
	}
	h := report.BuildRunHistory(project, runs)

	var data []byte
	if opts.historyFormat == "json" {
		data, err = report.RenderRunsJSON(h)
		data = append(data, '\n')
	} else {
		data, err = report.RenderRunsTSV(h)
	}
	if err != nil {
		slog.Error("failed to render run history", "error", err)
		return exitFindings
	}
	_, _ = stdout.Write(data)
	return exitOK
}

func runWatch(ctx context.Context, analysis *coreapp.App, opts cliOptions, stdout io.Writer) int {
	err := analysis.Watch(ctx, func(rep *coreapp.Report) {
		if err := emitReport(rep, analysis, opts, stdout); err != nil {
			slog.Error("failed to write report", "error", err)
		}
	})
	if err != nil {
		slog.Error("watch failed", "error", err)
		return exitFindings
	}
	return exitOK
}

// emitReport writes rep to the configured output and injects it into a
// markdown file when -inject is set.
func emitReport(rep *coreapp.Report, analysis *coreapp.App, opts cliOptions, stdout io.Writer) error {
	cfg, paths := analysis.Config(), analysis.Paths()

	toFile := paths.OutputPath != ""
	data, err := report.Render(cfg.Output.Format, rep, report.Options{
		Color:        cfg.Output.ColorEnabled() && !toFile && !opts.noColor,
		Version:      versionString,
		Root:         paths.ProjectRoot,
		ContextLines: cfg.Output.ContextLines,
	})
	if err != nil {
		return err
	}

	if toFile {
		if err := util.WriteFileWithDirs(paths.OutputPath, data, 0o644); err != nil {
			return err
		}
		slog.Info("report written", "path", paths.OutputPath, "format", cfg.Output.Format)
	} else if _, err := stdout.Write(data); err != nil {
		return err
	}

	if opts.inject != "" {
		file, marker, _ := splitInject(opts.inject)
		if err := report.InjectReport(file, marker, rep); err != nil {
			return err
		}
	}
	return nil
}

// applyModeOptions folds the command line into cfg and rejects flag
// combinations that cannot work together. Paths given on the command line
// are relative to cwd.
func applyModeOptions(opts *cliOptions, cfg *config.Config, cwd string) error {
	modes := 0
	for _, on := range []bool{opts.watch || opts.ui, opts.index, opts.history > 0} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("-watch/-ui, -index and -history cannot be combined")
	}
	if opts.history < 0 {
		return fmt.Errorf("-history must not be negative")
	}
	if opts.historyFormat != "tsv" && opts.historyFormat != "json" {
		return fmt.Errorf("-history-format must be tsv or json")
	}
	if opts.inject != "" {
		file, marker, ok := splitInject(opts.inject)
		if !ok {
			return fmt.Errorf("-inject expects <file>:<marker>")
		}
		opts.inject = config.ResolveRelative(cwd, file) + ":" + marker
	}

	if len(opts.args) > 0 {
		cfg.Analysis.Inputs = cfg.Analysis.Inputs[:0]
		for _, arg := range opts.args {
			cfg.Analysis.Inputs = append(cfg.Analysis.Inputs, config.ResolveRelative(cwd, arg))
		}
	}
	for _, m := range opts.manifests {
		cfg.CodeBase.Manifests = append(cfg.CodeBase.Manifests, config.ResolveRelative(cwd, m))
	}
	if opts.dbPath != "" {
		cfg.CodeBase.DBPath = config.ResolveRelative(cwd, opts.dbPath)
		cfg.CodeBase.Persist = true
	}
	if opts.project != "" {
		cfg.CodeBase.Project = opts.project
	}
	if opts.format != "" {
		cfg.Output.Format = strings.ToLower(strings.TrimSpace(opts.format))
	}
	if opts.output == "-" {
		cfg.Output.Path = ""
	} else if opts.output != "" {
		cfg.Output.Path = config.ResolveRelative(cwd, opts.output)
	}
	if opts.contextLines >= 0 {
		cfg.Output.ContextLines = opts.contextLines
	}
	if opts.noColor {
		off := false
		cfg.Output.Color = &off
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	if opts.history == 0 && len(cfg.Analysis.Inputs) == 0 {
		return fmt.Errorf("no inputs: pass syntax tree files or directories, or set analysis.inputs")
	}
	return nil
}

// splitInject splits <file>:<marker> at the last colon.
func splitInject(value string) (file, marker string, ok bool) {
	i := strings.LastIndex(value, ":")
	if i <= 0 {
		return "", "", false
	}
	file, marker = strings.TrimSpace(value[:i]), strings.TrimSpace(value[i+1:])
	return file, marker, file != "" && marker != ""
}

// loadConfig loads path, or the first default candidate that exists below
// cwd. Without either, the defaults are used and the returned path is empty.
func loadConfig(path, cwd string) (*config.Config, string, error) {
	if strings.TrimSpace(path) != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	for _, candidate := range defaultConfigCandidates {
		full := filepath.Join(cwd, candidate)
		if _, err := os.Stat(full); err != nil {
			continue
		}
		cfg, err := config.Load(full)
		if err != nil {
			return nil, "", err
		}
		return cfg, full, nil
	}

	cfg, err := config.LoadOrDefault("")
	return cfg, "", err
}

// configureLogging installs the default logger. In UI mode records go to a
// log file so they do not corrupt the terminal; the returned func closes it.
func configureLogging(cfg config.Log, w io.Writer, uiMode bool) func() {
	closeFn := func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(w, "warning: failed to create log dir for %s: %v\n", logPath, err)
			w = io.Discard
		} else if fi, err := os.Lstat(logPath); err == nil && fi.Mode()&os.ModeSymlink != 0 {
			fmt.Fprintf(w, "warning: refusing to write logs to symlink path %s\n", logPath)
			w = io.Discard
		} else if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600); err != nil {
			fmt.Fprintf(w, "warning: failed to open log file %s: %v\n", logPath, err)
			w = io.Discard
		} else {
			w = f
			closeFn = func() { _ = f.Close() }
		}
	}

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "nominal", "nominal.log")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "nominal", "nominal.log")
	}
	return "nominal.log"
}

func setupTracing(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.Observability.EnableTracing {
		return func(context.Context) error { return nil }, nil
	}
	return observability.SetupTracing(ctx,
		cfg.Observability.OTLPEndpoint,
		cfg.Observability.ServiceName,
		cfg.Observability.OTLPInsecure,
	)
}
