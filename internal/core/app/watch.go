package app

import (
	"context"
	"log/slog"
	"os"

	"nominal/internal/core/config"
	"nominal/internal/core/watcher"
	"nominal/internal/shared/observability"
	"nominal/internal/shared/util"
)

// Watch runs the analysis once and again whenever a syntax tree below the
// inputs changes, until ctx is done. Reruns are rate limited by
// watch.max_runs_per_second. A failed run is logged and does not stop the
// loop.
func (a *App) Watch(ctx context.Context, onReport func(*Report)) error {
	cfg, paths, _ := a.snapshot()

	trigger := make(chan struct{}, 1)
	notify := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	w, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Exclude.Dirs, cfg.Exclude.Files, func(changed []string) {
		slog.Debug("syntax trees changed", "count", len(changed))
		notify()
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch(paths.Inputs); err != nil {
		return err
	}

	if cfg.Watch.ReloadConfig && a.ConfigPath != "" {
		cw := config.NewWatcher(a.ConfigPath, func(next *config.Config) {
			if err := a.reload(next); err != nil {
				slog.Error("failed to apply reloaded configuration", "error", err)
				return
			}
			notify()
		})
		if err := cw.Start(ctx); err != nil {
			return err
		}
		defer cw.Stop()
	}

	limiter := util.NewLimiter(cfg.Watch.MaxRunsPerSecond, cfg.Watch.Burst)
	a.runOnce(ctx, onReport)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			throttled, err := limiter.Throttle(ctx)
			if throttled {
				observability.WatchRunsThrottledTotal.Inc()
			}
			if err != nil {
				return nil
			}
			a.runOnce(ctx, onReport)
		}
	}
}

func (a *App) runOnce(ctx context.Context, onReport func(*Report)) {
	rep, err := a.Run(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("analysis run failed", "error", err)
		}
		return
	}
	if onReport != nil {
		onReport(rep)
	}
}

func (a *App) reload(cfg *config.Config) error {
	_, current, _ := a.snapshot()
	cwd := current.ProjectRoot
	if cwd == "" {
		var err error
		if cwd, err = os.Getwd(); err != nil {
			return err
		}
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return err
	}
	slog.Info("configuration reloaded", "path", a.ConfigPath)
	return a.SetConfig(cfg, paths)
}
