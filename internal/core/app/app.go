package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nominal/internal/core/config"
	"nominal/internal/core/diag"
	"nominal/internal/core/errors"
	"nominal/internal/data/store"
	"nominal/internal/engine/analyze"
	"nominal/internal/engine/codebase"
	"nominal/internal/shared/observability"
	"nominal/internal/shared/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// App runs the two analysis passes over the configured inputs: declarations
// are harvested from every tree into a fresh code base, which is then frozen
// and shared by the analysis workers.
type App struct {
	// ConfigPath is reloaded in watch mode when watch.reload_config is set.
	ConfigPath string

	mu    sync.RWMutex
	cfg   *config.Config
	paths config.ResolvedPaths
	store *store.Store
	last  *Report
}

func New(cfg *config.Config, paths config.ResolvedPaths) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeInvalidInput, "config must not be nil")
	}
	a := &App{cfg: cfg, paths: paths}
	if cfg.CodeBase.Persist {
		s, err := store.Open(paths.DBPath, cfg.CodeBase.BusyTimeout)
		if err != nil {
			return nil, err
		}
		a.store = s
	}
	return a, nil
}

func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

func (a *App) Paths() config.ResolvedPaths {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.paths
}

// SetConfig applies cfg to later runs. The store is reopened when its path
// or the persist switch changed.
func (a *App) SetConfig(cfg *config.Config, paths config.ResolvedPaths) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	reopen := paths.DBPath != a.paths.DBPath || cfg.CodeBase.Persist != (a.store != nil)
	if reopen && a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("failed to close declaration store", "path", a.store.Path(), "error", err)
		}
		a.store = nil
	}
	if reopen && cfg.CodeBase.Persist {
		s, err := store.Open(paths.DBPath, cfg.CodeBase.BusyTimeout)
		if err != nil {
			return err
		}
		a.store = s
	}
	a.cfg, a.paths = cfg, paths
	return nil
}

func (a *App) snapshot() (*config.Config, config.ResolvedPaths, *store.Store) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg, a.paths, a.store
}

func (a *App) loadSources(cfg *config.Config, paths config.ResolvedPaths) ([]Source, error) {
	files, err := ScanInputs(paths.Inputs, cfg.Exclude.Dirs, cfg.Exclude.Files)
	if err != nil {
		return nil, err
	}
	sources := make([]Source, 0, len(files))
	for _, path := range files {
		root, err := LoadTree(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{
			Path: path,
			Name: SourceName(util.DisplayPath(paths.ProjectRoot, path)),
			Root: root,
		})
	}
	return sources, nil
}

func emitterFor(cfg *config.Config, logger *slog.Logger, c *diag.Collector) diag.Emitter {
	return &diag.Filter{
		Next:        &diag.Logged{Next: c, Logger: logger},
		Suppress:    cfg.Analysis.SuppressedCategories(),
		MinSeverity: cfg.Analysis.MinSeverityLevel(),
	}
}

// Run analyses every input once.
func (a *App) Run(ctx context.Context) (*Report, error) {
	cfg, paths, st := a.snapshot()
	rep := &Report{
		RunID:     uuid.NewString(),
		Project:   cfg.CodeBase.Project,
		StartedAt: time.Now().UTC(),
	}
	ctx, span := observability.Tracer.Start(ctx, "app.Run",
		trace.WithAttributes(attribute.String("run_id", rep.RunID), attribute.String("project", rep.Project)))
	defer span.End()

	logger := slog.With("run_id", rep.RunID)
	fail := func(err error) (*Report, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	sources, err := a.loadSources(cfg, paths)
	if err != nil {
		return fail(err)
	}

	code := codebase.New()
	collectors := make([]*diag.Collector, len(sources))
	for i, src := range sources {
		collectors[i] = diag.NewCollector()
		stats, err := analyze.NewHarvester(code, emitterFor(cfg, logger, collectors[i])).HarvestFile(src.Name, src.Root)
		if err != nil {
			return fail(err)
		}
		rep.Stats.Harvested += stats.Classes + stats.Functions + stats.Constants
	}

	imported, err := importDeclarations(ctx, code, cfg.CodeBase.Project, paths.Manifests, st)
	if err != nil {
		return fail(err)
	}
	rep.Stats.Imported, rep.Stats.Shadowed = imported.Added, imported.Skipped

	code.Freeze()
	cs := code.Stats()
	rep.Stats.Classes = cs.Classes + cs.Interfaces + cs.Traits
	rep.Stats.Functions = cs.Functions
	rep.Stats.Constants = cs.Constants
	observability.CodeBaseElements.WithLabelValues("class").Set(float64(cs.Classes))
	observability.CodeBaseElements.WithLabelValues("interface").Set(float64(cs.Interfaces))
	observability.CodeBaseElements.WithLabelValues("trait").Set(float64(cs.Traits))
	observability.CodeBaseElements.WithLabelValues("function").Set(float64(cs.Functions))
	observability.CodeBaseElements.WithLabelValues("constant").Set(float64(cs.Constants))

	results, err := analyzeAll(ctx, code, sources, func(i int) diag.Emitter {
		return emitterFor(cfg, logger, collectors[i])
	}, cfg.Analysis.Workers)
	if err != nil {
		return fail(err)
	}

	for i, res := range results {
		found := collectors[i].Diagnostics()
		rep.Files = append(rep.Files, FileReport{
			Name:        sources[i].Name,
			Path:        sources[i].Path,
			Nodes:       res.Nodes,
			Checks:      res.Checks,
			Failures:    res.Failures,
			Parameters:  res.Parameters,
			Diagnostics: len(found),
		})
		rep.Diagnostics = append(rep.Diagnostics, found...)
		rep.Stats.Nodes += res.Nodes
		rep.Stats.Checks += res.Checks
		rep.Stats.Failures += res.Failures
	}
	rep.Stats.Diagnostics = len(rep.Diagnostics)
	rep.Duration = time.Since(rep.StartedAt)
	observability.AnalysisDuration.WithLabelValues("run").Observe(rep.Duration.Seconds())
	span.SetAttributes(attribute.Int("files", len(rep.Files)), attribute.Int("diagnostics", rep.Stats.Diagnostics))

	if st != nil {
		err := st.RecordRun(ctx, store.Run{
			ID:          rep.RunID,
			Project:     rep.Project,
			Timestamp:   rep.StartedAt,
			Files:       len(rep.Files),
			Nodes:       rep.Stats.Nodes,
			Diagnostics: rep.Stats.Diagnostics,
			Failures:    rep.Stats.Failures,
			Duration:    rep.Duration,
		})
		if err != nil {
			logger.Warn("failed to record run", "error", err)
		}
	}

	logger.Info("analysis finished",
		"files", len(rep.Files),
		"declarations", rep.Stats.Classes+rep.Stats.Functions+rep.Stats.Constants,
		"diagnostics", rep.Stats.Diagnostics,
		"duration", rep.Duration,
		"heap_mb", util.HeapAllocMB(),
	)
	a.mu.Lock()
	a.last = rep
	a.mu.Unlock()
	return rep, nil
}

// importDeclarations adds manifest and indexed declarations. Names the
// analysed sources already declare are kept as harvested.
func importDeclarations(ctx context.Context, code *codebase.CodeBase, project string, manifests []string, st *store.Store) (store.Counts, error) {
	var total store.Counts
	if len(manifests) > 0 {
		decls, err := store.LoadManifests(manifests)
		if err != nil {
			return total, errors.Wrap(err, errors.CodeInvalidInput, "load manifests")
		}
		counts, err := decls.AddTo(code, "manifests")
		if err != nil {
			return total, err
		}
		total.Added += counts.Added
		total.Skipped += counts.Skipped
	}
	if st != nil {
		decls, err := st.Load(ctx, project)
		if err != nil {
			return total, err
		}
		counts, err := decls.AddTo(code, st.Path())
		if err != nil {
			return total, err
		}
		total.Added += counts.Added
		total.Skipped += counts.Skipped
	}
	return total, nil
}

// analyzeAll fans the sources out to a fixed pool of workers. Results keep
// the order of sources. The first failing file cancels the rest.
func analyzeAll(ctx context.Context, code *codebase.CodeBase, sources []Source, emitter func(int) diag.Emitter, workers int) ([]analyze.Result, error) {
	if workers < 1 {
		workers = 1
	}
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]analyze.Result, len(sources))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := analyze.NewAnalyzer(code, emitter(i)).AnalyzeFile(ctx, sources[i].Name, sources[i].Root)
				if err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
					continue
				}
				results[i] = res
			}
		}()
	}

feed:
	for i := range sources {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Index harvests the inputs and stores their declarations under the
// configured project, replacing what was stored before. Later runs load
// them as library declarations.
func (a *App) Index(ctx context.Context) (int, error) {
	cfg, paths, st := a.snapshot()
	ctx, span := observability.Tracer.Start(ctx, "app.Index")
	defer span.End()

	if st == nil {
		s, err := store.Open(paths.DBPath, cfg.CodeBase.BusyTimeout)
		if err != nil {
			return 0, err
		}
		defer s.Close()
		st = s
	}

	sources, err := a.loadSources(cfg, paths)
	if err != nil {
		return 0, err
	}
	code := codebase.New()
	redeclared := diag.NewCollector()
	for _, src := range sources {
		if _, err := analyze.NewHarvester(code, redeclared).HarvestFile(src.Name, src.Root); err != nil {
			return 0, err
		}
	}
	for _, d := range redeclared.Diagnostics() {
		slog.Warn("skipping redeclared element", "file", d.File, "line", d.Line, "message", d.Message)
	}

	decls := store.FromCodeBase(code)
	if err := st.Save(ctx, cfg.CodeBase.Project, decls); err != nil {
		return 0, err
	}
	slog.Info("indexed declarations", "project", cfg.CodeBase.Project, "files", len(sources), "declarations", decls.Len(), "db", st.Path())
	return decls.Len(), nil
}

// LastReport returns the report of the latest successful run, or nil.
func (a *App) LastReport() *Report {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// History returns up to limit recorded runs of the configured project,
// newest first.
func (a *App) History(ctx context.Context, limit int) ([]store.Run, error) {
	cfg, paths, st := a.snapshot()
	if st == nil {
		s, err := store.Open(paths.DBPath, cfg.CodeBase.BusyTimeout)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		st = s
	}
	return st.Runs(ctx, cfg.CodeBase.Project, limit)
}
