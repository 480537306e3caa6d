package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kenwatanabe/taskcrdgo/internal/ctxlog"
	"github.com/kenwatanabe/taskcrdgo/internal/executor"
	"github.com/kenwatanabe/taskcrdgo/internal/graphbuilder"
	"github.com/kenwatanabe/taskcrdgo/internal/gridconfig"
	"github.com/kenwatanabe/taskcrdgo/internal/plan"
)

// Config holds everything an App needs to load a grid and run it.
type Config struct {
	// GridPaths are HCL files or directories describing steps and fields.
	GridPaths []string

	LogFormat string
	LogLevel  string

	// HealthcheckPort, if positive, starts a /health endpoint on that port.
	HealthcheckPort int

	// ThreadCount is forwarded to executor.Config; see its doc comment.
	ThreadCount    int
	CollectTiming  bool
	AbortOnFailure bool

	// Eager controls graphbuilder.New's diagnostics mode: true fails fast
	// on the first conflict, false accumulates every conflict it can find.
	Eager bool
}

// App encapsulates one loaded, built, and ready-to-run grid.
type App struct {
	logger     *slog.Logger
	cfg        Config
	plan       *plan.Plan
	httpServer *healthServer
}

// NewApp loads every HCL file under cfg.GridPaths, resolves declared step
// handlers against reg, and builds an execution plan. reg is supplied by
// the caller rather than a fixed module list, since the handlers a grid
// needs are a property of the grid, not of this package.
func NewApp(ctx context.Context, outW io.Writer, cfg Config, reg *gridconfig.Registry) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	model, err := gridconfig.Load(ctx, cfg.GridPaths...)
	if err != nil {
		return nil, fmt.Errorf("loading grid: %w", err)
	}
	logger.Debug("Grid loaded.", "steps", len(model.Steps), "step_links", len(model.StepLinks))

	b := graphbuilder.New(cfg.Eager)
	if _, err := gridconfig.Apply(ctx, model, b, reg); err != nil {
		return nil, fmt.Errorf("applying grid to graph builder: %w", err)
	}

	p, err := b.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("building execution plan: %w", err)
	}
	logger.Debug("Execution plan built.", "steps", p.StepCount())

	return &App{logger: logger, cfg: cfg, plan: p}, nil
}

// Plan returns the App's built execution plan. Primarily for testing.
func (a *App) Plan() *plan.Plan { return a.plan }

// Run executes the App's plan to completion, starting the healthcheck
// server first if configured. It never returns a Go error for an
// execution failure: that outcome is carried in the returned result,
// matching executor.Executor.Execute's own contract.
func (a *App) Run(ctx context.Context, sink executor.ProgressSink) *executor.ExecutionResult {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run started.")

	if a.cfg.HealthcheckPort > 0 {
		a.httpServer = startHealthcheckServer(a.logger, a.cfg.HealthcheckPort)
	}
	defer func() {
		if a.httpServer != nil {
			a.httpServer.close(ctx, a.logger)
		}
	}()

	exec := executor.New(executor.Config{
		ThreadCount:    a.cfg.ThreadCount,
		CollectTiming:  a.cfg.CollectTiming,
		AbortOnFailure: a.cfg.AbortOnFailure,
	}, sink)

	a.logger.Info("Starting execution...", "steps", a.plan.StepCount())
	result := exec.Execute(ctx, a.plan)
	a.logger.Info("Execution finished.", "success", result.Success)
	return result
}
