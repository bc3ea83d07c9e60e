package plugin

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/go-drift/kernel/pkg/config"
	kerrors "github.com/go-drift/kernel/pkg/errors"
	"github.com/go-drift/kernel/pkg/project"
)

// Runner applies plugin mutations for one platform at a time.
type Runner struct {
	logger *zap.Logger
	now    func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger for per-plugin progress. Defaults to a no-op
// logger.
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for report timestamps.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run invokes the mutation function of every plugin that supports platform,
// sequentially in the given order, and reports each outcome.
//
// A failing plugin is recorded and the run continues, unless the plugin is
// critical, in which case the remaining plugins are skipped and the run is
// aborted. Panics are recovered and recorded as failures. ctx is checked
// between plugins; once it is done the remaining plugins are skipped.
//
// Run never returns an error; inspect the Report instead.
func (r *Runner) Run(ctx context.Context, platform Platform, cfg *config.Config, tree *project.Tree, plugins []Plugin) *Report {
	report := &Report{
		ID:       ulid.Make().String(),
		Platform: platform,
		State:    StatePending,
		Started:  r.now(),
	}
	log := r.logger.With(zap.String("platform", string(platform)), zap.String("run", report.ID))

	var selected []Plugin
	for _, p := range plugins {
		if p.Supports(platform) {
			selected = append(selected, p)
		}
	}

	report.State = StateRunning
	log.Debug("run started", zap.Int("plugins", len(selected)))

	aborted := false
	for i, p := range selected {
		if err := ctx.Err(); err != nil {
			log.Warn("run interrupted", zap.String("plugin", p.Name), zap.Error(err))
			report.interrupt = err
			skip(report, selected[i:])
			aborted = true
			break
		}

		outcome := r.invoke(ctx, log, platform, cfg, tree, p)
		report.Outcomes = append(report.Outcomes, outcome)

		if outcome.Status == OutcomeFailed && p.Critical {
			log.Error("critical plugin failed, aborting run", zap.String("plugin", p.Name))
			skip(report, selected[i+1:])
			aborted = true
			break
		}
	}

	report.Finished = r.now()
	switch {
	case aborted:
		report.State = StateAborted
		report.Status = StatusAborted
	case len(report.Failed()) > 0:
		report.State = StateCompleted
		report.Status = StatusPartial
	default:
		report.State = StateCompleted
		report.Status = StatusOK
	}

	log.Info("run finished",
		zap.String("status", string(report.Status)),
		zap.Duration("duration", report.Duration()),
	)
	return report
}

func (r *Runner) invoke(ctx context.Context, log *zap.Logger, platform Platform, cfg *config.Config, tree *project.Tree, p Plugin) Outcome {
	log = log.With(zap.String("plugin", p.Name))
	log.Debug("plugin started")

	start := r.now()
	err := call(ctx, p.Mutations[platform], cfg, tree, p.Name+" "+string(platform))
	outcome := Outcome{Plugin: p.Name, Duration: r.now().Sub(start)}

	if err == nil {
		outcome.Status = OutcomeSuccess
		log.Debug("plugin finished", zap.Duration("duration", outcome.Duration))
		return outcome
	}

	merr := kerrors.Mutation(p.Name, string(platform), err)
	var perr *kerrors.PanicError
	if errors.As(err, &perr) {
		merr.StackTrace = perr.StackTrace
	}
	outcome.Status = OutcomeFailed
	outcome.Err = merr
	log.Error("plugin failed", zap.Duration("duration", outcome.Duration), zap.Error(err))
	return outcome
}

// call runs fn, converting a panic into a *PanicError.
func call(ctx context.Context, fn MutateFunc, cfg *config.Config, tree *project.Tree, op string) (err error) {
	defer kerrors.Recover("plugin "+op, &err)
	return fn(ctx, cfg, tree)
}

func skip(report *Report, rest []Plugin) {
	for _, p := range rest {
		report.Outcomes = append(report.Outcomes, Outcome{Plugin: p.Name, Status: OutcomeSkipped})
	}
}
