// Package pipeline runs a prebuild: it resolves the configuration from a base
// tree and the registered plugins' fragments, then applies every plugin to
// each requested platform.
//
// Validation failures (schema, merge conflict) are returned as errors before
// any mutation runs. Once execution starts Prebuild always returns a Result;
// plugin failures are found in its reports.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/go-drift/kernel/pkg/config"
	kerrors "github.com/go-drift/kernel/pkg/errors"
	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/project"
)

// Options configures a prebuild.
type Options struct {
	// Base is the base configuration tree, typically env.<name>.yaml.
	Base map[string]any
	// Config is a configuration already resolved against Registry. When set,
	// Base is ignored and resolution is skipped.
	Config *config.Config
	// Registry holds the plugins in execution order.
	Registry *plugin.Registry
	// Plugins is used to build a registry when Registry is nil.
	Plugins []plugin.Plugin
	// Tree is the pristine generated project.
	Tree *project.Tree
	// Platforms to build. Defaults to every platform.
	Platforms []plugin.Platform
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// RunnerOptions are passed to each platform's runner.
	RunnerOptions []plugin.RunnerOption
}

// Result holds the resolved configuration and one report per platform.
type Result struct {
	Config  *config.Config
	Reports map[plugin.Platform]*plugin.Report
}

// Status returns the worst status across platforms.
func (r *Result) Status() plugin.Status {
	status := plugin.StatusOK
	for _, rep := range r.Reports {
		if rep.Status.Severity() > status.Severity() {
			status = rep.Status
		}
	}
	return status
}

// ExitCode returns the exit code for Status.
func (r *Result) ExitCode() int {
	return r.Status().ExitCode()
}

// Prebuild resolves the configuration and runs every plugin against the
// project tree. Platforms run concurrently; plugins within a platform run
// sequentially in registration order.
func Prebuild(ctx context.Context, opts Options) (*Result, error) {
	const op = "pipeline.Prebuild"

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := opts.Registry
	if registry == nil {
		registry = plugin.NewRegistry()
		for _, p := range opts.Plugins {
			if err := registry.Register(p); err != nil {
				logger.Error("plugin rejected", zap.String("plugin", p.Name), zap.Error(err))
				return nil, err
			}
		}
	}
	if opts.Tree == nil {
		return nil, kerrors.Resource(op, fmt.Errorf("project tree is required"))
	}

	platforms := opts.Platforms
	if len(platforms) == 0 {
		platforms = plugin.Platforms()
	}

	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = registry.Resolve(opts.Base); err != nil {
			logger.Error("configuration rejected", zap.Error(err))
			return nil, err
		}
	}
	logger.Info("configuration resolved",
		zap.Int("plugins", registry.Len()),
		zap.Strings("namespaces", registry.Namespaces().Keys()),
	)

	plugins := registry.List()
	runnerOpts := append([]plugin.RunnerOption{plugin.WithLogger(logger)}, opts.RunnerOptions...)
	runner := plugin.NewRunner(runnerOpts...)

	result := &Result{Config: cfg, Reports: make(map[plugin.Platform]*plugin.Report, len(platforms))}
	var mu sync.Mutex

	// Runs never fail the group; a failing platform must not cancel the
	// other one.
	var g errgroup.Group
	for _, platform := range platforms {
		g.Go(func() error {
			report := runner.Run(ctx, platform, cfg, opts.Tree, plugins)
			mu.Lock()
			result.Reports[platform] = report
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return result, nil
}
