package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/go-drift/kernel/cmd/kernel/internal/logging"
	"github.com/go-drift/kernel/cmd/kernel/internal/workspace"
	"github.com/go-drift/kernel/pkg/pipeline"
	"github.com/go-drift/kernel/pkg/project/scaffold"
)

type prebuildOptions struct {
	env        string
	plugins    []string
	diff       bool
	noScaffold bool
}

func init() {
	RegisterCommand(newPrebuildCmd)
}

func newPrebuildCmd() *cobra.Command {
	opts := &prebuildOptions{}
	cmd := &cobra.Command{
		Use:   "prebuild [ios|android|all]",
		Short: "Generate the native projects and apply plugins",
		Long: `Generate the native projects and apply every configured plugin.

The environment file is validated against the schemas of the selected
plugins before anything is written. Plugins then run in order for each
platform; platforms run concurrently.

Exit status is 1 when the configuration is invalid, 2 when some plugins
failed, and 3 when a platform run was aborted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrebuild(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.env, "env", "e", "", "environment name (default: kernel.yaml env or prod)")
	cmd.Flags().StringSliceVar(&opts.plugins, "plugins", nil, "plugins to run, in order (default: kernel.yaml plugins or all)")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "print a diff of every changed file")
	cmd.Flags().BoolVar(&opts.noScaffold, "no-scaffold", false, "apply plugins to the existing native projects instead of regenerating them")
	return cmd
}

func runPrebuild(cmd *cobra.Command, args []string, opts *prebuildOptions) error {
	log := logging.GetLogger()

	cfg, err := loadProject(opts.env)
	if err != nil {
		return err
	}
	platforms, err := parsePlatforms(cfg, args)
	if err != nil {
		return err
	}
	base, err := cfg.LoadBase()
	if err != nil {
		return err
	}
	registry, err := loadRegistry(cfg, opts.plugins)
	if err != nil {
		return err
	}

	// Resolve up front so an invalid configuration never touches the build
	// directory.
	resolved, err := registry.Resolve(base)
	if err != nil {
		return err
	}

	var ws *workspace.Workspace
	if opts.noScaffold {
		ws, err = workspace.Open(cfg)
	} else {
		ws, err = workspace.Prepare(cfg, scaffold.SettingsFrom(resolved), platforms)
	}
	if err != nil {
		return err
	}
	log.Info("workspace ready",
		zap.String("dir", ws.BuildDir),
		zap.String("env", cfg.Env),
		zap.Bool("managed", ws.Managed),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.Prebuild(ctx, pipeline.Options{
		Config:    resolved,
		Registry:  registry,
		Tree:      ws.Tree,
		Platforms: platforms,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printReports(out, res, platforms)
	if opts.diff {
		if err := printDiff(out, ws.Tree); err != nil {
			return err
		}
	}
	printOutput(out, ws)

	if code := res.ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}
