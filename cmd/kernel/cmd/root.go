// Package cmd implements the kernel CLI commands.
//
// The root command carries the global flags and dispatches to subcommands
// (prebuild, plugins, config, status, version).
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/go-drift/kernel/cmd/kernel/internal/cache"
	"github.com/go-drift/kernel/cmd/kernel/internal/logging"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

var (
	logLevel   string
	cacheDir   string
	projectDir string
)

// commands holds the constructors of the registered subcommands. Commands
// are built per execution so flag state never leaks between runs.
var commands []func() *cobra.Command

// RegisterCommand adds a command to the CLI.
func RegisterCommand(newCmd func() *cobra.Command) {
	commands = append(commands, newCmd)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kernel",
		Short: "Kernel - native project configuration for React Native apps",
		Long: `Kernel generates the native iOS and Android projects of a React Native
app and applies every configured plugin to them.

Configuration is read from .kernelrc/env/env.<env>.yaml in the directory
containing kernel.yaml.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cache.SetCacheDir(cacheDir)
			return logging.Initialize(logLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate(fmt.Sprintf("kernel %s (built %s)\n", Version, BuildTime))

	flags := root.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default: $"+logging.LogLevelEnvVar+" or silent)")
	flags.StringVar(&cacheDir, "cache-dir", "", "override cache directory (default: $"+cache.EnvVar+" or ~/.kernel)")
	flags.StringVarP(&projectDir, "dir", "C", "", "project directory (default: nearest parent containing kernel.yaml)")

	for _, newCmd := range commands {
		root.AddCommand(newCmd())
	}
	return root
}

// exitError carries a process exit code. A nil err means the command has
// already reported the failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}

	code := 1
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
		err = ee.err
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("Error:"), err)
	}
	return code
}
