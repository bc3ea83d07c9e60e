package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-drift/kernel/cmd/kernel/internal/workspace"
)

func init() {
	RegisterCommand(newStatusCmd)
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show project status",
		Long: `Show the current status of the kernel project.

Displays the selected environment, the plugins that will run and where each
platform's native project is generated. Managed projects live under
~/.kernel/build/ and are regenerated on every prebuild.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadProject("")
	if err != nil {
		return err
	}
	registry, err := loadRegistry(cfg, nil)
	if err != nil {
		return err
	}
	ws, err := workspace.Open(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Project: %s\n", cfg.Root)

	envState := successColor.Sprint("found")
	if _, err := os.Stat(cfg.EnvFile()); err != nil {
		envState = failColor.Sprint("missing")
	}
	fmt.Fprintf(out, "Env:     %s (%s, %s)\n", cfg.Env, cfg.EnvFile(), envState)

	names := make([]string, 0, registry.Len())
	for _, p := range registry.List() {
		names = append(names, p.Name)
	}
	fmt.Fprintf(out, "Plugins: %v\n", names)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Platforms:")

	kind := "output "
	if ws.Managed {
		kind = "managed"
	}
	for _, p := range cfg.Platforms {
		state := dimColor.Sprint("not generated")
		if ws.Exists(p) {
			state = successColor.Sprint("generated")
		}
		fmt.Fprintf(out, "  %-8s %s -> %s/%s %s\n", p.String()+":", kind, ws.BuildDir, p, state)
	}
	return nil
}
