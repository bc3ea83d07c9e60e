package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-drift/kernel/pkg/plugin"
	"github.com/go-drift/kernel/pkg/plugins"
)

func init() {
	RegisterCommand(newPluginsCmd)
}

func newPluginsCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List plugins in execution order",
		Long: `List the plugins a prebuild runs, in execution order, with the platforms
they support and the configuration namespaces they own.

Outside a project, or with --all, every built-in plugin is listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := plugins.Default()
			if !all {
				if cfg, err := loadProject(""); err == nil {
					registry, err := loadRegistry(cfg, nil)
					if err != nil {
						return err
					}
					list = registry.List()
				}
			}

			out := cmd.OutOrStdout()
			for i, p := range list {
				name := p.Name
				if p.Critical {
					name += " " + failColor.Sprint("(critical)")
				}
				fmt.Fprintf(out, "%d. %s\n", i+1, headerColor.Sprint(name))
				if p.Description != "" {
					fmt.Fprintf(out, "   %s\n", p.Description)
				}
				fmt.Fprintf(out, "   platforms:  %s\n", joinPlatforms(p.Platforms()))
				if ns := namespaceKeys(p); len(ns) > 0 {
					fmt.Fprintf(out, "   namespaces: %s\n", strings.Join(ns, ", "))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every built-in plugin")
	return cmd
}

func joinPlatforms(ps []plugin.Platform) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}

func namespaceKeys(p plugin.Plugin) []string {
	keys := make([]string, len(p.Namespaces))
	for i, ns := range p.Namespaces {
		keys[i] = ns.Key
	}
	return keys
}
