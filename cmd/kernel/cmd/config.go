package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	RegisterCommand(newConfigCmd)
}

func newConfigCmd() *cobra.Command {
	var (
		env     string
		plugins []string
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Long: `Validate the environment file, merge every plugin's fragment into it, and
print the result as YAML. Nothing is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProject(env)
			if err != nil {
				return err
			}
			base, err := cfg.LoadBase()
			if err != nil {
				return err
			}
			registry, err := loadRegistry(cfg, plugins)
			if err != nil {
				return err
			}
			resolved, err := registry.Resolve(base)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(resolved); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVarP(&env, "env", "e", "", "environment name (default: kernel.yaml env or prod)")
	cmd.Flags().StringSliceVar(&plugins, "plugins", nil, "plugins whose fragments are merged (default: kernel.yaml plugins or all)")
	return cmd
}
