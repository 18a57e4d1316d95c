package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration settings",
		Long: `Inspect portsim configuration settings.

Configuration is loaded from multiple sources with priority:
1. Environment variables (PS_* prefix, plus DATABASE_URL)
2. Config file (portsim.yaml)
3. Default values

Examples:
  portsim config show
  PS_PORT_BERTHS=4 portsim config show`,
	}

	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

// newConfigShowCommand prints the effective configuration as YAML
func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Display the configuration after defaults, config file and environment
have been merged. The database password is never printed.

Example:
  portsim config show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "# portsim configuration")
			fmt.Fprint(out, string(data))
			return nil
		},
	}

	return cmd
}
