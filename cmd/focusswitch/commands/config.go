package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bryanchriswhite/FocusSwitch/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change the config file",
	Long: `Inspect or change the persisted FocusSwitch settings.

Command-line flags and FOCUSSWITCH_* environment variables override the file
at runtime but are never written back by these commands.`,
}

var (
	configFormat string

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Example: `  focusswitch config show
  focusswitch config show -f json`,
		RunE: withManager(func(m *config.Manager, args []string) error {
			return writeConfig(os.Stdout, configFormat, m.Get())
		}),
	}

	configSetCmd = &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Validate and persist one setting",
		Long: `Validate and persist one setting.

Keys: server_port, log_level, log_pretty, backend, poll_interval,
skip_untitled, exclude_classes (comma separated), mcp.transport, mcp.port`,
		Example: `  focusswitch config set backend kwin
  focusswitch config set poll_interval 250ms
  focusswitch config set exclude_classes '^plasmashell$,^krunner$'`,
		Args: cobra.ExactArgs(2),
		RunE: withManager(func(m *config.Manager, args []string) error {
			if err := setConfigValue(m, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("%s = %s\n", args[0], args[1])
			return nil
		}),
	}

	configGetCmd = &cobra.Command{
		Use:     "get KEY",
		Short:   "Print one setting",
		Example: `  focusswitch config get mcp.transport`,
		Args:    cobra.ExactArgs(1),
		RunE: withManager(func(m *config.Manager, args []string) error {
			if !m.IsSet(args[0]) {
				return fmt.Errorf("configuration key not found: %s", args[0])
			}
			fmt.Println(m.Lookup(args[0]))
			return nil
		}),
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: withManager(func(m *config.Manager, args []string) error {
			fmt.Println(m.GetConfigPath())
			return nil
		}),
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd, configGetCmd, configPathCmd)

	configShowCmd.Flags().StringVarP(&configFormat, "format", "f", "yaml", "output format (yaml or json)")
}

// withManager opens the config file without applying flag overrides.
func withManager(fn func(m *config.Manager, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		m, err := config.NewManager(GetConfigFile())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return fn(m, args)
	}
}

func writeConfig(out io.Writer, format string, cfg *config.Config) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(cfg)
	default:
		return fmt.Errorf("unsupported format: %s (use 'yaml' or 'json')", format)
	}
}

// setConfigValue parses raw for key, validates the result and saves it.
func setConfigValue(m *config.Manager, key, raw string) error {
	value, err := config.ParseValue(key, raw)
	if err != nil {
		return err
	}

	m.Set(key, value)
	if err := m.Get().Validate(); err != nil {
		return err
	}

	if err := m.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
