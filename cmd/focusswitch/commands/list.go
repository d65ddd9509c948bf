package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bryanchriswhite/FocusSwitch/internal/window"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List switchable windows",
	Long: `List the windows FocusSwitch would offer, in switcher order.

This command connects to the window backend once, applies the configured
filters and prints the result.`,
	Example: `  # List windows in table format (default)
  focusswitch list

  # List windows in JSON format
  focusswitch list --format json

  # Include windows hidden by skip_untitled and exclude_classes
  focusswitch list --all`,
	RunE: runList,
}

var (
	listFormat string
	listAll    bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table, json or yaml)")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "ignore window filters")
}

func runList(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backend, err := window.NewBackend(cfg.Backend)
	if err != nil {
		return fmt.Errorf("failed to open window backend: %w", err)
	}
	defer backend.Close()

	sourceCfg, err := cfg.SourceConfig()
	if err != nil {
		return err
	}
	if listAll {
		sourceCfg.Filter = nil
	}

	source := window.NewSource(backend, sourceCfg)
	if err := source.Refresh(); err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}

	return writeWindows(os.Stdout, listFormat, source.Snapshot())
}

func writeWindows(out io.Writer, format string, windows []window.Info) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(windows)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(windows)
	case "table":
		return printWindowsTable(out, windows)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table', 'json' or 'yaml')", format)
	}
}

func printWindowsTable(out io.Writer, windows []window.Info) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "#\tID\tCLASS\tPID\tDESKTOP\tTITLE")
	fmt.Fprintln(w, "-\t--\t-----\t---\t-------\t-----")

	for i, win := range windows {
		desktop := "all"
		if win.Desktop >= 0 {
			desktop = fmt.Sprintf("%d", win.Desktop)
		}
		fmt.Fprintf(w, "%d\t0x%x\t%s\t%d\t%s\t%s\n", i, win.ID, win.Class, win.PID, desktop, win.Title)
	}

	return w.Flush()
}
