package commands

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/FocusSwitch/internal/config"
	"github.com/bryanchriswhite/FocusSwitch/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "focusswitch",
		Short: "FocusSwitch - keyboard-style window switching as a service",
		Long: `FocusSwitch tracks the open windows of an X11 or KDE Plasma session and
keeps a selection over them, the way an alt-tab switcher does.

Features:
  • Discover windows via X11 (EWMH) or KWin (D-Bus + kdotool)
  • Keep the selection on the same window as the list changes
  • Cycle forward and backward with wraparound
  • Stream selection and window changes as JSON
  • REST + WebSocket API for integration
  • MCP tools for agents`,
		SilenceUsage: true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/focusswitch/config.yaml)")
	rootCmd.PersistentFlags().Int("port", 0, "server port (default is 8080)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("backend", "", "window backend (auto, x11 or kwin)")

	// Bind flags to viper
	viper.BindPFlag("server_port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// loadConfig reads the config file, applies command-line overrides and
// initializes logging. Overrides are never written back to disk.
func loadConfig() (*config.Manager, *config.Config, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	applyOverrides(configMgr, viper.GetViper())

	cfg := configMgr.Get()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.LogLevel, cfg.LogPretty)
	logger.WithComponent("cli").Debug().
		Str("path", configMgr.GetConfigPath()).
		Str("backend", cfg.Backend).
		Msg("Configuration loaded")

	return configMgr, cfg, nil
}

// applyOverrides copies flag values that were set explicitly onto configMgr.
func applyOverrides(configMgr *config.Manager, flags *viper.Viper) {
	if flags.IsSet("server_port") {
		if port := flags.GetInt("server_port"); port > 0 {
			configMgr.Set("server_port", port)
		}
	}
	if flags.IsSet("log_level") {
		if level := flags.GetString("log_level"); level != "" {
			configMgr.Set("log_level", level)
		}
	}
	if flags.IsSet("backend") {
		if backend := flags.GetString("backend"); backend != "" {
			configMgr.Set("backend", backend)
		}
	}
	if flags.IsSet("mcp.transport") {
		if transport := flags.GetString("mcp.transport"); transport != "" {
			configMgr.Set("mcp.transport", transport)
		}
	}
	if flags.IsSet("mcp.port") {
		if port := flags.GetInt("mcp.port"); port > 0 {
			configMgr.Set("mcp.port", port)
		}
	}
}
