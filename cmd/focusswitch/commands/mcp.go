package commands

import (
	"github.com/bryanchriswhite/FocusSwitch/internal/api"
	"github.com/bryanchriswhite/FocusSwitch/internal/mcptools"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server exposing the switcher as tools",
	Long: `Run the window source and switcher behind a Model Context Protocol server.

Tools:
  list_windows     windows in switcher order
  get_selection    current index and selected window
  select_window    select by index
  select_by_title  select by title or class match
  next_window      move forward, wrapping
  previous_window  move backward, wrapping

Tool results are YAML. The stdio transport keeps stdout for the protocol;
logs go to stderr.`,
	Example: `  # Serve over stdio (for MCP clients that spawn the process)
  focusswitch mcp

  # Serve over streamable HTTP
  focusswitch mcp --transport streamable-http --mcp-port 8081`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "", "MCP transport (stdio or streamable-http)")
	mcpCmd.Flags().Int("mcp-port", 0, "port for the streamable-http transport")

	viper.BindPFlag("mcp.transport", mcpCmd.Flags().Lookup("transport"))
	viper.BindPFlag("mcp.port", mcpCmd.Flags().Lookup("mcp-port"))
}

func runMCP(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	sess, err := startSession(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	server := mcptools.New(sess.switcher, api.Version)
	return server.Serve(mcptools.Config{
		Transport: cfg.MCP.Transport,
		Port:      cfg.MCP.Port,
	})
}
