// Package mcptools exposes the switcher as MCP tools so agents can inspect
// and move the window selection.
package mcptools

import (
	"context"
	"fmt"
	"math"

	"github.com/bryanchriswhite/FocusSwitch/internal/logger"
	"github.com/bryanchriswhite/FocusSwitch/internal/switcher"
	"github.com/bryanchriswhite/FocusSwitch/internal/window"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
}

// Server wraps the MCP server around a switcher.
type Server struct {
	switcher *switcher.Switcher
	mcp      *mcpserver.MCPServer
	log      *zerolog.Logger
}

// Selection is the YAML shape returned by the selection tools.
type Selection struct {
	Index  uint         `yaml:"index" json:"index"`
	Count  int          `yaml:"count" json:"count"`
	Window *window.Info `yaml:"window,omitempty" json:"window,omitempty"`
}

// New creates an MCP server with all switcher tools registered.
func New(sw *switcher.Switcher, version string) *Server {
	s := &Server{
		switcher: sw,
		log:      logger.WithComponent("mcp"),
	}
	s.mcp = mcpserver.NewMCPServer("focusswitch", version)
	s.registerTools()
	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

// Serve starts the MCP server with the configured transport.
func (s *Server) Serve(cfg Config) error {
	s.log.Info().Str("transport", cfg.Transport).Int("port", cfg.Port).Msg("Starting MCP server")
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("list_windows",
			mcp.WithDescription("List the windows the switcher cycles through, in order"),
		),
		s.handleListWindows,
	)

	s.mcp.AddTool(
		mcp.NewTool("get_selection",
			mcp.WithDescription("Get the current selection index and the selected window"),
		),
		s.handleGetSelection,
	)

	s.mcp.AddTool(
		mcp.NewTool("select_window",
			mcp.WithDescription("Select the window at an index. Out of range indexes select the last window."),
			mcp.WithNumber("index", mcp.Description("Zero-based window index"), mcp.Required()),
		),
		s.handleSelectWindow,
	)

	s.mcp.AddTool(
		mcp.NewTool("select_by_title",
			mcp.WithDescription("Select the window whose title or class best matches a query. Substring matches win, otherwise the closest spelling is used."),
			mcp.WithString("query", mcp.Description("Title or class to look for, e.g. 'firefox'"), mcp.Required()),
		),
		s.handleSelectByTitle,
	)

	s.mcp.AddTool(
		mcp.NewTool("next_window",
			mcp.WithDescription("Move the selection to the next window, wrapping at the end"),
		),
		s.handleNextWindow,
	)

	s.mcp.AddTool(
		mcp.NewTool("previous_window",
			mcp.WithDescription("Move the selection to the previous window, wrapping at the start"),
		),
		s.handlePreviousWindow,
	)
}

func (s *Server) handleListWindows(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return yamlResult(s.switcher.Windows())
}

func (s *Server) handleGetSelection(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return yamlResult(s.selection())
}

func (s *Server) handleSelectWindow(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	index, err := intParam(params, "index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if index < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("index must not be negative, got %d", index)), nil
	}
	if s.switcher.Len() == 0 {
		return mcp.NewToolResultError("no windows to select"), nil
	}

	s.switcher.SetIndex(uint(index))
	return yamlResult(s.selection())
}

func (s *Server) handleSelectByTitle(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	query, _ := params["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	if _, ok := s.switcher.SelectMatching(query); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no window matches %q", query)), nil
	}
	return yamlResult(s.selection())
}

func (s *Server) handleNextWindow(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.switcher.Next()
	return yamlResult(s.selection())
}

func (s *Server) handlePreviousWindow(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.switcher.Previous()
	return yamlResult(s.selection())
}

func (s *Server) selection() Selection {
	windows, index := s.switcher.State()
	sel := Selection{
		Index: index,
		Count: len(windows),
	}
	if len(windows) > 0 {
		w := windows[index]
		sel.Window = &w
	}
	return sel
}

func yamlResult(v interface{}) (*mcp.CallToolResult, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// intParam reads a whole number argument. JSON numbers arrive as float64,
// so fractional values and values outside the int32 range are rejected
// rather than truncated.
func intParam(params map[string]interface{}, key string) (int, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}

	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		f = n
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%s must be a whole number, got %v", key, v)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%s is out of range, got %v", key, v)
	}
	return int(f), nil
}
