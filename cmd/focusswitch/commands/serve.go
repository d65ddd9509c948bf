package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bryanchriswhite/FocusSwitch/internal/api"
	"github.com/bryanchriswhite/FocusSwitch/internal/feed"
	"github.com/bryanchriswhite/FocusSwitch/internal/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the FocusSwitch server",
	Long: `Start the FocusSwitch HTTP server with window monitoring.

The server provides a REST API for reading and moving the selection and a
WebSocket at /api/events that streams every switcher event.`,
	Example: `  # Start server on default port (8080)
  focusswitch serve

  # Start server on custom port
  focusswitch serve --port 9090

  # Start with specific config file
  focusswitch serve --config /path/to/config.yaml

  # Start with debug logging
  focusswitch serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.WithComponent("serve")
	log.Info().Str("path", configMgr.GetConfigPath()).Msg("Configuration loaded")

	ctx, cancel := signalContext()
	defer cancel()

	hub := feed.NewHub()
	defer hub.Close()

	sess, err := startSession(ctx, cfg, hub)
	if err != nil {
		return err
	}
	defer sess.Close()

	server := api.NewServer(sess.switcher, hub)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(cfg.ServerPort)
	}()

	log.Info().
		Int("port", cfg.ServerPort).
		Str("api", fmt.Sprintf("http://localhost:%d/api", cfg.ServerPort)).
		Msg("FocusSwitch is running, press Ctrl+C to stop")

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
