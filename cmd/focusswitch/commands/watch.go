package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bryanchriswhite/FocusSwitch/internal/feed"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print switcher events as they happen",
	Long: `Run the window source and switcher, printing every event as one JSON
object per line.

Events:
  windows  the window list changed (includes the current index)
  index    the selection moved
  content  a window's title, geometry or other details changed`,
	Example: `  # Stream events to the terminal
  focusswitch watch

  # Only titles of changed windows
  focusswitch watch | jq -r 'select(.type == "content") | .window.title'`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	hub := feed.NewHub()
	events := hub.Subscribe()
	defer hub.Close()

	sess, err := startSession(ctx, cfg, hub)
	if err != nil {
		return err
	}
	defer sess.Close()

	return streamEvents(ctx.Done(), events, os.Stdout)
}

// streamEvents writes events as JSON lines until done is closed or events
// is closed.
func streamEvents(done <-chan struct{}, events <-chan feed.Event, out io.Writer) error {
	encoder := json.NewEncoder(out)
	for {
		select {
		case <-done:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := encoder.Encode(ev); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}
		}
	}
}
