package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

type eventsOptions struct {
	poll     bool
	since    int64
	interval time.Duration
	count    int
	json     bool
}

func newEventsCmd() *cobra.Command {
	var opts eventsOptions

	cmd := &cobra.Command{
		Use:   "events <code>",
		Short: "Follow events from a lobby",
		Long: `Follow a lobby's events as they happen.

By default the command holds a WebSocket open; with --poll it asks the
updates endpoint repeatedly instead. Events include:
  - lobby_state: Snapshot sent when the WebSocket subscribes
  - player_joined: A player took a seat
  - player_left: A player left; a running game is abandoned
  - game_started: A new game began
  - game_update: A move was applied
  - game_ended: A move won the game
  - lobby_closed: The lobby expired and was removed

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if opts.poll {
				return pollEvents(ctx, cmd.OutOrStdout(), args[0], opts)
			}
			return streamEvents(ctx, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.poll, "poll", false, "Poll the updates endpoint instead of using a WebSocket")
	cmd.Flags().Int64Var(&opts.since, "since", 0, "Poll only: start after this event timestamp (unix ms)")
	cmd.Flags().DurationVar(&opts.interval, "interval", time.Second, "Poll only: time between requests")
	cmd.Flags().IntVar(&opts.count, "count", 0, "Stop after this many events (0 follows forever)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output events as JSON lines")

	return cmd
}

// streamEvents subscribes to the lobby over a WebSocket
func streamEvents(ctx context.Context, w io.Writer, lobbyCode string, opts eventsOptions) error {
	wsURL, err := client.SocketURL("/api/v1/ws", url.Values{"lobby": {lobbyCode}})
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			defer func() { _ = resp.Body.Close() }()
			var errResp ErrorResponse
			if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error.Code != "" {
				return fmt.Errorf("%s", errResp.Error.String())
			}
			return fmt.Errorf("connection failed: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock the read loop on interrupt
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if !opts.json {
		fmt.Fprintf(w, "Connected to lobby %s\n", lobbyCode)
	}

	seen := 0
	for opts.count == 0 || seen < opts.count {
		var event EventEnvelope
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			return fmt.Errorf("stream error: %w", err)
		}
		printEvent(w, event, opts.json)
		seen++
	}

	if !opts.json {
		fmt.Fprintln(w, "Disconnected")
	}
	return nil
}

// pollEvents asks the updates endpoint for new events until interrupted
func pollEvents(ctx context.Context, w io.Writer, lobbyCode string, opts eventsOptions) error {
	since := opts.since
	seen := 0
	if opts.interval <= 0 {
		opts.interval = time.Second
	}

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	for {
		var result struct {
			Events        []EventEnvelope `json:"events"`
			LastTimestamp int64           `json:"lastTimestamp"`
		}
		path := fmt.Sprintf("%s?since=%d", lobbyPath(lobbyCode, "/updates"), since)
		if err := client.Get(path, &result); err != nil {
			return err
		}

		for _, event := range result.Events {
			printEvent(w, event, opts.json)
			seen++
			if opts.count > 0 && seen >= opts.count {
				return nil
			}
		}
		since = result.LastTimestamp

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printEvent(w io.Writer, event EventEnvelope, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.Marshal(event)
		fmt.Fprintln(w, string(data))
		return
	}

	timestamp := time.UnixMilli(event.Timestamp).Format("2006-01-02 15:04:05")
	// Truncate data if it's too long for display
	displayData := string(event.Data)
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, event.Type, displayData)
}
