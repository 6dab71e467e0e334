package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/tictactoe3d/internal/api/response"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameShowCmd())
	cmd.AddCommand(newGameMoveCmd())

	return cmd
}

func newGameShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Show the lobby's current game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.LobbyResponse

			if err := client.Get(lobbyPath(args[0], ""), &result); err != nil {
				return err
			}
			if result.Lobby == nil || result.Lobby.Game == nil {
				return fmt.Errorf("no game in lobby %s", args[0])
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(*result.Lobby.Game)
			return nil
		},
	}
}

func newGameMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <code> <x> <y> <z> <symbol>",
		Short: "Place your symbol; coordinates run from -1 to 1",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]

			coords := make([]int, 3)
			for i, axis := range []string{"x", "y", "z"} {
				v, err := strconv.Atoi(args[i+1])
				if err != nil {
					return fmt.Errorf("invalid %s: %w", axis, err)
				}
				coords[i] = v
			}

			symbol := strings.ToUpper(args[4])
			if symbol != "X" && symbol != "O" {
				return fmt.Errorf("symbol must be X or O")
			}

			req := map[string]any{"x": coords[0], "y": coords[1], "z": coords[2], "symbol": symbol}
			var result EventEnvelope

			if err := client.Post(lobbyPath(code, "/moves"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	// Negative coordinates must not be read as shorthand flags
	cmd.Flags().SetInterspersed(false)

	return cmd
}

// EventEnvelope is a lobby event with its data left undecoded
type EventEnvelope struct {
	Type      string          `json:"type"`
	LobbyID   string          `json:"lobbyId,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// game decodes the game carried by game events, if any
func (e EventEnvelope) game() *response.Game {
	var body struct {
		Game *response.Game `json:"game"`
	}
	if err := json.Unmarshal(e.Data, &body); err != nil {
		return nil
	}
	return body.Game
}
