package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mcoot/tictactoe3d/internal/api/response"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/services/board"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	if w == nil {
		w = os.Stdout
	}
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Player:
		o.printPlayer(v)
	case response.AuthResponse:
		o.printAuthResult(v)
	case response.Lobby:
		o.printLobby(v)
	case response.LobbyListResponse:
		o.printLobbyList(v)
	case response.Game:
		o.printGame(v)
	case EventEnvelope:
		o.printEvent(v)
	case response.HealthResponse:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printPlayer(p response.Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.DisplayName, p.ID)
	if p.Username != "" {
		fmt.Fprintf(o.w, "Username: @%s\n", p.Username)
	}
}

func (o *Output) printAuthResult(a response.AuthResponse) {
	o.printPlayer(a.Player)
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
	fmt.Fprintf(o.w, "Expires: %s\n", a.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
}

func (o *Output) printLobby(l response.Lobby) {
	fmt.Fprintf(o.w, "Lobby: %s (%s)\n", l.ID, l.Name)
	fmt.Fprintf(o.w, "Status: %s\n", l.Status)
	fmt.Fprintf(o.w, "Players (%d/%d):\n", len(l.Players), l.MaxPlayers)
	for _, p := range l.Players {
		hostStr := ""
		if p.ID == l.HostID {
			hostStr = " [host]"
		}
		fmt.Fprintf(o.w, "  - %s (%s)%s\n", p.DisplayName, p.ID, hostStr)
	}
	if l.Game != nil {
		fmt.Fprintln(o.w)
		o.printGame(*l.Game)
	}
}

func (o *Output) printLobbyList(list response.LobbyListResponse) {
	if len(list.Lobbies) == 0 {
		fmt.Fprintln(o.w, "No open lobbies")
		return
	}
	for _, l := range list.Lobbies {
		fmt.Fprintf(o.w, "%s  %-24s %d/%d  host: %s\n", l.ID, l.Name, l.PlayerCount, l.MaxPlayers, l.Host)
	}
}

func (o *Output) printGame(g response.Game) {
	for _, p := range g.Players {
		fmt.Fprintf(o.w, "%s: %s\n", p.Symbol, p.PlayerID)
	}
	fmt.Fprintf(o.w, "Moves: %d\n", len(g.Moves))

	o.printBoard(g.Board)

	switch {
	case g.Winner == nil:
		fmt.Fprintf(o.w, "To move: %s\n", g.CurrentPlayerID)
	case *g.Winner == "draw":
		fmt.Fprintln(o.w, "Result: draw")
	default:
		fmt.Fprintf(o.w, "Winner: %s\n", *g.Winner)
	}
}

// printBoard draws one 3x3 grid per x layer, rows by y and columns by z
func (o *Output) printBoard(cells []string) {
	if len(cells) != model.CellCount {
		return
	}

	var sb strings.Builder
	for x := -1; x <= 1; x++ {
		fmt.Fprintf(&sb, "\nx=%-2d  z: -1  0  1\n", x)
		for y := -1; y <= 1; y++ {
			fmt.Fprintf(&sb, "y=%-2d     ", y)
			for z := -1; z <= 1; z++ {
				cell := cells[board.CellIndex(x, y, z)]
				if cell == "" {
					cell = "."
				}
				fmt.Fprintf(&sb, " %s ", cell)
			}
			sb.WriteString("\n")
		}
	}
	fmt.Fprintln(o.w, sb.String())
}

func (o *Output) printEvent(e EventEnvelope) {
	fmt.Fprintf(o.w, "Event: %s\n", e.Type)
	if g := e.game(); g != nil {
		o.printGame(*g)
	}
}

func (o *Output) printHealthResult(h response.HealthResponse) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Uptime: %.0fs\n", h.Uptime)
}
