package response

import (
	"github.com/mcoot/tictactoe3d/internal/model"
)

// Event is the wire form of a lobby event, shared by the push and poll transports
type Event struct {
	Type      string `json:"type"`
	LobbyID   string `json:"lobbyId,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// PlayerJoinedData is the body of a player_joined event
type PlayerJoinedData struct {
	Player      Player `json:"player"`
	PlayerCount int    `json:"playerCount"`
	Status      string `json:"status"`
}

// PlayerLeftData is the body of a player_left event
type PlayerLeftData struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	HostID      string `json:"hostId"`
	PlayerCount int    `json:"playerCount"`
	Status      string `json:"status"`
	Abandoned   bool   `json:"abandoned,omitempty"`
}

// LobbyClosedData is the body of a lobby_closed event
type LobbyClosedData struct {
	Reason string `json:"reason"`
}

// GameStartedData is the body of a game_started event
type GameStartedData struct {
	Game Game `json:"game"`
}

// GameUpdateData is the body of a game_update event
type GameUpdateData struct {
	Game Game `json:"game"`
	Move Move `json:"move"`
}

// GameEndedData is the body of a game_ended event
type GameEndedData struct {
	Winner   string `json:"winner"`
	WinnerID string `json:"winnerId,omitempty"`
	Line     []int  `json:"line,omitempty"`
	Game     Game   `json:"game"`
	Move     Move   `json:"move"`
}

// ErrorData is the body of an error event
type ErrorData struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// LobbyStateData is the body of a lobby_state event
type LobbyStateData struct {
	Lobby Lobby `json:"lobby"`
}

// EventFromModel converts model.Event
func EventFromModel(e model.Event) Event {
	return Event{
		Type:      string(e.Type),
		LobbyID:   string(e.LobbyCode),
		Timestamp: e.Timestamp,
		Data:      payloadData(e.Payload),
	}
}

// EventsFromModel converts a slice of model.Event
func EventsFromModel(events []model.Event) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = EventFromModel(e)
	}
	return out
}

func payloadData(p model.Payload) any {
	switch p := p.(type) {
	case model.PlayerJoinedPayload:
		return PlayerJoinedData{
			Player:      PlayerFromModel(&p.Player),
			PlayerCount: p.PlayerCount,
			Status:      string(p.Status),
		}
	case model.PlayerLeftPayload:
		return PlayerLeftData{
			PlayerID:    string(p.PlayerID),
			DisplayName: p.DisplayName,
			HostID:      string(p.HostID),
			PlayerCount: p.PlayerCount,
			Status:      string(p.Status),
			Abandoned:   p.Abandoned,
		}
	case model.LobbyClosedPayload:
		return LobbyClosedData{Reason: p.Reason}
	case model.GameStartedPayload:
		return GameStartedData{Game: GameFromModel(&p.Game)}
	case model.GameUpdatePayload:
		return GameUpdateData{Game: GameFromModel(&p.Game), Move: MoveFromModel(p.Move)}
	case model.GameEndedPayload:
		return GameEndedData{
			Winner:   string(p.Winner),
			WinnerID: string(p.WinnerID),
			Line:     p.Line,
			Game:     GameFromModel(&p.Game),
			Move:     MoveFromModel(p.Move),
		}
	case model.ErrorPayload:
		return ErrorData{Kind: string(p.Kind), Message: p.Message}
	case model.LobbyStatePayload:
		return LobbyStateData{Lobby: LobbyFromModel(&p.Lobby)}
	case model.PongPayload:
		return struct{}{}
	default:
		return nil
	}
}
