package request

import (
	"strings"

	"github.com/mcoot/tictactoe3d/internal/model"
)

// AuthRequest is the request body for authenticating with Telegram init data
type AuthRequest struct {
	InitData string `json:"initData"`
}

// CreateLobbyRequest is the request body for creating a lobby.
// The mini-app sends lobbyName; name is accepted as well.
type CreateLobbyRequest struct {
	Name      string `json:"name,omitempty"`
	LobbyName string `json:"lobbyName,omitempty"`
}

// LobbyNameOrDefault returns whichever name field was set
func (r CreateLobbyRequest) LobbyNameOrDefault() string {
	if r.LobbyName != "" {
		return r.LobbyName
	}
	return r.Name
}

// JoinLobbyRequest is the request body for joining a lobby by id in the body
type JoinLobbyRequest struct {
	LobbyID string `json:"lobbyId"`
}

// MoveRequest is the request body for submitting a move.
// Coordinates are pointers so a missing field is distinguishable from zero.
type MoveRequest struct {
	X      *int   `json:"x"`
	Y      *int   `json:"y"`
	Z      *int   `json:"z"`
	Symbol string `json:"symbol"`
}

// ToMove validates the request shape and converts it to a model.Move.
// Range checks are left to the game rules so they report OutOfRange.
func (r MoveRequest) ToMove() (model.Move, error) {
	if r.X == nil || r.Y == nil || r.Z == nil {
		return model.Move{}, model.InvalidInput("x, y and z are required")
	}
	symbol := model.Symbol(strings.ToUpper(strings.TrimSpace(r.Symbol)))
	if !symbol.Valid() {
		return model.Move{}, model.InvalidInput("symbol must be X or O")
	}
	return model.Move{X: *r.X, Y: *r.Y, Z: *r.Z, Symbol: symbol}, nil
}

// ParseLobbyCode normalises a lobby code supplied by a client
func ParseLobbyCode(raw string) (model.LobbyCode, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return "", model.InvalidInput("lobbyId is required")
	}
	return model.LobbyCode(code), nil
}
