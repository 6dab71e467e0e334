package response

import (
	"time"

	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/services/auth"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Username    string `json:"username,omitempty"`
	Locale      string `json:"locale,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		Username:    p.Username,
		Locale:      p.Locale,
		PhotoURL:    p.PhotoURL,
	}
}

// AuthResponse is the response for the authentication endpoint
type AuthResponse struct {
	Player       Player    `json:"player"`
	SessionToken string    `json:"sessionToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Participant binds a player id to a symbol
type Participant struct {
	PlayerID string `json:"playerId"`
	Symbol   string `json:"symbol"`
}

// Move is an accepted placement
type Move struct {
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Z        int       `json:"z"`
	Symbol   string    `json:"symbol"`
	PlayerID string    `json:"playerId"`
	PlayedAt time.Time `json:"playedAt"`
}

// MoveFromModel converts model.MoveRecord
func MoveFromModel(m model.MoveRecord) Move {
	return Move{
		X:        m.X,
		Y:        m.Y,
		Z:        m.Z,
		Symbol:   string(m.Symbol),
		PlayerID: string(m.PlayerID),
		PlayedAt: m.PlayedAt,
	}
}

// Game represents a game state. Board cells are "X", "O" or "" in index order.
type Game struct {
	Board           []string      `json:"board"`
	CurrentPlayerID string        `json:"currentPlayerId"`
	Players         []Participant `json:"players"`
	Moves           []Move        `json:"moves"`
	Winner          *string       `json:"winner"`
	StartedAt       time.Time     `json:"startedAt"`
	FinishedAt      *time.Time    `json:"finishedAt,omitempty"`
}

// GameFromModel converts model.GameState
func GameFromModel(g *model.GameState) Game {
	board := make([]string, len(g.Board))
	for i, s := range g.Board {
		board[i] = string(s)
	}

	players := make([]Participant, len(g.Players))
	for i, p := range g.Players {
		players[i] = Participant{PlayerID: string(p.PlayerID), Symbol: string(p.Symbol)}
	}

	moves := make([]Move, len(g.Moves))
	for i, m := range g.Moves {
		moves[i] = MoveFromModel(m)
	}

	var winner *string
	if g.Winner != model.OutcomeNone {
		w := string(g.Winner)
		winner = &w
	}

	return Game{
		Board:           board,
		CurrentPlayerID: string(g.CurrentPlayerID),
		Players:         players,
		Moves:           moves,
		Winner:          winner,
		StartedAt:       g.StartedAt,
		FinishedAt:      g.FinishedAt,
	}
}

// Lobby represents a lobby in API responses
type Lobby struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Players    []Player  `json:"players"`
	HostID     string    `json:"hostId"`
	Status     string    `json:"status"`
	MaxPlayers int       `json:"maxPlayers"`
	Game       *Game     `json:"game"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// LobbyFromModel converts model.Lobby
func LobbyFromModel(l *model.Lobby) Lobby {
	players := make([]Player, len(l.Players))
	for i := range l.Players {
		players[i] = PlayerFromModel(&l.Players[i])
	}

	var game *Game
	if l.Game != nil {
		g := GameFromModel(l.Game)
		game = &g
	}

	return Lobby{
		ID:         string(l.Code),
		Name:       l.Name,
		Players:    players,
		HostID:     string(l.HostID),
		Status:     string(l.Status),
		MaxPlayers: model.MaxPlayers,
		Game:       game,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

// LobbySummary is a joinable lobby as shown in the lobby browser
type LobbySummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Host        string `json:"host"`
}

// LobbySummaryFromModel converts model.Lobby into a browser entry
func LobbySummaryFromModel(l *model.Lobby) LobbySummary {
	host := ""
	if p := l.Host(); p != nil {
		host = p.DisplayName
	}
	return LobbySummary{
		ID:          string(l.Code),
		Name:        l.Name,
		PlayerCount: len(l.Players),
		MaxPlayers:  model.MaxPlayers,
		Host:        host,
	}
}

// LobbyListResponse is the response for listing lobbies
type LobbyListResponse struct {
	Lobbies []LobbySummary `json:"lobbies"`
}

// CreateLobbyResponse is the response for creating a lobby
type CreateLobbyResponse struct {
	LobbyID string `json:"lobbyId"`
	Lobby   Lobby  `json:"lobby"`
}

// UpdatesResponse is the response for polling buffered events
type UpdatesResponse struct {
	Events        []Event `json:"events"`
	LastTimestamp int64   `json:"lastTimestamp"`
}

// HealthResponse is the response for liveness checks
type HealthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Uptime    float64   `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

// LobbyResponse wraps a lobby. Lobby is null when the operation deleted it.
type LobbyResponse struct {
	Lobby *Lobby `json:"lobby"`
}

// NewLobbyResponse converts an optional model.Lobby
func NewLobbyResponse(l *model.Lobby) LobbyResponse {
	if l == nil {
		return LobbyResponse{}
	}
	view := LobbyFromModel(l)
	return LobbyResponse{Lobby: &view}
}
