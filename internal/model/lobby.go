package model

import (
	"slices"
	"time"
)

// LobbyCode is the short human-shareable identifier of a lobby
type LobbyCode string

// LobbyStatus represents where a lobby is in its lifecycle
type LobbyStatus string

const (
	LobbyStatusWaiting  LobbyStatus = "waiting"  // Fewer than two players
	LobbyStatusReady    LobbyStatus = "ready"    // Two players, no game started
	LobbyStatusPlaying  LobbyStatus = "playing"  // Game in progress
	LobbyStatusFinished LobbyStatus = "finished" // Game over, result still visible
)

const (
	// MaxPlayers is the lobby capacity
	MaxPlayers = 2

	// DefaultLobbyName is used when a lobby is created without a name
	DefaultLobbyName = "Quantum Lobby"
)

// Lobby is a two-seat room that hosts at most one game at a time
type Lobby struct {
	Code      LobbyCode
	Name      string
	Players   []Player // Join order; at most MaxPlayers
	HostID    PlayerID
	Status    LobbyStatus
	Game      *GameState // nil unless Status is playing or finished
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MemberIndex returns the seat of the given player, or -1 if absent
func (l *Lobby) MemberIndex(id PlayerID) int {
	for i := range l.Players {
		if l.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// IsMember reports whether the player occupies a seat
func (l *Lobby) IsMember(id PlayerID) bool {
	return l.MemberIndex(id) >= 0
}

// IsFull reports whether both seats are taken
func (l *Lobby) IsFull() bool {
	return len(l.Players) >= MaxPlayers
}

// IsEmpty reports whether nobody is seated
func (l *Lobby) IsEmpty() bool {
	return len(l.Players) == 0
}

// Host returns the host player, or nil if the host is no longer seated
func (l *Lobby) Host() *Player {
	if i := l.MemberIndex(l.HostID); i >= 0 {
		return &l.Players[i]
	}
	return nil
}

// Clone returns a deep copy so callers can mutate without affecting shared state
func (l *Lobby) Clone() *Lobby {
	if l == nil {
		return nil
	}
	c := *l
	c.Players = slices.Clone(l.Players)
	c.Game = l.Game.Clone()
	return &c
}
