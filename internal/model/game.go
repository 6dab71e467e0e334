package model

import (
	"slices"
	"time"
)

// Symbol is a mark on the board. The empty symbol is an unoccupied cell.
type Symbol string

const (
	SymbolNone Symbol = ""
	SymbolX    Symbol = "X"
	SymbolO    Symbol = "O"
)

// Valid reports whether the symbol is one a player can place
func (s Symbol) Valid() bool {
	return s == SymbolX || s == SymbolO
}

// Opponent returns the other playable symbol
func (s Symbol) Opponent() Symbol {
	if s == SymbolX {
		return SymbolO
	}
	return SymbolX
}

const (
	// BoardSide is the length of each axis of the cube
	BoardSide = 3
	// CellCount is the number of cells on the board
	CellCount = BoardSide * BoardSide * BoardSide
)

// Board holds the 27 cells of the cube, indexed by (x+1)*9 + (y+1)*3 + (z+1)
type Board [CellCount]Symbol

// Occupied returns the number of non-empty cells
func (b Board) Occupied() int {
	n := 0
	for _, s := range b {
		if s != SymbolNone {
			n++
		}
	}
	return n
}

// Outcome is the result of a game. The zero value means the game is still running.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeX    Outcome = "X"
	OutcomeO    Outcome = "O"
	OutcomeDraw Outcome = "draw"
)

// OutcomeFor converts a winning symbol into an outcome
func OutcomeFor(s Symbol) Outcome {
	return Outcome(s)
}

// Move is a requested placement. Coordinates are each in {-1, 0, 1}.
type Move struct {
	X, Y, Z int
	Symbol  Symbol
}

// MoveRecord is an accepted placement in the game's move log
type MoveRecord struct {
	X, Y, Z  int
	Symbol   Symbol
	PlayerID PlayerID
	PlayedAt time.Time
}

// Participant binds a player to the symbol they play
type Participant struct {
	PlayerID PlayerID
	Symbol   Symbol
}

// GameState is the full state of one game in a lobby
type GameState struct {
	Board           Board
	CurrentPlayerID PlayerID
	Players         []Participant // X first, O second
	Moves           []MoveRecord
	Winner          Outcome
	StartedAt       time.Time
	FinishedAt      *time.Time
}

// IsOver reports whether the game has a result
func (g *GameState) IsOver() bool {
	return g.Winner != OutcomeNone
}

// Participant returns the seat of the given player in this game
func (g *GameState) Participant(id PlayerID) (Participant, bool) {
	for _, p := range g.Players {
		if p.PlayerID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// PlayerFor returns the player holding the given symbol
func (g *GameState) PlayerFor(s Symbol) PlayerID {
	for _, p := range g.Players {
		if p.Symbol == s {
			return p.PlayerID
		}
	}
	return ""
}

// LastMove returns the most recent accepted move, if any
func (g *GameState) LastMove() (MoveRecord, bool) {
	if len(g.Moves) == 0 {
		return MoveRecord{}, false
	}
	return g.Moves[len(g.Moves)-1], true
}

// Clone returns a deep copy of the game state
func (g *GameState) Clone() *GameState {
	if g == nil {
		return nil
	}
	c := *g
	c.Players = slices.Clone(g.Players)
	c.Moves = slices.Clone(g.Moves)
	if g.FinishedAt != nil {
		t := *g.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}
