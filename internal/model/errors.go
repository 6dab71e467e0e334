package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")

	// Input errors
	ErrInvalidInput = errors.New("invalid input")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Lobby errors
	ErrLobbyNotFound       = errors.New("lobby not found")
	ErrLobbyExists         = errors.New("lobby code already in use")
	ErrLobbyFull           = errors.New("lobby is full")
	ErrAlreadyInLobby      = errors.New("player is already in lobby")
	ErrNotInLobby          = errors.New("player is not in lobby")
	ErrNotHost             = errors.New("only the host can start the game")
	ErrInsufficientPlayers = errors.New("need exactly two players to start")
	ErrGameInProgress      = errors.New("game is in progress")

	// Game errors
	ErrNoGameInProgress = errors.New("no game in progress")
	ErrGameComplete     = errors.New("game is already complete")
	ErrNotPlayerTurn    = errors.New("not this player's turn")
	ErrWrongSymbol      = errors.New("symbol does not belong to this player")
	ErrOutOfRange       = errors.New("coordinates out of range")
	ErrCellOccupied     = errors.New("cell is already occupied")
)

// InvalidInput returns an error classified as invalid input with a specific message
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ErrorKind is the transport-independent category of a failure
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindNotFound     ErrorKind = "not_found"
	KindForbidden    ErrorKind = "forbidden"
	KindConflict     ErrorKind = "conflict"
	KindInvalidInput ErrorKind = "invalid_input"
	KindInternal     ErrorKind = "internal"
)

// KindOf classifies an error. Anything unrecognised is internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrPlayerNotFound),
		errors.Is(err, ErrLobbyNotFound),
		errors.Is(err, ErrNotInLobby):
		return KindNotFound
	case errors.Is(err, ErrNotHost),
		errors.Is(err, ErrNotPlayerTurn):
		return KindForbidden
	case errors.Is(err, ErrLobbyFull),
		errors.Is(err, ErrLobbyExists),
		errors.Is(err, ErrAlreadyInLobby),
		errors.Is(err, ErrInsufficientPlayers),
		errors.Is(err, ErrGameInProgress),
		errors.Is(err, ErrNoGameInProgress),
		errors.Is(err, ErrGameComplete),
		errors.Is(err, ErrCellOccupied):
		return KindConflict
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrWrongSymbol),
		errors.Is(err, ErrOutOfRange):
		return KindInvalidInput
	default:
		return KindInternal
	}
}
