package storage

import (
	"context"

	"github.com/mcoot/tictactoe3d/internal/model"
)

// Storage defines the interface for data persistence. Implementations hand
// out copies, so a value returned by a getter is a snapshot the caller owns.
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)

	// Lobby operations

	// CreateLobby inserts a lobby only if its code is unused, returning
	// model.ErrLobbyExists otherwise.
	CreateLobby(ctx context.Context, lobby *model.Lobby) error
	// SaveLobby replaces an existing lobby, returning model.ErrLobbyNotFound
	// if it has been deleted.
	SaveLobby(ctx context.Context, lobby *model.Lobby) error
	GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error)
	DeleteLobby(ctx context.Context, code model.LobbyCode) error
	LobbyExists(ctx context.Context, code model.LobbyCode) (bool, error)
	ListLobbies(ctx context.Context) ([]*model.Lobby, error)
}
