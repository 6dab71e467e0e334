package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/tictactoe3d/internal/dependencies/clock"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/storage"
)

// Profile is the verified identity handed over by an auth provider
type Profile struct {
	ID           model.PlayerID
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
	PhotoURL     string
}

// DisplayName derives the name shown to other players
func (p Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name != "" {
		return name
	}
	if p.Username != "" {
		return p.Username
	}
	return fmt.Sprintf("Player %s", p.ID)
}

// Store caches player profiles keyed by the auth provider's user id
type Store struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new identity Store
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Store {
	return &Store{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

// Upsert records the latest profile for a player. Profile fields are always
// overwritten; the original creation time is kept.
func (s *Store) Upsert(ctx context.Context, profile Profile) (*model.Player, error) {
	if profile.ID == "" {
		return nil, model.InvalidInput("player id is required")
	}

	now := s.clock.Now()
	player := &model.Player{
		ID:          profile.ID,
		DisplayName: profile.DisplayName(),
		Username:    profile.Username,
		Locale:      profile.LanguageCode,
		PhotoURL:    profile.PhotoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	existing, err := s.storage.GetPlayer(ctx, profile.ID)
	switch {
	case err == nil:
		player.CreatedAt = existing.CreatedAt
	case !errors.Is(err, model.ErrPlayerNotFound):
		return nil, err
	default:
		s.logger.Info("player registered",
			slog.String("player_id", string(profile.ID)),
		)
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// Get returns the cached profile for a player
func (s *Store) Get(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, id)
}
