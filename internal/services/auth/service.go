package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/tictactoe3d/internal/dependencies/clock"
	"github.com/mcoot/tictactoe3d/internal/dependencies/random"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/services/identity"
)

// ErrInvalidSession is returned for unknown or expired session tokens
var ErrInvalidSession = fmt.Errorf("%w: invalid or expired session", model.ErrUnauthorized)

// Verifier checks a launch credential and returns the identity it vouches for
type Verifier interface {
	Verify(initData string) (identity.Profile, error)
}

// Session represents an authenticated session. Player is resolved from the
// identity store each time the session is validated.
type Session struct {
	Token     string
	PlayerID  model.PlayerID
	Player    model.Player
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service exchanges verified init data for sessions
type Service struct {
	verifier Verifier
	identity *identity.Store
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth Service
func New(
	verifier Verifier,
	identity *identity.Store,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		verifier:        verifier,
		identity:        identity,
		clock:           clock,
		random:          random,
		logger:          logger,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// Identify verifies init data and refreshes the player's cached profile.
// A failed verification never reaches the identity store.
func (s *Service) Identify(ctx context.Context, initData string) (*model.Player, error) {
	profile, err := s.verifier.Verify(initData)
	if err != nil {
		s.logger.Warn("init data rejected", slog.String("error", err.Error()))
		return nil, err
	}
	return s.identity.Upsert(ctx, profile)
}

// Authenticate verifies init data and opens a session for the player
func (s *Service) Authenticate(ctx context.Context, initData string) (*Session, error) {
	player, err := s.Identify(ctx, initData)
	if err != nil {
		return nil, err
	}

	session := s.createSession(player)
	s.logger.Info("session created",
		slog.String("player_id", string(player.ID)),
	)
	return session, nil
}

// ValidateSession checks if a session token is valid and returns the session
// with the player's current profile
func (s *Service) ValidateSession(ctx context.Context, token string) (*Session, error) {
	s.mu.RLock()
	stored, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(stored.ExpiresAt) {
		s.InvalidateSession(token)
		return nil, ErrInvalidSession
	}

	player, err := s.identity.Get(ctx, stored.PlayerID)
	if errors.Is(err, model.ErrPlayerNotFound) {
		s.InvalidateSession(token)
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}

	session := *stored
	session.Player = *player
	return &session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// GetPlayer returns the current profile of a session's player
func (s *Service) GetPlayer(ctx context.Context, token string) (*model.Player, error) {
	session, err := s.ValidateSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return &session.Player, nil
}

// CleanExpiredSessions removes expired sessions and reports how many went
func (s *Service) CleanExpiredSessions() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// createSession creates a new session for a player. Only the player id is
// kept; the returned copy carries the profile it was opened with.
func (s *Service) createSession(player *model.Player) *Session {
	now := s.clock.Now()
	stored := &Session{
		Token:     "sess_" + s.random.Token(24),
		PlayerID:  player.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[stored.Token] = stored
	s.mu.Unlock()

	session := *stored
	session.Player = *player
	return &session
}
