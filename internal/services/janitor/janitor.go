// Package janitor periodically removes lobbies, events and connections
// that nobody needs any more.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/tictactoe3d/internal/dependencies/clock"
	"github.com/mcoot/tictactoe3d/internal/model"
)

// LobbyReaper is the part of the lobby registry the janitor drives
type LobbyReaper interface {
	AllLobbies(ctx context.Context) ([]*model.Lobby, error)
	LobbyExists(ctx context.Context, code model.LobbyCode) (bool, error)
	ReapLobby(ctx context.Context, code model.LobbyCode, cutoff time.Time) (bool, error)
}

// EventBuffer is the poll transport's event history
type EventBuffer interface {
	Trim(cutoff time.Time) int
	Remove(code model.LobbyCode)
	Codes() []model.LobbyCode
}

// HubRegistry is the push transport's set of per-lobby hubs
type HubRegistry interface {
	HubCodes() []model.LobbyCode
	RemoveHub(code model.LobbyCode) bool
	CleanupEmptyHubs() int
}

// SessionCleaner drops expired auth sessions
type SessionCleaner interface {
	CleanExpiredSessions() int
}

// Config holds janitor timings
type Config struct {
	Period   time.Duration // Time between sweeps
	LobbyTTL time.Duration // Lobbies created longer ago than this are deleted
	EventTTL time.Duration // Buffered events older than this are dropped
}

// DefaultConfig returns default janitor timings
func DefaultConfig() Config {
	return Config{
		Period:   time.Minute,
		LobbyTTL: time.Hour,
		EventTTL: 10 * time.Minute,
	}
}

// Janitor sweeps stale state. Event buffers, hubs and sessions are optional.
type Janitor struct {
	lobbies  LobbyReaper
	events   EventBuffer
	hubs     HubRegistry
	sessions SessionCleaner
	clock    clock.Clock
	logger   *slog.Logger
	cfg      Config
}

// SweepResult counts what a sweep removed
type SweepResult struct {
	LobbiesReaped   int
	EventsTrimmed   int
	BuffersRemoved  int
	HubsRemoved     int
	SessionsExpired int
}

// Empty reports whether the sweep removed nothing
func (r SweepResult) Empty() bool {
	return r == SweepResult{}
}

// New creates a Janitor. Any of events, hubs and sessions may be nil.
func New(
	lobbies LobbyReaper,
	events EventBuffer,
	hubs HubRegistry,
	sessions SessionCleaner,
	clock clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Janitor {
	def := DefaultConfig()
	if cfg.Period <= 0 {
		cfg.Period = def.Period
	}
	if cfg.LobbyTTL <= 0 {
		cfg.LobbyTTL = def.LobbyTTL
	}
	if cfg.EventTTL <= 0 {
		cfg.EventTTL = def.EventTTL
	}
	return &Janitor{
		lobbies:  lobbies,
		events:   events,
		hubs:     hubs,
		sessions: sessions,
		clock:    clock,
		logger:   logger.With(slog.String("component", "janitor")),
		cfg:      cfg,
	}
}

// Run sweeps every Period until ctx is cancelled
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.Period)
	defer ticker.Stop()

	j.logger.Info("janitor started", slog.Duration("period", j.cfg.Period))
	for {
		select {
		case <-ticker.C:
			j.Sweep(ctx)
		case <-ctx.Done():
			j.logger.Info("janitor stopped")
			return
		}
	}
}

// Sweep performs one cleanup pass. Each lobby is reaped under its own lock,
// so a sweep never stalls the whole registry.
func (j *Janitor) Sweep(ctx context.Context) SweepResult {
	var result SweepResult
	now := j.clock.Now()

	lobbies, err := j.lobbies.AllLobbies(ctx)
	if err != nil {
		j.logger.Error("failed to list lobbies", slog.String("error", err.Error()))
	}
	cutoff := now.Add(-j.cfg.LobbyTTL)
	for _, lobby := range lobbies {
		if !lobby.IsEmpty() && !lobby.CreatedAt.Before(cutoff) {
			continue
		}
		reaped, err := j.lobbies.ReapLobby(ctx, lobby.Code, cutoff)
		if err != nil {
			j.logger.Error("failed to reap lobby",
				slog.String("lobby_code", string(lobby.Code)),
				slog.String("error", err.Error()))
			continue
		}
		if reaped {
			result.LobbiesReaped++
		}
	}

	if j.events != nil {
		result.EventsTrimmed = j.events.Trim(now.Add(-j.cfg.EventTTL))
		for _, code := range j.events.Codes() {
			if !j.exists(ctx, code) {
				j.events.Remove(code)
				result.BuffersRemoved++
			}
		}
	}

	if j.hubs != nil {
		for _, code := range j.hubs.HubCodes() {
			if !j.exists(ctx, code) && j.hubs.RemoveHub(code) {
				result.HubsRemoved++
			}
		}
		result.HubsRemoved += j.hubs.CleanupEmptyHubs()
	}

	if j.sessions != nil {
		result.SessionsExpired = j.sessions.CleanExpiredSessions()
	}

	if !result.Empty() {
		j.logger.Info("sweep completed",
			slog.Int("lobbies_reaped", result.LobbiesReaped),
			slog.Int("events_trimmed", result.EventsTrimmed),
			slog.Int("buffers_removed", result.BuffersRemoved),
			slog.Int("hubs_removed", result.HubsRemoved),
			slog.Int("sessions_expired", result.SessionsExpired),
		)
	}
	return result
}

// exists reports whether a lobby is still registered. Lookup failures count
// as existing so transient storage errors never drop live state.
func (j *Janitor) exists(ctx context.Context, code model.LobbyCode) bool {
	ok, err := j.lobbies.LobbyExists(ctx, code)
	if err != nil {
		j.logger.Warn("failed to check lobby",
			slog.String("lobby_code", string(code)),
			slog.String("error", err.Error()))
		return true
	}
	return ok
}
