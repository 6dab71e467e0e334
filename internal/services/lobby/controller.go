package lobby

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mcoot/tictactoe3d/internal/dependencies/clock"
	"github.com/mcoot/tictactoe3d/internal/dependencies/random"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/services/game"
	"github.com/mcoot/tictactoe3d/internal/services/identity"
	"github.com/mcoot/tictactoe3d/internal/transport"
)

const (
	// LobbyCodeLength is the length of generated lobby codes
	LobbyCodeLength = 8
	// LobbyCodeAlphabet is the characters used in lobby codes
	LobbyCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// MaxLobbyNameLength bounds lobby names in runes
	MaxLobbyNameLength = 64
	// maxCodeAttempts bounds retries when a generated code is taken
	maxCodeAttempts = 10
)

// ErrCodeSpaceExhausted is returned when no free lobby code could be found
var ErrCodeSpaceExhausted = errors.New("could not allocate a free lobby code")

// Controller owns the lobby state machine. Every mutation of a lobby, and the
// event it emits, happens while holding that lobby's lock, so subscribers see
// events in the order the mutations were applied.
type Controller struct {
	storage        Storage
	identity       *identity.Store
	gameController *game.Controller
	sink           transport.Sink
	clock          clock.Clock
	random         random.Random
	logger         *slog.Logger
	locks          *lockTable
}

// Storage is the subset of storage.Storage the controller needs
type Storage interface {
	CreateLobby(ctx context.Context, lobby *model.Lobby) error
	SaveLobby(ctx context.Context, lobby *model.Lobby) error
	GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error)
	DeleteLobby(ctx context.Context, code model.LobbyCode) error
	LobbyExists(ctx context.Context, code model.LobbyCode) (bool, error)
	ListLobbies(ctx context.Context) ([]*model.Lobby, error)
}

// NewController creates a new lobby Controller
func NewController(
	storage Storage,
	identity *identity.Store,
	gameController *game.Controller,
	sink transport.Sink,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:        storage,
		identity:       identity,
		gameController: gameController,
		sink:           sink,
		clock:          clock,
		random:         random,
		logger:         logger,
		locks:          newLockTable(),
	}
}

// CreateLobby opens a lobby with the given player seated as host
func (c *Controller) CreateLobby(ctx context.Context, hostID model.PlayerID, name string) (*model.Lobby, error) {
	host, err := c.identity.Get(ctx, hostID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = model.DefaultLobbyName
	}
	if utf8.RuneCountInString(name) > MaxLobbyNameLength {
		return nil, model.InvalidInput("lobby name must be at most %d characters", MaxLobbyNameLength)
	}

	now := c.clock.Now()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		lobby := &model.Lobby{
			Code:      model.LobbyCode(c.random.String(LobbyCodeLength, LobbyCodeAlphabet)),
			Name:      name,
			Players:   []model.Player{*host},
			HostID:    host.ID,
			Status:    model.LobbyStatusWaiting,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err := c.storage.CreateLobby(ctx, lobby)
		if errors.Is(err, model.ErrLobbyExists) {
			continue
		}
		if err != nil {
			return nil, err
		}

		c.logger.Info("lobby created",
			slog.String("lobby_code", string(lobby.Code)),
			slog.String("host_id", string(host.ID)),
		)
		return lobby, nil
	}

	c.logger.Error("lobby code allocation failed", slog.Int("attempts", maxCodeAttempts))
	return nil, fmt.Errorf("%w after %d attempts", ErrCodeSpaceExhausted, maxCodeAttempts)
}

// GetLobby returns a snapshot of a lobby
func (c *Controller) GetLobby(ctx context.Context, code model.LobbyCode) (*model.Lobby, error) {
	return c.load(ctx, code)
}

// load reads a lobby with its seats resolved against the identity store
func (c *Controller) load(ctx context.Context, code model.LobbyCode) (*model.Lobby, error) {
	lobby, err := c.storage.GetLobby(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.withCurrentProfiles(ctx, lobby), nil
}

// withCurrentProfiles replaces each seat with the player's current profile.
// Seats only pin the player id; the identity store owns the rest.
func (c *Controller) withCurrentProfiles(ctx context.Context, lobby *model.Lobby) *model.Lobby {
	for i := range lobby.Players {
		player, err := c.identity.Get(ctx, lobby.Players[i].ID)
		if err != nil {
			c.logger.Warn("seated player profile unavailable",
				slog.String("lobby_code", string(lobby.Code)),
				slog.String("player_id", string(lobby.Players[i].ID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		lobby.Players[i] = *player
	}
	return lobby
}

// CheckMember returns nil if the player is seated in the lobby
func (c *Controller) CheckMember(ctx context.Context, code model.LobbyCode, playerID model.PlayerID) error {
	lobby, err := c.storage.GetLobby(ctx, code)
	if err != nil {
		return err
	}
	if !lobby.IsMember(playerID) {
		return model.ErrNotInLobby
	}
	return nil
}

// ListLobbies returns lobbies with a free seat, oldest first
func (c *Controller) ListLobbies(ctx context.Context) ([]*model.Lobby, error) {
	all, err := c.storage.ListLobbies(ctx)
	if err != nil {
		return nil, err
	}

	open := make([]*model.Lobby, 0, len(all))
	for _, lobby := range all {
		if len(lobby.Players) < model.MaxPlayers {
			open = append(open, c.withCurrentProfiles(ctx, lobby))
		}
	}
	slices.SortFunc(open, func(a, b *model.Lobby) int {
		if byTime := a.CreatedAt.Compare(b.CreatedAt); byTime != 0 {
			return byTime
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return open, nil
}

// JoinLobby seats a player in the lobby
func (c *Controller) JoinLobby(ctx context.Context, playerID model.PlayerID, code model.LobbyCode) (*model.Lobby, error) {
	player, err := c.identity.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	unlock := c.locks.Lock(code)
	defer unlock()

	lobby, err := c.load(ctx, code)
	if err != nil {
		return nil, err
	}
	if lobby.IsFull() {
		return nil, model.ErrLobbyFull
	}
	if lobby.IsMember(playerID) {
		return nil, model.ErrAlreadyInLobby
	}

	lobby.Players = append(lobby.Players, *player)
	if lobby.IsFull() {
		lobby.Status = model.LobbyStatusReady
	}
	lobby.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return nil, err
	}

	c.logger.Info("player joined lobby",
		slog.String("lobby_code", string(code)),
		slog.String("player_id", string(playerID)),
		slog.Int("player_count", len(lobby.Players)),
	)
	c.publish(ctx, code, model.PlayerJoinedPayload{
		Player:      *player,
		PlayerCount: len(lobby.Players),
		Status:      lobby.Status,
	})

	return lobby, nil
}

// LeaveLobby removes a player. The lobby is deleted once empty and returned
// as nil; otherwise the host passes to the remaining player and any game is
// discarded.
func (c *Controller) LeaveLobby(ctx context.Context, playerID model.PlayerID, code model.LobbyCode) (*model.Lobby, error) {
	unlock := c.locks.Lock(code)
	defer unlock()

	lobby, err := c.load(ctx, code)
	if err != nil {
		return nil, err
	}

	idx := lobby.MemberIndex(playerID)
	if idx < 0 {
		return nil, model.ErrNotInLobby
	}
	leaver := lobby.Players[idx]
	lobby.Players = slices.Delete(lobby.Players, idx, idx+1)

	if lobby.IsEmpty() {
		if err := c.storage.DeleteLobby(ctx, code); err != nil {
			return nil, err
		}
		c.logger.Info("lobby deleted",
			slog.String("lobby_code", string(code)),
			slog.String("reason", "empty"),
		)
		c.publish(ctx, code, model.PlayerLeftPayload{
			PlayerID:    leaver.ID,
			DisplayName: leaver.DisplayName,
		})
		return nil, nil
	}

	if lobby.HostID == playerID {
		lobby.HostID = lobby.Players[0].ID
	}
	abandoned := lobby.Status == model.LobbyStatusPlaying
	lobby.Game = nil
	lobby.Status = model.LobbyStatusWaiting
	lobby.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return nil, err
	}

	c.logger.Info("player left lobby",
		slog.String("lobby_code", string(code)),
		slog.String("player_id", string(playerID)),
		slog.Bool("game_abandoned", abandoned),
	)
	c.publish(ctx, code, model.PlayerLeftPayload{
		PlayerID:    leaver.ID,
		DisplayName: leaver.DisplayName,
		HostID:      lobby.HostID,
		PlayerCount: len(lobby.Players),
		Status:      lobby.Status,
		Abandoned:   abandoned,
	})

	return lobby, nil
}

// StartGame begins a game, or a rematch after a finished one
func (c *Controller) StartGame(ctx context.Context, requesterID model.PlayerID, code model.LobbyCode) (*model.Lobby, error) {
	unlock := c.locks.Lock(code)
	defer unlock()

	lobby, err := c.load(ctx, code)
	if err != nil {
		return nil, err
	}
	if lobby.HostID != requesterID {
		return nil, model.ErrNotHost
	}
	if len(lobby.Players) != model.MaxPlayers {
		return nil, model.ErrInsufficientPlayers
	}
	if lobby.Status == model.LobbyStatusPlaying {
		return nil, model.ErrGameInProgress
	}

	g, err := c.gameController.NewGame(lobby.Players)
	if err != nil {
		return nil, err
	}
	lobby.Game = g
	lobby.Status = model.LobbyStatusPlaying
	lobby.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return nil, err
	}

	c.logger.Info("game started",
		slog.String("lobby_code", string(code)),
		slog.String("x_player", string(g.PlayerFor(model.SymbolX))),
		slog.String("o_player", string(g.PlayerFor(model.SymbolO))),
	)
	c.publish(ctx, code, model.GameStartedPayload{Game: *g.Clone()})

	return lobby, nil
}

// ApplyMove plays a move for a seated player and returns the event that was
// broadcast for it. A rejected move changes nothing and broadcasts nothing.
func (c *Controller) ApplyMove(ctx context.Context, playerID model.PlayerID, code model.LobbyCode, move model.Move) (model.Event, error) {
	unlock := c.locks.Lock(code)
	defer unlock()

	lobby, err := c.storage.GetLobby(ctx, code)
	if err != nil {
		return model.Event{}, err
	}
	if !lobby.IsMember(playerID) {
		return model.Event{}, model.ErrNotInLobby
	}
	if lobby.Game == nil {
		return model.Event{}, model.ErrNoGameInProgress
	}

	record, err := c.gameController.ApplyMove(lobby.Game, playerID, move)
	if err != nil {
		c.logger.Debug("move rejected",
			slog.String("lobby_code", string(code)),
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
		return model.Event{}, err
	}

	if lobby.Game.IsOver() {
		lobby.Status = model.LobbyStatusFinished
	}
	lobby.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveLobby(ctx, lobby); err != nil {
		return model.Event{}, err
	}

	event := model.NewEvent(code, moveOutcome(lobby.Game, record))
	c.sink.Publish(ctx, event)
	return event, nil
}

// moveOutcome builds the payload announcing an accepted move
func moveOutcome(g *model.GameState, record model.MoveRecord) model.Payload {
	snapshot := *g.Clone()
	if !g.IsOver() {
		return model.GameUpdatePayload{Game: snapshot, Move: record}
	}

	payload := model.GameEndedPayload{
		Winner: g.Winner,
		Line:   game.WinningLine(g),
		Game:   snapshot,
		Move:   record,
	}
	if g.Winner != model.OutcomeDraw {
		payload.WinnerID = g.PlayerFor(model.Symbol(g.Winner))
	}
	return payload
}

// AllLobbies returns every lobby regardless of status
func (c *Controller) AllLobbies(ctx context.Context) ([]*model.Lobby, error) {
	return c.storage.ListLobbies(ctx)
}

// LobbyExists reports whether the lobby is still registered
func (c *Controller) LobbyExists(ctx context.Context, code model.LobbyCode) (bool, error) {
	return c.storage.LobbyExists(ctx, code)
}

// ReapLobby deletes the lobby if it is empty or was created before cutoff.
// The condition is rechecked under the lobby's lock.
func (c *Controller) ReapLobby(ctx context.Context, code model.LobbyCode, cutoff time.Time) (bool, error) {
	unlock := c.locks.Lock(code)
	defer unlock()

	lobby, err := c.storage.GetLobby(ctx, code)
	if errors.Is(err, model.ErrLobbyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	reason := ""
	switch {
	case lobby.IsEmpty():
		reason = "empty"
	case lobby.CreatedAt.Before(cutoff):
		reason = "expired"
	default:
		return false, nil
	}

	if err := c.storage.DeleteLobby(ctx, code); err != nil {
		return false, err
	}
	c.logger.Info("lobby deleted",
		slog.String("lobby_code", string(code)),
		slog.String("reason", reason),
	)
	c.publish(ctx, code, model.LobbyClosedPayload{Reason: reason})
	return true, nil
}

func (c *Controller) publish(ctx context.Context, code model.LobbyCode, payload model.Payload) {
	c.sink.Publish(ctx, model.NewEvent(code, payload))
}
