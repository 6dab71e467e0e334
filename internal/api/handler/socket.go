package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mcoot/tictactoe3d/internal/api/middleware"
	"github.com/mcoot/tictactoe3d/internal/api/request"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/services/lobby"
	"github.com/mcoot/tictactoe3d/internal/transport/push"
)

// SocketHandler serves the WebSocket push channel and acts on its frames
type SocketHandler struct {
	lobbyController *lobby.Controller
	hubs            *push.HubManager
	logger          *slog.Logger
}

// Ensure SocketHandler implements FrameHandler
var _ push.FrameHandler = (*SocketHandler)(nil)

// NewSocketHandler creates a new socket handler
func NewSocketHandler(lobbyController *lobby.Controller, hubs *push.HubManager, logger *slog.Logger) *SocketHandler {
	return &SocketHandler{
		lobbyController: lobbyController,
		hubs:            hubs,
		logger:          logger.With(slog.String("component", "socket")),
	}
}

// Serve handles GET /api/v1/ws[?lobby=<code>]. When a lobby is named, the
// connection subscribes to it straight away.
func (h *SocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var initial model.LobbyCode
	if raw := r.URL.Query().Get("lobby"); raw != "" {
		code, err := request.ParseLobbyCode(raw)
		if err != nil {
			WriteError(w, err)
			return
		}
		if err := h.lobbyController.CheckMember(r.Context(), code, player.ID); err != nil {
			WriteError(w, err)
			return
		}
		initial = code
	}

	var frames push.FrameHandler = h
	if initial != "" {
		frames = &initialSubscription{SocketHandler: h, code: initial}
	}

	if err := h.hubs.Serve(w, r, player.ID, frames); err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("player_id", string(player.ID)),
			slog.String("error", err.Error()))
	}
}

// HandleFrame dispatches one validated frame from a client
func (h *SocketHandler) HandleFrame(ctx context.Context, c *push.Client, frame request.Frame) {
	switch frame.Type {
	case request.FramePing:
		c.Send(model.NewEvent(c.Lobby(), model.PongPayload{}))

	case request.FrameSubscribe:
		h.subscribe(ctx, c, frame.LobbyCode)

	case request.FrameMakeMove:
		event, err := h.lobbyController.ApplyMove(ctx, c.PlayerID(), frame.LobbyCode, frame.Move)
		if err != nil {
			c.SendError(frame.LobbyCode, err)
			return
		}
		// A mover who never subscribed still learns the outcome
		if c.Lobby() != frame.LobbyCode {
			h.hubs.Subscribe(c, frame.LobbyCode)
			c.Send(event)
		}

	case request.FrameLeave:
		if _, err := h.lobbyController.LeaveLobby(ctx, c.PlayerID(), frame.LobbyCode); err != nil {
			c.SendError(frame.LobbyCode, err)
			return
		}
		h.hubs.Unsubscribe(c, frame.LobbyCode)
	}
}

// subscribe follows a lobby the player belongs to and sends its current state
func (h *SocketHandler) subscribe(ctx context.Context, c *push.Client, code model.LobbyCode) {
	if err := h.lobbyController.CheckMember(ctx, code, c.PlayerID()); err != nil {
		c.SendError(code, err)
		return
	}
	h.hubs.Subscribe(c, code)

	l, err := h.lobbyController.GetLobby(ctx, code)
	if err != nil {
		c.SendError(code, err)
		return
	}
	c.Send(model.NewEvent(code, model.LobbyStatePayload{Lobby: *l}))
}

// initialSubscription subscribes a connection to the lobby named in its URL
type initialSubscription struct {
	*SocketHandler
	code model.LobbyCode
}

// HandleOpen implements push.OpenHandler
func (s *initialSubscription) HandleOpen(ctx context.Context, c *push.Client) {
	s.subscribe(ctx, c, s.code)
}
