package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/tictactoe3d/internal/api/apierr"
	"github.com/mcoot/tictactoe3d/internal/api/middleware"
	"github.com/mcoot/tictactoe3d/internal/api/request"
	"github.com/mcoot/tictactoe3d/internal/api/response"
	"github.com/mcoot/tictactoe3d/internal/services/lobby"
	"github.com/mcoot/tictactoe3d/internal/transport/poll"
)

// GameHandler handles moves and event polling. Updates is only routed when
// the poll transport is enabled.
type GameHandler struct {
	lobbyController *lobby.Controller
	events          *poll.Buffer
}

// NewGameHandler creates a new game handler
func NewGameHandler(lobbyController *lobby.Controller, events *poll.Buffer) *GameHandler {
	return &GameHandler{
		lobbyController: lobbyController,
		events:          events,
	}
}

// Move handles POST /api/v1/lobbies/{code}/moves.
// Rejections go only to the mover as the error response.
func (h *GameHandler) Move(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	code, err := lobbyCode(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.MoveRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	move, err := req.ToMove()
	if err != nil {
		WriteError(w, err)
		return
	}

	event, err := h.lobbyController.ApplyMove(r.Context(), player.ID, code, move)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.EventFromModel(event))
}

// Updates handles GET /api/v1/lobbies/{code}/updates?since=<unix ms>
func (h *GameHandler) Updates(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	code, err := lobbyCode(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || since < 0 {
			WriteError(w, apierr.NewInvalidRequestError("since must be a non-negative unix millisecond timestamp"))
			return
		}
	}

	if err := h.lobbyController.CheckMember(r.Context(), code, player.ID); err != nil {
		WriteError(w, err)
		return
	}

	events := h.events.FetchSince(code, since)
	resp := response.UpdatesResponse{Events: response.EventsFromModel(events), LastTimestamp: since}
	if n := len(events); n > 0 {
		resp.LastTimestamp = events[n-1].Timestamp
	}
	response.JSON(w, http.StatusOK, resp)
}
