package handler

import (
	"net/http"

	"github.com/mcoot/tictactoe3d/internal/api/middleware"
	"github.com/mcoot/tictactoe3d/internal/api/request"
	"github.com/mcoot/tictactoe3d/internal/api/response"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/services/lobby"
)

// LobbyHandler handles lobby-related endpoints
type LobbyHandler struct {
	lobbyController *lobby.Controller
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(lobbyController *lobby.Controller) *LobbyHandler {
	return &LobbyHandler{
		lobbyController: lobbyController,
	}
}

// List handles GET /api/v1/lobbies
func (h *LobbyHandler) List(w http.ResponseWriter, r *http.Request) {
	lobbies, err := h.lobbyController.ListLobbies(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	summaries := make([]response.LobbySummary, len(lobbies))
	for i, l := range lobbies {
		summaries[i] = response.LobbySummaryFromModel(l)
	}
	response.JSON(w, http.StatusOK, response.LobbyListResponse{Lobbies: summaries})
}

// Create handles POST /api/v1/lobbies
func (h *LobbyHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.CreateLobbyRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	lobby, err := h.lobbyController.CreateLobby(r.Context(), player.ID, req.LobbyNameOrDefault())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CreateLobbyResponse{
		LobbyID: string(lobby.Code),
		Lobby:   response.LobbyFromModel(lobby),
	})
}

// Get handles GET /api/v1/lobbies/{code}
func (h *LobbyHandler) Get(w http.ResponseWriter, r *http.Request) {
	code, err := lobbyCode(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	lobby, err := h.lobbyController.GetLobby(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewLobbyResponse(lobby))
}

// Join handles POST /api/v1/lobbies/{code}/join
func (h *LobbyHandler) Join(w http.ResponseWriter, r *http.Request) {
	code, err := lobbyCode(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.join(w, r, code)
}

// JoinByID handles POST /api/v1/lobbies/join, which names the lobby in the body
func (h *LobbyHandler) JoinByID(w http.ResponseWriter, r *http.Request) {
	var req request.JoinLobbyRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	code, err := request.ParseLobbyCode(req.LobbyID)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.join(w, r, code)
}

func (h *LobbyHandler) join(w http.ResponseWriter, r *http.Request, code model.LobbyCode) {
	player := middleware.MustGetPlayer(r.Context())

	lobby, err := h.lobbyController.JoinLobby(r.Context(), player.ID, code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewLobbyResponse(lobby))
}

// Leave handles POST /api/v1/lobbies/{code}/leave
func (h *LobbyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	code, err := lobbyCode(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	lobby, err := h.lobbyController.LeaveLobby(r.Context(), player.ID, code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewLobbyResponse(lobby))
}

// Start handles POST /api/v1/lobbies/{code}/start
func (h *LobbyHandler) Start(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	code, err := lobbyCode(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	lobby, err := h.lobbyController.StartGame(r.Context(), player.ID, code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.NewLobbyResponse(lobby))
}
