package handler

import (
	"net/http"
	"strings"

	"github.com/mcoot/tictactoe3d/internal/api/apierr"
	"github.com/mcoot/tictactoe3d/internal/api/middleware"
	"github.com/mcoot/tictactoe3d/internal/api/request"
	"github.com/mcoot/tictactoe3d/internal/api/response"
	"github.com/mcoot/tictactoe3d/internal/services/auth"
)

// AuthHandler handles authentication and identity endpoints
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Authenticate handles POST /api/v1/auth
func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req request.AuthRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if strings.TrimSpace(req.InitData) == "" {
		WriteError(w, apierr.NewInvalidRequestError("initData is required"))
		return
	}

	session, err := h.authService.Authenticate(r.Context(), req.InitData)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := middleware.GetSession(r.Context()); session != nil {
		h.authService.InvalidateSession(session.Token)
	}
	response.NoContent(w)
}

// GetMe handles GET /api/v1/players/me
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}
