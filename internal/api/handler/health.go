package handler

import (
	"net/http"
	"time"

	"github.com/mcoot/tictactoe3d/internal/api/response"
	"github.com/mcoot/tictactoe3d/internal/dependencies/clock"
)

// HealthHandler answers liveness probes
type HealthHandler struct {
	clock   clock.Clock
	started time.Time
}

// NewHealthHandler creates a health handler; uptime counts from now
func NewHealthHandler(clock clock.Clock) *HealthHandler {
	return &HealthHandler{
		clock:   clock,
		started: clock.Now(),
	}
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{
		Status:    "OK",
		Message:   "3D Tic-Tac-Toe backend is running",
		Uptime:    h.clock.Since(h.started).Seconds(),
		Timestamp: h.clock.Now().UTC(),
	})
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{
		Status:    "healthy",
		Uptime:    h.clock.Since(h.started).Seconds(),
		Timestamp: h.clock.Now().UTC(),
	})
}
