package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/tictactoe3d/internal/api/apierr"
	"github.com/mcoot/tictactoe3d/internal/middleware"
)

// Recovery creates panic recovery middleware for the API
// Returns JSON error responses on panic
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}

// Logging creates access log middleware for the API
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}

// CORS creates the permissive CORS middleware the mini-app needs
func CORS() func(http.Handler) http.Handler {
	return middleware.CORS()
}
