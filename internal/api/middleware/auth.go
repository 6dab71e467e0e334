package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/tictactoe3d/internal/api/apierr"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/services/auth"
)

type contextKey string

const (
	playerContextKey  contextKey = "player"
	sessionContextKey contextKey = "session"
)

// Credential schemes accepted in the Authorization header
const (
	schemeBearer = "Bearer "
	schemeTMA    = "tma "
)

// Auth creates authentication middleware. A request carries either a session
// token ("Bearer <token>") or raw Telegram init data ("tma <initData>"), which is
// verified on every request. Browsers cannot set headers on a WebSocket
// handshake, so a token query parameter is accepted as well.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			header := r.Header.Get("Authorization")

			switch {
			case strings.HasPrefix(header, schemeTMA):
				player, err := authService.Identify(ctx, strings.TrimPrefix(header, schemeTMA))
				if err != nil {
					apierr.WriteError(w, err)
					return
				}
				ctx = context.WithValue(ctx, playerContextKey, player)

			default:
				token := extractToken(r)
				if token == "" {
					apierr.WriteError(w, apierr.NewUnauthorizedError())
					return
				}
				session, err := authService.ValidateSession(ctx, token)
				if err != nil {
					apierr.WriteError(w, err)
					return
				}
				ctx = context.WithValue(ctx, sessionContextKey, session)
				ctx = context.WithValue(ctx, playerContextKey, &session.Player)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, schemeBearer) {
		return strings.TrimPrefix(header, schemeBearer)
	}
	return r.URL.Query().Get("token")
}

// GetPlayer returns the authenticated player from the request context
func GetPlayer(ctx context.Context) *model.Player {
	player, _ := ctx.Value(playerContextKey).(*model.Player)
	return player
}

// GetSession returns the session from the request context, if the request used one
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// MustGetPlayer returns the authenticated player or panics
func MustGetPlayer(ctx context.Context) *model.Player {
	player := GetPlayer(ctx)
	if player == nil {
		panic("no player in context - auth middleware not applied?")
	}
	return player
}
