package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tictactoe3d/internal/api/handler"
	"github.com/mcoot/tictactoe3d/internal/api/middleware"
	"github.com/mcoot/tictactoe3d/internal/dependencies/clock"
	"github.com/mcoot/tictactoe3d/internal/services/auth"
	"github.com/mcoot/tictactoe3d/internal/services/lobby"
	"github.com/mcoot/tictactoe3d/internal/transport/poll"
	"github.com/mcoot/tictactoe3d/internal/transport/push"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	Clock           clock.Clock
	AuthService     *auth.Service
	LobbyController *lobby.Controller
	// Events is the poll buffer; nil disables the updates route
	Events *poll.Buffer
	// Hubs is the push transport; nil disables the WebSocket route
	Hubs *push.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	lobbyHandler := handler.NewLobbyHandler(cfg.LobbyController)
	gameHandler := handler.NewGameHandler(cfg.LobbyController, cfg.Events)
	healthHandler := handler.NewHealthHandler(cfg.Clock)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// Liveness at the root, as the mini-app's hosting expects
	r.HandleFunc("/", healthHandler.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(handler.NotFound)
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/auth", authHandler.Authenticate).Methods(http.MethodPost)

	// Everything below requires a session or init data
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)

	protected.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/players/me", authHandler.GetMe).Methods(http.MethodGet)

	// Lobby routes
	protected.HandleFunc("/lobbies", lobbyHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/lobbies", lobbyHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/lobbies/join", lobbyHandler.JoinByID).Methods(http.MethodPost)
	protected.HandleFunc("/lobbies/{code}", lobbyHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/lobbies/{code}/join", lobbyHandler.Join).Methods(http.MethodPost)
	protected.HandleFunc("/lobbies/{code}/leave", lobbyHandler.Leave).Methods(http.MethodPost)
	protected.HandleFunc("/lobbies/{code}/start", lobbyHandler.Start).Methods(http.MethodPost)

	// Game routes
	protected.HandleFunc("/lobbies/{code}/moves", gameHandler.Move).Methods(http.MethodPost)

	// Delivery routes exist only for the enabled transports
	if cfg.Events != nil {
		protected.HandleFunc("/lobbies/{code}/updates", gameHandler.Updates).Methods(http.MethodGet)
	}
	if cfg.Hubs != nil {
		socketHandler := handler.NewSocketHandler(cfg.LobbyController, cfg.Hubs, cfg.Logger)
		protected.HandleFunc("/ws", socketHandler.Serve).Methods(http.MethodGet)
	}

	return middleware.CORS()(r)
}
