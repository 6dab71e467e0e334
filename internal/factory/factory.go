package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/tictactoe3d/internal/api"
	"github.com/mcoot/tictactoe3d/internal/config"
	"github.com/mcoot/tictactoe3d/internal/dependencies/clock"
	"github.com/mcoot/tictactoe3d/internal/dependencies/random"
	"github.com/mcoot/tictactoe3d/internal/services/auth"
	"github.com/mcoot/tictactoe3d/internal/services/game"
	"github.com/mcoot/tictactoe3d/internal/services/identity"
	"github.com/mcoot/tictactoe3d/internal/services/janitor"
	"github.com/mcoot/tictactoe3d/internal/services/lobby"
	"github.com/mcoot/tictactoe3d/internal/storage"
	"github.com/mcoot/tictactoe3d/internal/storage/memory"
	redisstorage "github.com/mcoot/tictactoe3d/internal/storage/redis"
	"github.com/mcoot/tictactoe3d/internal/transport"
	"github.com/mcoot/tictactoe3d/internal/transport/poll"
	"github.com/mcoot/tictactoe3d/internal/transport/push"
)

// Storage type constants
const (
	StorageTypeMemory = config.StorageMemory
	StorageTypeRedis  = config.StorageRedis
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Logger *slog.Logger

	// Services
	Identity        *identity.Store
	AuthService     *auth.Service
	GameController  *game.Controller
	LobbyController *lobby.Controller
	Janitor         *janitor.Janitor

	// Transports; nil when disabled by the delivery mode
	Events *poll.Buffer
	Hubs   *push.HubManager
}

// Config holds configuration for the application factory
type Config struct {
	// BotToken signs Telegram init data (required)
	BotToken string
	// InitDataMaxAge bounds how old init data may be; zero disables the check
	InitDataMaxAge time.Duration
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DeliveryMode selects the event transports ("push", "poll" or "both")
	// If empty, defaults to "both"
	DeliveryMode string
	// EventBufferSize is the poll buffer capacity per lobby (optional)
	EventBufferSize int
	// Push tunes WebSocket connections (optional)
	Push push.Config
	// Janitor sets cleanup timings (optional)
	Janitor janitor.Config
}

// ConfigFrom translates loaded server configuration into factory configuration
func ConfigFrom(c *config.Config, logger *slog.Logger) Config {
	cfg := Config{
		BotToken:        c.Telegram.BotToken,
		InitDataMaxAge:  c.Telegram.InitDataMaxAge,
		AuthConfig:      auth.Config{SessionDuration: c.Session.Duration},
		Logger:          logger,
		StorageType:     c.Storage.Type,
		DeliveryMode:    c.Delivery.Mode,
		EventBufferSize: c.Lobby.BufferSize,
		Push: push.Config{
			PingPeriod: c.Delivery.PingPeriod,
			PongWait:   c.Delivery.PongWait,
		},
		Janitor: janitor.Config{
			Period:   c.Lobby.SweepPeriod,
			LobbyTTL: c.Lobby.TTL,
			EventTTL: c.Lobby.EventTTL,
		},
	}
	if c.Storage.Type == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.Storage.RedisURL
		if c.Storage.PoolSize > 0 {
			redisCfg.PoolSize = c.Storage.PoolSize
		}
		if c.Storage.TTL > 0 {
			redisCfg.LobbyTTL = c.Storage.TTL
		}
		cfg.RedisConfig = &redisCfg
	}
	return cfg
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.BotToken == "" {
		return nil, errors.New("BotToken is required")
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	switch cfg.DeliveryMode {
	case "":
		cfg.DeliveryMode = config.DeliveryBoth
	case config.DeliveryPush, config.DeliveryPoll, config.DeliveryBoth:
	default:
		return nil, fmt.Errorf("invalid DeliveryMode %q: must be 'push', 'poll' or 'both'", cfg.DeliveryMode)
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, cfg), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config) *App {
	logger := cfg.Logger

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	// Event transports, in delivery order
	var sinks transport.Multi
	var events *poll.Buffer
	var hubs *push.HubManager
	if cfg.DeliveryMode != config.DeliveryPush {
		events = poll.New(cfg.EventBufferSize, clk, logger.With(slog.String("component", "poll")))
		sinks = append(sinks, events)
	}
	if cfg.DeliveryMode != config.DeliveryPoll {
		hubs = push.NewHubManager(cfg.Push, logger)
		sinks = append(sinks, hubs)
	}

	// Create services
	identityStore := identity.New(store, clk, logger)
	verifier := auth.NewTelegramVerifier(cfg.BotToken, cfg.InitDataMaxAge, clk)
	authService := auth.New(verifier, identityStore, clk, rnd, logger, authCfg)
	gameController := game.NewController(clk, logger)
	lobbyController := lobby.NewController(store, identityStore, gameController, sinks, clk, rnd, logger)

	// Optional transports are passed as untyped nils so the janitor skips them
	var eventBuffer janitor.EventBuffer
	if events != nil {
		eventBuffer = events
	}
	var hubRegistry janitor.HubRegistry
	if hubs != nil {
		hubRegistry = hubs
	}
	sweeper := janitor.New(lobbyController, eventBuffer, hubRegistry, authService, clk, logger, cfg.Janitor)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		Logger:          logger,
		Identity:        identityStore,
		AuthService:     authService,
		GameController:  gameController,
		LobbyController: lobbyController,
		Janitor:         sweeper,
		Events:          events,
		Hubs:            hubs,
	}
}

// Router builds the HTTP handler for the app
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:          a.Logger,
		Clock:           a.Clock,
		AuthService:     a.AuthService,
		LobbyController: a.LobbyController,
		Events:          a.Events,
		Hubs:            a.Hubs,
	})
}

// Close releases open connections and storage clients
func (a *App) Close() error {
	if a.Hubs != nil {
		a.Hubs.Close()
	}
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
