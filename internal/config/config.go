// Package config loads server settings from the environment and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Delivery modes for lobby events
const (
	DeliveryPush = "push"
	DeliveryPoll = "poll"
	DeliveryBoth = "both"
)

// Config is the full server configuration
type Config struct {
	Env      string   `yaml:"env" env:"APP_ENV" env-default:"development"`
	LogLevel string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTP     HTTP     `yaml:"http"`
	Telegram Telegram `yaml:"telegram"`
	Session  Session  `yaml:"session"`
	Storage  Storage  `yaml:"storage"`
	Lobby    Lobby    `yaml:"lobby"`
	Delivery Delivery `yaml:"delivery"`
}

// HTTP configures the listener
type HTTP struct {
	Host            string        `yaml:"host" env:"HOST" env-default:""`
	Port            int           `yaml:"port" env:"PORT" env-default:"3000"`
	ReadTimeout     time.Duration `yaml:"read-timeout" env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write-timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// Telegram configures init data verification
type Telegram struct {
	BotToken       string        `yaml:"bot-token" env:"TELEGRAM_BOT_TOKEN" env-required:"true"`
	InitDataMaxAge time.Duration `yaml:"init-data-max-age" env:"TELEGRAM_INIT_DATA_MAX_AGE" env-default:"1h"`
}

// Session configures issued session tokens
type Session struct {
	Duration time.Duration `yaml:"duration" env:"SESSION_DURATION" env-default:"24h"`
}

// Storage selects the persistence backend
type Storage struct {
	Type     string        `yaml:"type" env:"STORAGE_TYPE" env-default:"memory"`
	RedisURL string        `yaml:"redis-url" env:"REDIS_URL" env-default:""`
	PoolSize int           `yaml:"redis-pool-size" env:"REDIS_POOL_SIZE" env-default:"10"`
	TTL      time.Duration `yaml:"redis-lobby-ttl" env:"REDIS_LOBBY_TTL" env-default:"2h"`
}

// Lobby configures lobby lifetime and event retention
type Lobby struct {
	TTL         time.Duration `yaml:"ttl" env:"LOBBY_TTL" env-default:"1h"`
	EventTTL    time.Duration `yaml:"event-ttl" env:"EVENT_TTL" env-default:"10m"`
	BufferSize  int           `yaml:"buffer-size" env:"EVENT_BUFFER_SIZE" env-default:"100"`
	SweepPeriod time.Duration `yaml:"sweep-period" env:"SWEEP_PERIOD" env-default:"1m"`
}

// Delivery selects how events reach clients
type Delivery struct {
	Mode       string        `yaml:"mode" env:"DELIVERY_MODE" env-default:"both"`
	PingPeriod time.Duration `yaml:"ping-period" env:"WS_PING_PERIOD" env-default:"54s"`
	PongWait   time.Duration `yaml:"pong-wait" env:"WS_PONG_WAIT" env-default:"60s"`
}

// Load reads the YAML file at path, if any, then applies environment overrides
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load that panics on failure
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks values that cannot be expressed as tags
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Type {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL required when STORAGE_TYPE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid storage type %q: must be memory or redis", c.Storage.Type))
	}

	switch c.Delivery.Mode {
	case DeliveryPush, DeliveryPoll, DeliveryBoth:
	default:
		errs = append(errs, fmt.Errorf("invalid delivery mode %q: must be push, poll or both", c.Delivery.Mode))
	}

	if c.Delivery.PingPeriod >= c.Delivery.PongWait {
		errs = append(errs, errors.New("ping period must be shorter than pong wait"))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.HTTP.Port))
	}

	return errors.Join(errs...)
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// PushEnabled reports whether WebSocket delivery is on
func (c *Config) PushEnabled() bool {
	return c.Delivery.Mode == DeliveryPush || c.Delivery.Mode == DeliveryBoth
}

// PollEnabled reports whether the poll buffer is on
func (c *Config) PollEnabled() bool {
	return c.Delivery.Mode == DeliveryPoll || c.Delivery.Mode == DeliveryBoth
}
