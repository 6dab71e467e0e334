package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// LobbyTTL bounds how long an abandoned lobby key survives if the
	// janitor never reaps it. Players are kept indefinitely.
	LobbyTTL time.Duration

	// ScanCount is the COUNT hint used when listing lobbies
	ScanCount int64
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		LobbyTTL:     2 * time.Hour,
		ScanCount:    100,
	}
}
