package model

import "time"

// PlayerID uniquely identifies a player. It is the Telegram user id in decimal form.
type PlayerID string

// Player is the cached profile of an authenticated Telegram user
type Player struct {
	ID          PlayerID
	DisplayName string
	Username    string
	Locale      string // Telegram language_code, may be empty
	PhotoURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
