package redis

import (
	"fmt"

	"github.com/mcoot/tictactoe3d/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "ttt3d"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// lobbyKey returns the Redis key for a Lobby
func lobbyKey(code model.LobbyCode) string {
	return fmt.Sprintf("%s:lobby:%s", keyPrefix, code)
}

// lobbyPattern matches every lobby key for SCAN
func lobbyPattern() string {
	return fmt.Sprintf("%s:lobby:*", keyPrefix)
}
