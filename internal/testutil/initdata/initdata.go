// Package initdata builds signed Telegram init data for tests.
package initdata

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/mcoot/tictactoe3d/internal/services/auth"
)

// BotToken is the bot token used by test fixtures
const BotToken = "123456:TEST-TOKEN"

// User describes the user embedded in generated init data
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	Language  string
}

// Build returns init data for user signed with BotToken
func Build(user User, authDate time.Time) string {
	return BuildFor(BotToken, user, authDate)
}

// BuildFor returns init data for user signed with the given bot token
func BuildFor(botToken string, user User, authDate time.Time) string {
	rawUser, _ := json.Marshal(map[string]any{
		"id":            user.ID,
		"first_name":    user.FirstName,
		"last_name":     user.LastName,
		"username":      user.Username,
		"language_code": user.Language,
	})

	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	values.Set("user", string(rawUser))
	return auth.SignInitData(botToken, values)
}
