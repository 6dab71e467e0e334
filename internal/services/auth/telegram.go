package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/tictactoe3d/internal/dependencies/clock"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/services/identity"
)

// webAppDataKey is the fixed HMAC key Telegram uses to derive the secret from the bot token
const webAppDataKey = "WebAppData"

// Init data rejections. All of them are unauthorized.
var (
	ErrMissingInitData   = fmt.Errorf("%w: missing init data", model.ErrUnauthorized)
	ErrMalformedInitData = fmt.Errorf("%w: malformed init data", model.ErrUnauthorized)
	ErrInvalidSignature  = fmt.Errorf("%w: init data signature mismatch", model.ErrUnauthorized)
	ErrInitDataExpired   = fmt.Errorf("%w: init data expired", model.ErrUnauthorized)
	ErrMissingUser       = fmt.Errorf("%w: init data has no user", model.ErrUnauthorized)
)

// telegramUser is the JSON object carried in the init data "user" field
type telegramUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
	PhotoURL     string `json:"photo_url"`
}

// TelegramVerifier validates the signed init data a Telegram mini-app
// receives at launch.
type TelegramVerifier struct {
	botToken string
	maxAge   time.Duration
	clock    clock.Clock
}

// NewTelegramVerifier creates a verifier for the given bot. A zero maxAge
// disables the auth_date freshness check.
func NewTelegramVerifier(botToken string, maxAge time.Duration, clock clock.Clock) *TelegramVerifier {
	return &TelegramVerifier{
		botToken: botToken,
		maxAge:   maxAge,
		clock:    clock,
	}
}

// Verify checks the init data signature and freshness and extracts the user
func (v *TelegramVerifier) Verify(initData string) (identity.Profile, error) {
	if strings.TrimSpace(initData) == "" {
		return identity.Profile{}, ErrMissingInitData
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return identity.Profile{}, ErrMalformedInitData
	}

	hash := values.Get("hash")
	if hash == "" {
		return identity.Profile{}, ErrInvalidSignature
	}
	values.Del("hash")

	expected := signature(v.botToken, values)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(hash))) {
		return identity.Profile{}, ErrInvalidSignature
	}

	if v.maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return identity.Profile{}, ErrMalformedInitData
		}
		if v.clock.Since(time.Unix(authDate, 0)) > v.maxAge {
			return identity.Profile{}, ErrInitDataExpired
		}
	}

	rawUser := values.Get("user")
	if rawUser == "" {
		return identity.Profile{}, ErrMissingUser
	}
	var user telegramUser
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user.ID == 0 {
		return identity.Profile{}, ErrMissingUser
	}

	return identity.Profile{
		ID:           model.PlayerID(strconv.FormatInt(user.ID, 10)),
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Username:     user.Username,
		LanguageCode: user.LanguageCode,
		PhotoURL:     user.PhotoURL,
	}, nil
}

// SignInitData encodes values and appends the hash Telegram would produce
// for the given bot token. Used by tests and the CLI's local mode.
func SignInitData(botToken string, values url.Values) string {
	signed := url.Values{}
	for k, v := range values {
		if k == "hash" {
			continue
		}
		signed[k] = v
	}
	signed.Set("hash", signature(botToken, signed))
	return signed.Encode()
}

// signature computes the hex HMAC over the data-check string: every field
// except hash as key=value, sorted by key, joined by newlines.
func signature(botToken string, values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}

	secret := hmacSHA256([]byte(webAppDataKey), []byte(botToken))
	return hex.EncodeToString(hmacSHA256(secret, []byte(strings.Join(lines, "\n"))))
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
