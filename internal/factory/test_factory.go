package factory

import (
	"context"
	"time"

	"github.com/mcoot/tictactoe3d/internal/config"
	"github.com/mcoot/tictactoe3d/internal/dependencies/mocks"
	"github.com/mcoot/tictactoe3d/internal/services/auth"
	"github.com/mcoot/tictactoe3d/internal/storage/memory"
	"github.com/mcoot/tictactoe3d/internal/testutil"
	"github.com/mcoot/tictactoe3d/internal/testutil/initdata"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Init data signed with initdata.BotToken is accepted.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, Config{
		BotToken:       initdata.BotToken,
		InitDataMaxAge: time.Hour,
		AuthConfig:     auth.DefaultConfig(),
		Logger:         testutil.NopLogger(),
		DeliveryMode:   config.DeliveryBoth,
	})

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// InitData returns init data for user signed at the mock clock's current time
func (t *TestApp) InitData(user initdata.User) string {
	return initdata.Build(user, t.MockClock.Now())
}

// SignIn authenticates user and returns the new session
func (t *TestApp) SignIn(ctx context.Context, user initdata.User) (*auth.Session, error) {
	return t.AuthService.Authenticate(ctx, t.InitData(user))
}
