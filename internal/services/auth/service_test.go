package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe3d/internal/dependencies/mocks"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/services/auth"
	"github.com/mcoot/tictactoe3d/internal/services/identity"
	"github.com/mcoot/tictactoe3d/internal/storage/memory"
	"github.com/mcoot/tictactoe3d/internal/testutil"
	"github.com/mcoot/tictactoe3d/internal/testutil/initdata"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *auth.Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	verifier := auth.NewTelegramVerifier(initdata.BotToken, time.Hour, s.clock)
	store := identity.New(s.storage, s.clock, logger)
	s.service = auth.New(verifier, store, s.clock, s.random, logger, auth.DefaultConfig())
	s.ctx = context.Background()
}

func (s *ServiceSuite) initData(id int64, name string) string {
	return initdata.Build(initdata.User{ID: id, FirstName: name}, s.clock.Now())
}

// Authenticate tests

func (s *ServiceSuite) TestAuthenticateCreatesSessionAndPlayer() {
	s.random.QueueToken("abc")

	session, err := s.service.Authenticate(s.ctx, s.initData(100, "Alice"))
	s.Require().NoError(err)

	s.Equal("sess_abc", session.Token)
	s.Equal(model.PlayerID("100"), session.PlayerID)
	s.Equal("Alice", session.Player.DisplayName)

	player, err := s.storage.GetPlayer(s.ctx, "100")
	s.Require().NoError(err)
	s.Equal("Alice", player.DisplayName)
}

func (s *ServiceSuite) TestAuthenticateRefreshesProfile() {
	_, _ = s.service.Authenticate(s.ctx, s.initData(100, "Alice"))
	_, err := s.service.Authenticate(s.ctx, s.initData(100, "Alicia"))
	s.Require().NoError(err)

	player, _ := s.storage.GetPlayer(s.ctx, "100")
	s.Equal("Alicia", player.DisplayName)
}

func (s *ServiceSuite) TestAuthenticateFailureDoesNotUpsert() {
	raw := initdata.BuildFor("1:WRONG", initdata.User{ID: 100, FirstName: "Eve"}, s.clock.Now())

	_, err := s.service.Authenticate(s.ctx, raw)
	s.ErrorIs(err, model.ErrUnauthorized)

	_, err = s.storage.GetPlayer(s.ctx, "100")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ServiceSuite) TestIdentifyDoesNotCreateSession() {
	player, err := s.service.Identify(s.ctx, s.initData(100, "Alice"))
	s.Require().NoError(err)
	s.Equal(model.PlayerID("100"), player.ID)

	s.Equal(0, s.service.CleanExpiredSessions())
}

// Session tests

func (s *ServiceSuite) TestSessionSeesRefreshedProfile() {
	session, err := s.service.Authenticate(s.ctx, s.initData(100, "Alice"))
	s.Require().NoError(err)

	_, err = s.service.Identify(s.ctx, s.initData(100, "Alicia"))
	s.Require().NoError(err)

	player, err := s.service.GetPlayer(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal("Alicia", player.DisplayName)
}

func (s *ServiceSuite) TestValidateSession() {
	session, _ := s.service.Authenticate(s.ctx, s.initData(100, "Alice"))

	validated, err := s.service.ValidateSession(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal(session.PlayerID, validated.PlayerID)
}

func (s *ServiceSuite) TestValidateSessionUnknownToken() {
	_, err := s.service.ValidateSession(s.ctx, "sess_nope")
	s.ErrorIs(err, auth.ErrInvalidSession)
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *ServiceSuite) TestValidateSessionExpired() {
	session, _ := s.service.Authenticate(s.ctx, s.initData(100, "Alice"))

	s.clock.Advance(25 * time.Hour)

	_, err := s.service.ValidateSession(s.ctx, session.Token)
	s.ErrorIs(err, auth.ErrInvalidSession)
}

func (s *ServiceSuite) TestInvalidateSession() {
	session, _ := s.service.Authenticate(s.ctx, s.initData(100, "Alice"))

	s.service.InvalidateSession(session.Token)

	_, err := s.service.GetPlayer(s.ctx, session.Token)
	s.ErrorIs(err, auth.ErrInvalidSession)
}

func (s *ServiceSuite) TestCleanExpiredSessions() {
	first, _ := s.service.Authenticate(s.ctx, s.initData(100, "Alice"))
	s.clock.Advance(12 * time.Hour)
	second, _ := s.service.Authenticate(s.ctx, s.initData(200, "Bob"))
	s.clock.Advance(13 * time.Hour)

	s.Equal(1, s.service.CleanExpiredSessions())

	_, err := s.service.ValidateSession(s.ctx, first.Token)
	s.ErrorIs(err, auth.ErrInvalidSession)
	_, err = s.service.ValidateSession(s.ctx, second.Token)
	s.NoError(err)
}
