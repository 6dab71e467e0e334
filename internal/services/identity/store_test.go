package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe3d/internal/dependencies/mocks"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/storage/memory"
	"github.com/mcoot/tictactoe3d/internal/testutil"
)

type StoreSuite struct {
	suite.Suite
	clock *mocks.MockClock
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.store = New(memory.New(), s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *StoreSuite) TestUpsertCreatesPlayer() {
	player, err := s.store.Upsert(s.ctx, Profile{
		ID:           "100",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Username:     "ada",
		LanguageCode: "en",
	})
	s.Require().NoError(err)

	s.Equal(model.PlayerID("100"), player.ID)
	s.Equal("Ada Lovelace", player.DisplayName)
	s.Equal("en", player.Locale)

	stored, err := s.store.Get(s.ctx, "100")
	s.Require().NoError(err)
	s.Equal("ada", stored.Username)
}

func (s *StoreSuite) TestUpsertOverwritesProfileKeepsCreatedAt() {
	created := s.clock.Now()
	_, _ = s.store.Upsert(s.ctx, Profile{ID: "100", FirstName: "Ada"})

	s.clock.Advance(time.Hour)
	player, err := s.store.Upsert(s.ctx, Profile{ID: "100", FirstName: "Augusta"})
	s.Require().NoError(err)

	s.Equal("Augusta", player.DisplayName)
	s.Equal(created, player.CreatedAt)
	s.Equal(created.Add(time.Hour), player.UpdatedAt)
}

func (s *StoreSuite) TestUpsertRequiresID() {
	_, err := s.store.Upsert(s.ctx, Profile{FirstName: "Nobody"})
	s.ErrorIs(err, model.ErrInvalidInput)
}

func (s *StoreSuite) TestGetUnknownPlayer() {
	_, err := s.store.Get(s.ctx, "404")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StoreSuite) TestDisplayNameFallbacks() {
	s.Equal("Ada", Profile{ID: "1", FirstName: "Ada"}.DisplayName())
	s.Equal("ada", Profile{ID: "1", Username: "ada"}.DisplayName())
	s.Equal("Player 1", Profile{ID: "1"}.DisplayName())
}
