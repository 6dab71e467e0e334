package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe3d/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func newLobby(code model.LobbyCode) *model.Lobby {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return &model.Lobby{
		Code:      code,
		Name:      model.DefaultLobbyName,
		Players:   []model.Player{{ID: "100", DisplayName: "Alice"}},
		HostID:    "100",
		Status:    model.LobbyStatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	player := &model.Player{ID: "100", DisplayName: "Alice", Locale: "en"}

	err := s.storage.SavePlayer(s.ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayer(s.ctx, "100")
	s.Require().NoError(err)
	s.Equal("Alice", retrieved.DisplayName)
	s.Equal("en", retrieved.Locale)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestSavePlayerOverwrites() {
	_ = s.storage.SavePlayer(s.ctx, &model.Player{ID: "100", DisplayName: "Alice"})
	_ = s.storage.SavePlayer(s.ctx, &model.Player{ID: "100", DisplayName: "Alicia"})

	retrieved, err := s.storage.GetPlayer(s.ctx, "100")
	s.Require().NoError(err)
	s.Equal("Alicia", retrieved.DisplayName)
}

// Lobby tests

func (s *StorageSuite) TestCreateAndGetLobby() {
	err := s.storage.CreateLobby(s.ctx, newLobby("ABCD1234"))
	s.Require().NoError(err)

	retrieved, err := s.storage.GetLobby(s.ctx, "ABCD1234")
	s.Require().NoError(err)
	s.Equal(model.DefaultLobbyName, retrieved.Name)
	s.Len(retrieved.Players, 1)
}

func (s *StorageSuite) TestCreateLobbyRejectsDuplicateCode() {
	s.Require().NoError(s.storage.CreateLobby(s.ctx, newLobby("ABCD1234")))

	err := s.storage.CreateLobby(s.ctx, newLobby("ABCD1234"))
	s.ErrorIs(err, model.ErrLobbyExists)
}

func (s *StorageSuite) TestSaveLobbyRequiresExisting() {
	err := s.storage.SaveLobby(s.ctx, newLobby("ABCD1234"))
	s.ErrorIs(err, model.ErrLobbyNotFound)
}

func (s *StorageSuite) TestGetLobbyReturnsSnapshot() {
	s.Require().NoError(s.storage.CreateLobby(s.ctx, newLobby("ABCD1234")))

	first, _ := s.storage.GetLobby(s.ctx, "ABCD1234")
	first.Players = append(first.Players, model.Player{ID: "200"})
	first.Status = model.LobbyStatusReady

	second, _ := s.storage.GetLobby(s.ctx, "ABCD1234")
	s.Len(second.Players, 1)
	s.Equal(model.LobbyStatusWaiting, second.Status)
}

func (s *StorageSuite) TestCreateLobbyCopiesInput() {
	lobby := newLobby("ABCD1234")
	s.Require().NoError(s.storage.CreateLobby(s.ctx, lobby))

	lobby.Name = "mutated"

	retrieved, _ := s.storage.GetLobby(s.ctx, "ABCD1234")
	s.Equal(model.DefaultLobbyName, retrieved.Name)
}

func (s *StorageSuite) TestDeleteLobby() {
	_ = s.storage.CreateLobby(s.ctx, newLobby("ABCD1234"))

	err := s.storage.DeleteLobby(s.ctx, "ABCD1234")
	s.Require().NoError(err)

	exists, err := s.storage.LobbyExists(s.ctx, "ABCD1234")
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.storage.GetLobby(s.ctx, "ABCD1234")
	s.ErrorIs(err, model.ErrLobbyNotFound)
}

func (s *StorageSuite) TestListLobbies() {
	_ = s.storage.CreateLobby(s.ctx, newLobby("AAAA1111"))
	_ = s.storage.CreateLobby(s.ctx, newLobby("BBBB2222"))

	lobbies, err := s.storage.ListLobbies(s.ctx)
	s.Require().NoError(err)
	s.Len(lobbies, 2)
}
