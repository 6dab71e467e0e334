package janitor_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe3d/internal/dependencies/mocks"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/services/game"
	"github.com/mcoot/tictactoe3d/internal/services/identity"
	"github.com/mcoot/tictactoe3d/internal/services/janitor"
	"github.com/mcoot/tictactoe3d/internal/services/lobby"
	"github.com/mcoot/tictactoe3d/internal/storage/memory"
	"github.com/mcoot/tictactoe3d/internal/testutil"
	"github.com/mcoot/tictactoe3d/internal/transport"
	"github.com/mcoot/tictactoe3d/internal/transport/poll"
)

type fakeHubs struct {
	mu      sync.Mutex
	codes   map[model.LobbyCode]int // lobby -> connected clients
	removed []model.LobbyCode
}

func (f *fakeHubs) HubCodes() []model.LobbyCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	codes := make([]model.LobbyCode, 0, len(f.codes))
	for code := range f.codes {
		codes = append(codes, code)
	}
	return codes
}

func (f *fakeHubs) RemoveHub(code model.LobbyCode) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.codes[code]; !ok {
		return false
	}
	delete(f.codes, code)
	f.removed = append(f.removed, code)
	return true
}

func (f *fakeHubs) CleanupEmptyHubs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for code, clients := range f.codes {
		if clients == 0 {
			delete(f.codes, code)
			n++
		}
	}
	return n
}

type fakeSessions struct {
	calls   atomic.Int32
	expired int
}

func (f *fakeSessions) CleanExpiredSessions() int {
	f.calls.Add(1)
	return f.expired
}

type JanitorSuite struct {
	suite.Suite
	ctx      context.Context
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	storage  *memory.Storage
	buffer   *poll.Buffer
	recorder *transport.Recorder
	hubs     *fakeHubs
	sessions *fakeSessions
	lobbies  *lobby.Controller
	janitor  *janitor.Janitor
}

func TestJanitorSuite(t *testing.T) {
	suite.Run(t, new(JanitorSuite))
}

func (s *JanitorSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.storage = memory.New()
	s.buffer = poll.New(poll.DefaultCapacity, s.clock, logger)
	s.recorder = &transport.Recorder{}
	s.hubs = &fakeHubs{codes: make(map[model.LobbyCode]int)}
	s.sessions = &fakeSessions{}

	store := identity.New(s.storage, s.clock, logger)
	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := store.Upsert(s.ctx, identity.Profile{ID: model.PlayerID(name), FirstName: name})
		s.Require().NoError(err)
	}

	s.lobbies = lobby.NewController(
		s.storage, store, game.NewController(s.clock, logger),
		transport.Multi{s.buffer, s.recorder}, s.clock, s.random, logger,
	)
	s.janitor = janitor.New(s.lobbies, s.buffer, s.hubs, s.sessions, s.clock, logger, janitor.DefaultConfig())
}

func (s *JanitorSuite) create(code model.LobbyCode, host model.PlayerID) {
	s.random.QueueString(string(code))
	_, err := s.lobbies.CreateLobby(s.ctx, host, "")
	s.Require().NoError(err)
}

func (s *JanitorSuite) TestFreshLobbiesSurvive() {
	s.create("AAAA1111", "alice")
	s.hubs.codes["AAAA1111"] = 1

	result := s.janitor.Sweep(s.ctx)

	s.True(result.Empty())
	exists, err := s.lobbies.LobbyExists(s.ctx, "AAAA1111")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *JanitorSuite) TestExpiredLobbyIsReapedWithItsState() {
	s.create("OLD00001", "alice")
	_, err := s.lobbies.JoinLobby(s.ctx, "bob", "OLD00001")
	s.Require().NoError(err)
	s.hubs.codes["OLD00001"] = 2

	s.clock.Advance(30 * time.Minute)
	s.create("NEW00001", "carol")
	s.hubs.codes["NEW00001"] = 1

	s.clock.Advance(31 * time.Minute)
	result := s.janitor.Sweep(s.ctx)

	s.Equal(1, result.LobbiesReaped)
	s.Equal(1, result.EventsTrimmed) // bob's join
	s.Equal(1, result.BuffersRemoved)
	s.Equal(1, result.HubsRemoved)

	exists, err := s.lobbies.LobbyExists(s.ctx, "OLD00001")
	s.Require().NoError(err)
	s.False(exists)
	exists, err = s.lobbies.LobbyExists(s.ctx, "NEW00001")
	s.Require().NoError(err)
	s.True(exists)

	s.Equal([]model.LobbyCode{"OLD00001"}, s.hubs.removed)
	s.NotContains(s.buffer.Codes(), model.LobbyCode("OLD00001"))

	// Followers were told before their hub went away
	events := s.recorder.Events()
	s.Require().NotEmpty(events)
	last := events[len(events)-1]
	s.Equal(model.EventLobbyClosed, last.Type)
	s.Equal(model.LobbyCode("OLD00001"), last.LobbyCode)
}

func (s *JanitorSuite) TestEmptyLobbyIsReaped() {
	now := s.clock.Now()
	s.Require().NoError(s.storage.CreateLobby(s.ctx, &model.Lobby{
		Code:      "EMPTY001",
		Status:    model.LobbyStatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	result := s.janitor.Sweep(s.ctx)

	s.Equal(1, result.LobbiesReaped)
	exists, err := s.lobbies.LobbyExists(s.ctx, "EMPTY001")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *JanitorSuite) TestOldEventsAreTrimmedForLiveLobbies() {
	s.create("LIVE0001", "alice")
	_, err := s.lobbies.JoinLobby(s.ctx, "bob", "LIVE0001")
	s.Require().NoError(err)
	s.Equal(1, s.buffer.Len("LIVE0001"))

	s.clock.Advance(11 * time.Minute)
	result := s.janitor.Sweep(s.ctx)

	s.Equal(1, result.EventsTrimmed)
	s.Zero(result.BuffersRemoved)
	s.Zero(s.buffer.Len("LIVE0001"))
	s.Contains(s.buffer.Codes(), model.LobbyCode("LIVE0001"))
}

func (s *JanitorSuite) TestBufferOfDeletedLobbyIsRemoved() {
	s.create("GONE0001", "alice")
	_, err := s.lobbies.JoinLobby(s.ctx, "bob", "GONE0001")
	s.Require().NoError(err)
	_, err = s.lobbies.LeaveLobby(s.ctx, "bob", "GONE0001")
	s.Require().NoError(err)
	_, err = s.lobbies.LeaveLobby(s.ctx, "alice", "GONE0001")
	s.Require().NoError(err)

	result := s.janitor.Sweep(s.ctx)

	s.Zero(result.LobbiesReaped)
	s.Equal(1, result.BuffersRemoved)
	s.Empty(s.buffer.Codes())
}

func (s *JanitorSuite) TestEmptyHubsAndSessionsAreCleaned() {
	s.create("AAAA1111", "alice")
	s.hubs.codes["AAAA1111"] = 0
	s.sessions.expired = 3

	result := s.janitor.Sweep(s.ctx)

	s.Equal(1, result.HubsRemoved)
	s.Equal(3, result.SessionsExpired)
	s.Empty(s.hubs.HubCodes())
}

func (s *JanitorSuite) TestOptionalDependenciesMayBeNil() {
	j := janitor.New(s.lobbies, nil, nil, nil, s.clock, testutil.NopLogger(), janitor.Config{})
	s.create("AAAA1111", "alice")
	s.clock.Advance(2 * time.Hour)

	result := j.Sweep(s.ctx)
	s.Equal(1, result.LobbiesReaped)
}

func (s *JanitorSuite) TestRunSweepsUntilCancelled() {
	j := janitor.New(s.lobbies, s.buffer, s.hubs, s.sessions, s.clock, testutil.NopLogger(), janitor.Config{
		Period: 5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	s.Eventually(func() bool { return s.sessions.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("janitor did not stop")
	}
}
