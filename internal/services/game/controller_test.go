package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe3d/internal/dependencies/mocks"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	clock      *mocks.MockClock
	controller *Controller
	game       *model.GameState
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.controller = NewController(s.clock, testutil.NopLogger())

	game, err := s.controller.NewGame([]model.Player{
		{ID: "alice", DisplayName: "Alice"},
		{ID: "bob", DisplayName: "Bob"},
	})
	s.Require().NoError(err)
	s.game = game
}

func (s *ControllerSuite) play(playerID model.PlayerID, symbol model.Symbol, x, y, z int) {
	_, err := s.controller.ApplyMove(s.game, playerID, model.Move{X: x, Y: y, Z: z, Symbol: symbol})
	s.Require().NoError(err)
}

// NewGame tests

func (s *ControllerSuite) TestNewGameAssignsSymbols() {
	s.Equal(model.PlayerID("alice"), s.game.CurrentPlayerID)
	s.Equal([]model.Participant{
		{PlayerID: "alice", Symbol: model.SymbolX},
		{PlayerID: "bob", Symbol: model.SymbolO},
	}, s.game.Players)
	s.Equal(0, s.game.Board.Occupied())
	s.Empty(s.game.Moves)
	s.Equal(model.OutcomeNone, s.game.Winner)
}

func (s *ControllerSuite) TestNewGameNeedsTwoPlayers() {
	_, err := s.controller.NewGame([]model.Player{{ID: "alice"}})
	s.ErrorIs(err, model.ErrInsufficientPlayers)
}

// ApplyMove tests

func (s *ControllerSuite) TestMovesAlternateTurns() {
	s.play("alice", model.SymbolX, 0, 0, 0)
	s.Equal(model.PlayerID("bob"), s.game.CurrentPlayerID)

	s.play("bob", model.SymbolO, 1, 1, 1)
	s.Equal(model.PlayerID("alice"), s.game.CurrentPlayerID)

	s.Len(s.game.Moves, 2)
	s.Equal(len(s.game.Moves), s.game.Board.Occupied())
	s.Equal(model.SymbolX, s.game.Board[13])
	s.Equal(model.SymbolO, s.game.Board[26])
}

func (s *ControllerSuite) TestMoveRecordsPlayer() {
	record, err := s.controller.ApplyMove(s.game, "alice", model.Move{X: -1, Y: 0, Z: 1, Symbol: model.SymbolX})
	s.Require().NoError(err)

	s.Equal(model.MoveRecord{X: -1, Y: 0, Z: 1, Symbol: model.SymbolX, PlayerID: "alice", PlayedAt: s.clock.Now()}, record)
	s.Equal(record, s.game.Moves[0])
}

func (s *ControllerSuite) TestRejectionsLeaveGameUntouched() {
	s.play("alice", model.SymbolX, 0, 0, 0)
	before := s.game.Clone()

	tests := []struct {
		name     string
		playerID model.PlayerID
		move     model.Move
		err      error
	}{
		{"wrong turn", "alice", model.Move{X: 1, Y: 1, Z: 1, Symbol: model.SymbolX}, model.ErrNotPlayerTurn},
		{"wrong symbol", "bob", model.Move{X: 1, Y: 1, Z: 1, Symbol: model.SymbolX}, model.ErrWrongSymbol},
		{"out of range", "bob", model.Move{X: 2, Y: 0, Z: 0, Symbol: model.SymbolO}, model.ErrOutOfRange},
		{"occupied", "bob", model.Move{X: 0, Y: 0, Z: 0, Symbol: model.SymbolO}, model.ErrCellOccupied},
		{"stranger", "carol", model.Move{X: 1, Y: 1, Z: 1, Symbol: model.SymbolO}, model.ErrNotInLobby},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.controller.ApplyMove(s.game, tt.playerID, tt.move)
			s.ErrorIs(err, tt.err)
			s.Equal(before, s.game)
		})
	}
}

func (s *ControllerSuite) TestWrongTurnCheckedBeforeRange() {
	_, err := s.controller.ApplyMove(s.game, "bob", model.Move{X: 5, Y: 5, Z: 5, Symbol: model.SymbolX})
	s.ErrorIs(err, model.ErrNotPlayerTurn)
}

func (s *ControllerSuite) TestLayerDiagonalWins() {
	s.play("alice", model.SymbolX, -1, -1, -1) // 0
	s.play("bob", model.SymbolO, 0, 0, 0)      // 13
	s.play("alice", model.SymbolX, -1, 0, 0)   // 4
	s.play("bob", model.SymbolO, 1, 1, 1)      // 26
	s.play("alice", model.SymbolX, -1, 1, 1)   // 8

	s.Equal(model.OutcomeX, s.game.Winner)
	s.True(s.game.IsOver())
	s.Require().NotNil(s.game.FinishedAt)
	s.Equal([]int{0, 4, 8}, WinningLine(s.game))

	_, err := s.controller.ApplyMove(s.game, "bob", model.Move{X: 1, Y: -1, Z: -1, Symbol: model.SymbolO})
	s.ErrorIs(err, model.ErrGameComplete)
	s.Len(s.game.Moves, 5)
}

func (s *ControllerSuite) TestSpaceDiagonalWinForO() {
	s.play("alice", model.SymbolX, -1, -1, 0)
	s.play("bob", model.SymbolO, -1, -1, -1)
	s.play("alice", model.SymbolX, 1, -1, 0)
	s.play("bob", model.SymbolO, 0, 0, 0)
	s.play("alice", model.SymbolX, 0, 1, -1)
	s.play("bob", model.SymbolO, 1, 1, 1)

	s.Equal(model.OutcomeO, s.game.Winner)
	s.Equal([]int{0, 13, 26}, WinningLine(s.game))
}

func (s *ControllerSuite) TestWinningLineNilWhileRunning() {
	s.Nil(WinningLine(s.game))
}
