package game

import (
	"log/slog"

	"github.com/mcoot/tictactoe3d/internal/dependencies/clock"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/services/board"
)

// Controller applies the game rules to a lobby's GameState. It holds no
// state of its own; callers serialize access per lobby.
type Controller struct {
	clock  clock.Clock
	logger *slog.Logger
}

// NewController creates a new game Controller
func NewController(clock clock.Clock, logger *slog.Logger) *Controller {
	return &Controller{
		clock:  clock,
		logger: logger,
	}
}

// NewGame deals X to the first player and O to the second. X moves first.
func (c *Controller) NewGame(players []model.Player) (*model.GameState, error) {
	if len(players) != model.MaxPlayers {
		return nil, model.ErrInsufficientPlayers
	}

	return &model.GameState{
		CurrentPlayerID: players[0].ID,
		Players: []model.Participant{
			{PlayerID: players[0].ID, Symbol: model.SymbolX},
			{PlayerID: players[1].ID, Symbol: model.SymbolO},
		},
		Moves:     []model.MoveRecord{},
		StartedAt: c.clock.Now(),
	}, nil
}

// ApplyMove validates and applies a move in place. Checks run in a fixed
// order and a rejected move leaves the game untouched.
func (c *Controller) ApplyMove(game *model.GameState, playerID model.PlayerID, move model.Move) (model.MoveRecord, error) {
	if game.IsOver() {
		return model.MoveRecord{}, model.ErrGameComplete
	}

	participant, ok := game.Participant(playerID)
	if !ok {
		return model.MoveRecord{}, model.ErrNotInLobby
	}
	if game.CurrentPlayerID != playerID {
		return model.MoveRecord{}, model.ErrNotPlayerTurn
	}
	if move.Symbol != participant.Symbol {
		return model.MoveRecord{}, model.ErrWrongSymbol
	}
	if !board.InRange(move.X, move.Y, move.Z) {
		return model.MoveRecord{}, model.ErrOutOfRange
	}

	next, err := board.ApplyMove(game.Board, board.CellIndex(move.X, move.Y, move.Z), move.Symbol)
	if err != nil {
		return model.MoveRecord{}, err
	}

	now := c.clock.Now()
	record := model.MoveRecord{
		X:        move.X,
		Y:        move.Y,
		Z:        move.Z,
		Symbol:   move.Symbol,
		PlayerID: playerID,
		PlayedAt: now,
	}
	game.Board = next
	game.Moves = append(game.Moves, record)

	// A move that fills the board and completes a line is a win
	switch {
	case board.CheckWin(game.Board, move.Symbol):
		game.Winner = model.OutcomeFor(move.Symbol)
		game.FinishedAt = &now
	case board.CheckDraw(game.Board):
		game.Winner = model.OutcomeDraw
		game.FinishedAt = &now
	default:
		game.CurrentPlayerID = game.PlayerFor(move.Symbol.Opponent())
	}

	if game.IsOver() {
		c.logger.Info("game finished",
			slog.String("winner", string(game.Winner)),
			slog.Int("moves", len(game.Moves)),
		)
	}

	return record, nil
}

// WinningLine returns the cells of the winning line of a won game
func WinningLine(game *model.GameState) []int {
	if game.Winner != model.OutcomeX && game.Winner != model.OutcomeO {
		return nil
	}
	line, ok := board.WinningLine(game.Board, model.Symbol(game.Winner))
	if !ok {
		return nil
	}
	return line[:]
}
