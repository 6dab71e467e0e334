package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		kind ErrorKind
	}{
		{ErrUnauthorized, KindUnauthorized},
		{fmt.Errorf("%w: bad signature", ErrUnauthorized), KindUnauthorized},
		{ErrLobbyNotFound, KindNotFound},
		{ErrPlayerNotFound, KindNotFound},
		{ErrNotInLobby, KindNotFound},
		{ErrNotHost, KindForbidden},
		{ErrNotPlayerTurn, KindForbidden},
		{ErrLobbyFull, KindConflict},
		{ErrAlreadyInLobby, KindConflict},
		{ErrCellOccupied, KindConflict},
		{ErrGameComplete, KindConflict},
		{ErrWrongSymbol, KindInvalidInput},
		{ErrOutOfRange, KindInvalidInput},
		{InvalidInput("lobbyId is required"), KindInvalidInput},
		{errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}

func TestInvalidInputMessage(t *testing.T) {
	err := InvalidInput("unknown frame type %q", "dance")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, `invalid input: unknown frame type "dance"`, err.Error())
}

func TestLobbyCloneIsIndependent(t *testing.T) {
	finished := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	lobby := &Lobby{
		Code:    "ABCD1234",
		Players: []Player{{ID: "1"}, {ID: "2"}},
		HostID:  "1",
		Status:  LobbyStatusFinished,
		Game: &GameState{
			Players:    []Participant{{PlayerID: "1", Symbol: SymbolX}, {PlayerID: "2", Symbol: SymbolO}},
			Moves:      []MoveRecord{{Symbol: SymbolX, PlayerID: "1"}},
			FinishedAt: &finished,
		},
	}

	clone := lobby.Clone()
	clone.Players[0].DisplayName = "changed"
	clone.Game.Board[0] = SymbolO
	clone.Game.Moves[0].Symbol = SymbolO
	*clone.Game.FinishedAt = finished.Add(time.Hour)

	assert.Empty(t, lobby.Players[0].DisplayName)
	assert.Equal(t, SymbolNone, lobby.Game.Board[0])
	assert.Equal(t, SymbolX, lobby.Game.Moves[0].Symbol)
	assert.Equal(t, finished, *lobby.Game.FinishedAt)
}

func TestLobbyMembership(t *testing.T) {
	lobby := &Lobby{Players: []Player{{ID: "1"}}, HostID: "1"}

	assert.True(t, lobby.IsMember("1"))
	assert.False(t, lobby.IsMember("2"))
	assert.False(t, lobby.IsFull())
	require.NotNil(t, lobby.Host())
	assert.Equal(t, PlayerID("1"), lobby.Host().ID)

	lobby.Players = append(lobby.Players, Player{ID: "2"})
	assert.True(t, lobby.IsFull())
	assert.Equal(t, 1, lobby.MemberIndex("2"))
}

func TestNewEventTakesTypeFromPayload(t *testing.T) {
	event := NewEvent("ABCD1234", GameStartedPayload{})
	assert.Equal(t, EventGameStarted, event.Type)
	assert.Equal(t, LobbyCode("ABCD1234"), event.LobbyCode)
	assert.Zero(t, event.Timestamp)
}
