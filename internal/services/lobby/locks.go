package lobby

import (
	"sync"

	"github.com/mcoot/tictactoe3d/internal/model"
)

// lockTable hands out one mutex per lobby code. Entries are reference
// counted and removed once nobody holds or waits on them.
type lockTable struct {
	mu    sync.Mutex
	locks map[model.LobbyCode]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[model.LobbyCode]*lockEntry)}
}

// Lock blocks until the lobby's mutex is held and returns its release func
func (t *lockTable) Lock(code model.LobbyCode) func() {
	t.mu.Lock()
	entry, ok := t.locks[code]
	if !ok {
		entry = &lockEntry{}
		t.locks[code] = entry
	}
	entry.refs++
	t.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		t.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(t.locks, code)
		}
		t.mu.Unlock()
	}
}

// size returns the number of live entries
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
