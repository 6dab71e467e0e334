// Package poll keeps a short, ordered history of each lobby's events so
// clients without a push connection can catch up by timestamp.
package poll

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/tictactoe3d/internal/dependencies/clock"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/transport"
)

// DefaultCapacity is the number of events kept per lobby
const DefaultCapacity = 100

// Buffer is a transport.Sink that stores events per lobby. Each stored event
// is stamped with a unix millisecond timestamp strictly greater than the
// previous event in the same lobby.
type Buffer struct {
	capacity int
	clock    clock.Clock
	logger   *slog.Logger

	mu   sync.RWMutex
	logs map[model.LobbyCode]*lobbyLog
}

type lobbyLog struct {
	mu     sync.Mutex
	events []model.Event
	last   int64
}

// Ensure Buffer implements Sink
var _ transport.Sink = (*Buffer)(nil)

// New creates a Buffer keeping at most capacity events per lobby
func New(capacity int, clock clock.Clock, logger *slog.Logger) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		clock:    clock,
		logger:   logger,
		logs:     make(map[model.LobbyCode]*lobbyLog),
	}
}

// Publish stamps and appends the event, evicting the oldest past capacity
func (b *Buffer) Publish(_ context.Context, event model.Event) {
	log := b.logFor(event.LobbyCode)

	log.mu.Lock()
	defer log.mu.Unlock()

	ts := b.clock.Now().UnixMilli()
	if ts <= log.last {
		ts = log.last + 1
	}
	log.last = ts
	event.Timestamp = ts

	log.events = append(log.events, event)
	if over := len(log.events) - b.capacity; over > 0 {
		log.events = slices.Delete(log.events, 0, over)
	}
}

// FetchSince returns the lobby's events stamped strictly after since, oldest first
func (b *Buffer) FetchSince(code model.LobbyCode, since int64) []model.Event {
	b.mu.RLock()
	log, ok := b.logs[code]
	b.mu.RUnlock()
	if !ok {
		return []model.Event{}
	}

	log.mu.Lock()
	defer log.mu.Unlock()

	start := sort.Search(len(log.events), func(i int) bool {
		return log.events[i].Timestamp > since
	})
	return slices.Clone(log.events[start:])
}

// Trim drops events stamped before cutoff and returns how many were dropped.
// Lobby logs are kept so timestamps stay monotonic.
func (b *Buffer) Trim(cutoff time.Time) int {
	limit := cutoff.UnixMilli()

	b.mu.RLock()
	logs := make([]*lobbyLog, 0, len(b.logs))
	for _, log := range b.logs {
		logs = append(logs, log)
	}
	b.mu.RUnlock()

	dropped := 0
	for _, log := range logs {
		log.mu.Lock()
		n := sort.Search(len(log.events), func(i int) bool {
			return log.events[i].Timestamp >= limit
		})
		log.events = slices.Delete(log.events, 0, n)
		dropped += n
		log.mu.Unlock()
	}
	return dropped
}

// Remove forgets a lobby entirely
func (b *Buffer) Remove(code model.LobbyCode) {
	b.mu.Lock()
	delete(b.logs, code)
	b.mu.Unlock()
	b.logger.Debug("event buffer removed", slog.String("lobby_code", string(code)))
}

// Codes returns every lobby that has a log
func (b *Buffer) Codes() []model.LobbyCode {
	b.mu.RLock()
	defer b.mu.RUnlock()
	codes := make([]model.LobbyCode, 0, len(b.logs))
	for code := range b.logs {
		codes = append(codes, code)
	}
	return codes
}

// Len returns the number of events held for a lobby
func (b *Buffer) Len(code model.LobbyCode) int {
	b.mu.RLock()
	log, ok := b.logs[code]
	b.mu.RUnlock()
	if !ok {
		return 0
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	return len(log.events)
}

func (b *Buffer) logFor(code model.LobbyCode) *lobbyLog {
	b.mu.RLock()
	log, ok := b.logs[code]
	b.mu.RUnlock()
	if ok {
		return log
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if log, ok := b.logs[code]; ok {
		return log
	}
	log = &lobbyLog{}
	b.logs[code] = log
	return log
}
