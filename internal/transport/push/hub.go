package push

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcoot/tictactoe3d/internal/model"
)

// broadcastBuffer is the number of queued messages per lobby
const broadcastBuffer = 256

// outbound is a queued broadcast. Once it is delivered, the clients in
// detach (or every client, with detachAll) stop following the lobby.
type outbound struct {
	msg       []byte
	detach    []*Client
	detachAll bool
}

// Hub fans a lobby's events out to the clients following it. Membership
// changes are synchronous; broadcasts are queued and delivered by Run in order.
type Hub struct {
	lobbyCode model.LobbyCode
	logger    *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool

	broadcast chan outbound
	done      chan struct{}
	stopped   chan struct{}
	claimed   atomic.Bool // set by whichever of Run and Close drains the queue
	closeOnce sync.Once
}

// NewHub creates a new Hub for a lobby
func NewHub(lobbyCode model.LobbyCode, logger *slog.Logger) *Hub {
	return &Hub{
		lobbyCode: lobbyCode,
		logger:    logger.With(slog.String("lobby_code", string(lobbyCode))),
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan outbound, broadcastBuffer),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Run delivers queued broadcasts until the hub is closed. Whatever is still
// queued at that point is delivered before Run returns.
func (h *Hub) Run() {
	if !h.claimed.CompareAndSwap(false, true) {
		return
	}
	defer close(h.stopped)

	h.logger.Debug("push hub started")
	for {
		select {
		case out := <-h.broadcast:
			h.handle(out)
		case <-h.done:
			h.drain()
			h.logger.Debug("push hub stopped")
			return
		}
	}
}

// handle delivers one queued broadcast and applies its detach
func (h *Hub) handle(out outbound) {
	h.deliver(out.msg)
	switch {
	case out.detachAll:
		h.detachAll()
	case len(out.detach) > 0:
		h.detach(out.detach)
	}
}

// drain handles every broadcast still queued
func (h *Hub) drain() {
	for {
		select {
		case out := <-h.broadcast:
			h.handle(out)
		default:
			return
		}
	}
}

// deliver hands a message to every client. Clients whose buffer is full are
// closed and removed; the others are unaffected.
func (h *Hub) deliver(msg []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	dropped := 0
	for _, c := range targets {
		if !c.enqueue(msg) {
			h.Unregister(c)
			c.clearLobby(h.lobbyCode)
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("push broadcast dropped clients",
			slog.Int("sent", len(targets)-dropped),
			slog.Int("dropped", dropped))
	}
}

// Register adds a client. It reports false if the hub is already closed.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.logger.Info("push client registered",
		slog.String("connection_id", c.id),
		slog.String("player_id", string(c.playerID)),
		slog.Int("total_clients", len(h.clients)))
	return true
}

// Unregister removes a client
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	h.logger.Info("push client unregistered",
		slog.String("connection_id", c.id),
		slog.String("player_id", string(c.playerID)),
		slog.Duration("connection_duration", time.Since(c.connectedAt)),
		slog.Int("total_clients", len(h.clients)))
}

// DetachPlayer removes every client of a player and reports how many went
func (h *Hub) DetachPlayer(playerID model.PlayerID) int {
	return h.detach(h.playerClients(playerID))
}

// playerClients returns the registered clients of a player
func (h *Hub) playerClients(playerID model.PlayerID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var found []*Client
	for c := range h.clients {
		if c.playerID == playerID {
			found = append(found, c)
		}
	}
	return found
}

// detach removes the given clients if they are still registered
func (h *Hub) detach(clients []*Client) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for _, c := range clients {
		if _, ok := h.clients[c]; !ok {
			continue
		}
		delete(h.clients, c)
		c.clearLobby(h.lobbyCode)
		h.logger.Info("push client detached",
			slog.String("connection_id", c.id),
			slog.String("player_id", string(c.playerID)),
			slog.Int("total_clients", len(h.clients)))
		removed++
	}
	return removed
}

// detachAll removes every client
func (h *Hub) detachAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.clearLobby(h.lobbyCode)
	}
	clear(h.clients)
}

// Broadcast queues a message for every client. It waits for queue space
// rather than dropping, so lobby order is never broken.
func (h *Hub) Broadcast(msg []byte) {
	h.enqueue(outbound{msg: msg})
}

// BroadcastThenDetach queues a message and, once it is delivered, stops the
// player's current connections following the lobby. Connections the player
// registers after the call are kept.
func (h *Hub) BroadcastThenDetach(msg []byte, playerID model.PlayerID) {
	h.enqueue(outbound{msg: msg, detach: h.playerClients(playerID)})
}

// BroadcastThenDetachAll queues a final message for every client
func (h *Hub) BroadcastThenDetachAll(msg []byte) {
	h.enqueue(outbound{msg: msg, detachAll: true})
}

func (h *Hub) enqueue(out outbound) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.broadcast <- out:
	case <-h.done:
	}
}

// Close delivers what is already queued, then detaches every client and
// stops Run. Connections stay open.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
		close(h.done)

		if h.claimed.CompareAndSwap(false, true) {
			// Run never started
			h.drain()
		} else {
			<-h.stopped
		}
		h.detachAll()
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Has reports whether the client is registered
func (h *Hub) Has(c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[c]
	return ok
}
