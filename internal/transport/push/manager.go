// Package push delivers lobby events over WebSocket connections.
package push

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/tictactoe3d/internal/api/request"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/transport"
)

// Config holds connection tuning
type Config struct {
	WriteWait      time.Duration // Time allowed to write a message to the peer
	PongWait       time.Duration // Time allowed to read the next pong from the peer
	PingPeriod     time.Duration // Must be less than PongWait
	SendBuffer     int           // Outbound messages queued per connection
	MaxMessageSize int64         // Largest inbound frame accepted
}

// DefaultConfig returns default connection tuning
func DefaultConfig() Config {
	return Config{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		SendBuffer:     64,
		MaxMessageSize: 4096,
	}
}

// FrameHandler acts on validated inbound frames
type FrameHandler interface {
	HandleFrame(ctx context.Context, c *Client, frame request.Frame)
}

// OpenHandler is optionally implemented by a FrameHandler that wants to act
// once the connection is established, before any frame is read
type OpenHandler interface {
	HandleOpen(ctx context.Context, c *Client)
}

// FrameHandlerFunc adapts a function to FrameHandler
type FrameHandlerFunc func(ctx context.Context, c *Client, frame request.Frame)

// HandleFrame calls f
func (f FrameHandlerFunc) HandleFrame(ctx context.Context, c *Client, frame request.Frame) {
	f(ctx, c, frame)
}

// HubManager owns every connection and the per-lobby hubs they follow
type HubManager struct {
	cfg      Config
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	hubs    map[model.LobbyCode]*Hub
	clients map[string]*Client
}

// Ensure HubManager implements Sink
var _ transport.Sink = (*HubManager)(nil)

// NewHubManager creates a new HubManager
func NewHubManager(cfg Config, logger *slog.Logger) *HubManager {
	def := DefaultConfig()
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	return &HubManager{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "push")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The mini-app is embedded by Telegram clients on arbitrary origins
			CheckOrigin: func(*http.Request) bool { return true },
		},
		hubs:    make(map[model.LobbyCode]*Hub),
		clients: make(map[string]*Client),
	}
}

// Serve upgrades the request and runs the connection until it closes.
// The caller must have authenticated playerID already.
func (m *HubManager) Serve(w http.ResponseWriter, r *http.Request, playerID model.PlayerID, handler FrameHandler) error {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	c := newClient(conn, playerID, m.cfg, m.logger)
	m.mu.Lock()
	m.clients[c.id] = c
	m.mu.Unlock()
	c.logger.Info("websocket connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()

	ctx := context.WithoutCancel(r.Context())
	if oh, ok := handler.(OpenHandler); ok {
		oh.HandleOpen(ctx, c)
	}
	c.readPump(ctx, func(ctx context.Context, c *Client, data []byte) {
		m.dispatch(ctx, c, data, handler)
	})

	c.Close()
	<-writerDone
	m.removeClient(c)
	c.logger.Info("websocket disconnected",
		slog.Duration("connection_duration", time.Since(c.connectedAt)))
	return nil
}

// dispatch decodes one frame and hands it to the handler. A panic is
// contained to the frame that caused it.
func (m *HubManager) dispatch(ctx context.Context, c *Client, data []byte, handler FrameHandler) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("panic handling frame",
				slog.Any("error", rec),
				slog.String("stack", string(debug.Stack())))
			c.SendError(c.Lobby(), fmt.Errorf("panic: %v", rec))
		}
	}()

	frame, err := request.DecodeFrame(data)
	if err != nil {
		c.SendError(c.Lobby(), err)
		return
	}
	handler.HandleFrame(ctx, c, frame)
}

// Subscribe makes the client follow a lobby, leaving any previous one
func (m *HubManager) Subscribe(c *Client, code model.LobbyCode) {
	prev := c.setLobby(code)

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev != "" && prev != code {
		if hub, ok := m.hubs[prev]; ok {
			hub.Unregister(c)
		}
	}

	hub, ok := m.hubs[code]
	if !ok {
		hub = NewHub(code, m.logger)
		m.hubs[code] = hub
		go hub.Run()
	}
	hub.Register(c)
}

// Unsubscribe stops the client following the lobby, if it does
func (m *HubManager) Unsubscribe(c *Client, code model.LobbyCode) {
	if !c.clearLobby(code) {
		return
	}
	if hub := m.GetHub(code); hub != nil {
		hub.Unregister(c)
	}
}

// UnsubscribePlayer stops every connection of a player following the lobby
// and reports how many were detached
func (m *HubManager) UnsubscribePlayer(code model.LobbyCode, playerID model.PlayerID) int {
	hub := m.GetHub(code)
	if hub == nil {
		return 0
	}
	return hub.DetachPlayer(playerID)
}

// Publish broadcasts an event to the lobby's followers. Lobbies nobody
// follows are skipped. A player who left stops following the lobby once
// their player_left has been delivered, and nobody follows a closed lobby.
func (m *HubManager) Publish(_ context.Context, event model.Event) {
	hub := m.GetHub(event.LobbyCode)
	if hub == nil {
		return
	}
	msg, err := encodeEvent(event)
	if err != nil {
		m.logger.Error("failed to encode event",
			slog.String("lobby_code", string(event.LobbyCode)),
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()))
		return
	}
	switch p := event.Payload.(type) {
	case model.PlayerLeftPayload:
		hub.BroadcastThenDetach(msg, p.PlayerID)
	case model.LobbyClosedPayload:
		hub.BroadcastThenDetachAll(msg)
	default:
		hub.Broadcast(msg)
	}
}

// GetHub returns the hub for a lobby, or nil if it doesn't exist
func (m *HubManager) GetHub(code model.LobbyCode) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[code]
}

// RemoveHub detaches every follower of a lobby and closes its hub
func (m *HubManager) RemoveHub(code model.LobbyCode) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[code]
	if !ok {
		return false
	}
	hub.Close()
	delete(m.hubs, code)
	m.logger.Info("push hub removed", slog.String("lobby_code", string(code)))
	return true
}

// CleanupEmptyHubs removes hubs with no clients and reports how many went
func (m *HubManager) CleanupEmptyHubs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for code, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, code)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("push empty hubs cleaned up", slog.Int("removed", removed))
	}
	return removed
}

// HubCodes returns the lobbies that currently have a hub, sorted
func (m *HubManager) HubCodes() []model.LobbyCode {
	m.mu.RLock()
	codes := make([]model.LobbyCode, 0, len(m.hubs))
	for code := range m.hubs {
		codes = append(codes, code)
	}
	m.mu.RUnlock()
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// ClientCount returns the number of open connections
func (m *HubManager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Close disconnects every client and stops every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.clients {
		c.Close()
	}
	for code, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, code)
	}
	m.logger.Info("push manager closed", slog.Int("clients", len(m.clients)))
}

// removeClient forgets a closed connection
func (m *HubManager) removeClient(c *Client) {
	if code := c.Lobby(); code != "" {
		m.Unsubscribe(c, code)
	}
	m.mu.Lock()
	delete(m.clients, c.id)
	m.mu.Unlock()
}
