package push

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/tictactoe3d/internal/api/apierr"
	"github.com/mcoot/tictactoe3d/internal/api/response"
	"github.com/mcoot/tictactoe3d/internal/model"
)

// Client is one WebSocket connection. A client follows at most one lobby at a time.
type Client struct {
	id          string
	playerID    model.PlayerID
	conn        *websocket.Conn
	cfg         Config
	logger      *slog.Logger
	connectedAt time.Time

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	lobby model.LobbyCode
}

func newClient(conn *websocket.Conn, playerID model.PlayerID, cfg Config, logger *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:          id,
		playerID:    playerID,
		conn:        conn,
		cfg:         cfg,
		logger:      logger.With(slog.String("connection_id", id), slog.String("player_id", string(playerID))),
		connectedAt: time.Now(),
		send:        make(chan []byte, cfg.SendBuffer),
		done:        make(chan struct{}),
	}
}

// ID returns the connection id
func (c *Client) ID() string {
	return c.id
}

// PlayerID returns the authenticated player behind the connection
func (c *Client) PlayerID() model.PlayerID {
	return c.playerID
}

// Lobby returns the lobby the client follows, or empty
func (c *Client) Lobby() model.LobbyCode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lobby
}

// setLobby records the followed lobby and returns the previous one
func (c *Client) setLobby(code model.LobbyCode) model.LobbyCode {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.lobby
	c.lobby = code
	return prev
}

// clearLobby forgets the lobby if it is still the one followed
func (c *Client) clearLobby(code model.LobbyCode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lobby != code {
		return false
	}
	c.lobby = ""
	return true
}

// Send delivers an event to this connection only
func (c *Client) Send(event model.Event) bool {
	msg, err := encodeEvent(event)
	if err != nil {
		c.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()))
		return false
	}
	return c.enqueue(msg)
}

// SendError reports a rejected request to this connection only
func (c *Client) SendError(code model.LobbyCode, err error) bool {
	return c.Send(model.NewEvent(code, model.ErrorPayload{
		Kind:    model.KindOf(err),
		Message: apierr.Describe(err).Message,
	}))
}

// enqueue queues a message without blocking. A client that cannot keep up is closed.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		c.logger.Warn("send buffer full, closing connection")
		c.Close()
		return false
	}
}

// Close stops the connection. The write pump sends a close frame on its way out.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Closed reports whether Close has been called
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// readPump reads frames until the connection fails. Each frame is handled
// synchronously so a client's requests apply in the order they were sent.
func (c *Client) readPump(ctx context.Context, dispatch func(context.Context, *Client, []byte)) {
	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		c.logger.Error("failed to set read deadline", slog.String("error", err.Error()))
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Warn("websocket read error", slog.String("error", err.Error()))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		dispatch(ctx, c, data)
	}
}

// writePump drains the send buffer and pings the peer every PingPeriod
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Warn("websocket write failed", slog.String("error", err.Error()))
				c.Close()
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

// encodeEvent renders the wire form of an event. Events that never passed
// through the poll buffer are stamped with the current time.
func encodeEvent(event model.Event) ([]byte, error) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	return json.Marshal(response.EventFromModel(event))
}
