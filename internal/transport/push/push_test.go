package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe3d/internal/api/request"
	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/testutil"
)

type wireEvent struct {
	Type      string          `json:"type"`
	LobbyID   string          `json:"lobbyId"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// echoHandler mimics the socket handler closely enough to drive the transport
func echoHandler(m *HubManager) FrameHandler {
	return FrameHandlerFunc(func(ctx context.Context, c *Client, f request.Frame) {
		switch f.Type {
		case request.FrameSubscribe:
			m.Subscribe(c, f.LobbyCode)
			c.Send(model.NewEvent(f.LobbyCode, model.LobbyStatePayload{Lobby: model.Lobby{Code: f.LobbyCode}}))
		case request.FrameLeave:
			m.Unsubscribe(c, f.LobbyCode)
		case request.FramePing:
			c.Send(model.NewEvent(c.Lobby(), model.PongPayload{}))
		case request.FrameMakeMove:
			panic("boom")
		}
	})
}

func startServer(m *HubManager) *httptest.Server {
	handler := echoHandler(m)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = m.Serve(w, r, model.PlayerID(r.URL.Query().Get("player")), handler)
	}))
}

func dial(t *testing.T, server *httptest.Server, player string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?player=" + player
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	return ws
}

func send(t *testing.T, ws *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func read(t *testing.T, ws *websocket.Conn) wireEvent {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev wireEvent
	require.NoError(t, ws.ReadJSON(&ev))
	return ev
}

type PushSuite struct {
	suite.Suite
	manager *HubManager
	server  *httptest.Server
}

func TestPushSuite(t *testing.T) {
	suite.Run(t, new(PushSuite))
}

func (s *PushSuite) SetupTest() {
	s.manager = NewHubManager(DefaultConfig(), testutil.NopLogger())
	s.server = startServer(s.manager)
}

func (s *PushSuite) TearDownTest() {
	s.manager.Close()
	s.server.Close()
}

func (s *PushSuite) subscribe(player, code string) *websocket.Conn {
	ws := dial(s.T(), s.server, player)
	send(s.T(), ws, `{"type":"subscribe","lobbyId":"`+code+`"}`)
	ev := read(s.T(), ws)
	s.Require().Equal("lobby_state", ev.Type)
	s.Require().Equal(code, ev.LobbyID)
	return ws
}

func (s *PushSuite) TestSubscribeThenReceiveBroadcast() {
	ws := s.subscribe("p1", "AAAA1111")
	defer ws.Close()

	s.manager.Publish(context.Background(), model.NewEvent("AAAA1111", model.GameStartedPayload{
		Game: model.GameState{CurrentPlayerID: "p1"},
	}))

	ev := read(s.T(), ws)
	s.Equal("game_started", ev.Type)
	s.Equal("AAAA1111", ev.LobbyID)
	s.Positive(ev.Timestamp)
	s.Contains(string(ev.Data), `"currentPlayerId":"p1"`)
}

func (s *PushSuite) TestBroadcastReachesEveryFollower() {
	ws1 := s.subscribe("p1", "AAAA1111")
	defer ws1.Close()
	ws2 := s.subscribe("p2", "AAAA1111")
	defer ws2.Close()

	s.manager.Publish(context.Background(), model.NewEvent("AAAA1111", model.PlayerJoinedPayload{
		Player: model.Player{ID: "p2"}, PlayerCount: 2, Status: model.LobbyStatusReady,
	}))

	s.Equal("player_joined", read(s.T(), ws1).Type)
	s.Equal("player_joined", read(s.T(), ws2).Type)
}

func (s *PushSuite) TestOtherLobbiesAreIsolated() {
	wsA := s.subscribe("p1", "AAAA1111")
	defer wsA.Close()
	wsB := s.subscribe("p2", "BBBB2222")
	defer wsB.Close()

	s.manager.Publish(context.Background(), model.NewEvent("AAAA1111", model.GameStartedPayload{}))
	s.Equal("game_started", read(s.T(), wsA).Type)

	send(s.T(), wsB, `{"type":"ping"}`)
	s.Equal("pong", read(s.T(), wsB).Type)
}

func (s *PushSuite) TestOrderIsPreserved() {
	ws := s.subscribe("p1", "AAAA1111")
	defer ws.Close()

	for i := 0; i < 20; i++ {
		s.manager.Publish(context.Background(), model.NewEvent("AAAA1111", model.GameUpdatePayload{
			Move: model.MoveRecord{X: i},
		}))
	}
	for i := 0; i < 20; i++ {
		ev := read(s.T(), ws)
		var data struct {
			Move struct {
				X int `json:"x"`
			} `json:"move"`
		}
		s.Require().NoError(json.Unmarshal(ev.Data, &data))
		s.Equal(i, data.Move.X)
	}
}

func (s *PushSuite) TestMalformedFrameReportsErrorToSender() {
	ws := dial(s.T(), s.server, "p1")
	defer ws.Close()

	send(s.T(), ws, `not json`)
	ev := read(s.T(), ws)
	s.Equal("error", ev.Type)
	s.Contains(string(ev.Data), `"kind":"invalid_input"`)

	send(s.T(), ws, `{"type":"ping"}`)
	s.Equal("pong", read(s.T(), ws).Type)
}

func (s *PushSuite) TestHandlerPanicIsContained() {
	ws := s.subscribe("p1", "AAAA1111")
	defer ws.Close()

	send(s.T(), ws, `{"type":"make_move","lobbyId":"AAAA1111","data":{"x":0,"y":0,"z":0,"symbol":"X"}}`)
	ev := read(s.T(), ws)
	s.Equal("error", ev.Type)
	s.Contains(string(ev.Data), `"kind":"internal"`)
	s.NotContains(string(ev.Data), "boom")

	send(s.T(), ws, `{"type":"ping"}`)
	s.Equal("pong", read(s.T(), ws).Type)
}

func (s *PushSuite) TestLeaveStopsDelivery() {
	ws := s.subscribe("p1", "AAAA1111")
	defer ws.Close()

	send(s.T(), ws, `{"type":"leave","lobbyId":"AAAA1111"}`)
	s.Eventually(func() bool {
		return s.manager.GetHub("AAAA1111").ClientCount() == 0
	}, time.Second, 10*time.Millisecond)

	s.manager.Publish(context.Background(), model.NewEvent("AAAA1111", model.GameStartedPayload{}))
	send(s.T(), ws, `{"type":"ping"}`)
	s.Equal("pong", read(s.T(), ws).Type)
}

func (s *PushSuite) TestDisconnectRemovesClient() {
	ws := s.subscribe("p1", "AAAA1111")
	s.Equal(1, s.manager.ClientCount())

	s.Require().NoError(ws.Close())

	s.Eventually(func() bool {
		return s.manager.ClientCount() == 0 && s.manager.GetHub("AAAA1111").ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *PushSuite) TestRemoveHubDetachesFollowers() {
	ws := s.subscribe("p1", "AAAA1111")
	defer ws.Close()

	s.True(s.manager.RemoveHub("AAAA1111"))
	s.False(s.manager.RemoveHub("AAAA1111"))
	s.Nil(s.manager.GetHub("AAAA1111"))

	// Publishing to a lobby without a hub is a no-op
	s.manager.Publish(context.Background(), model.NewEvent("AAAA1111", model.GameStartedPayload{}))
	send(s.T(), ws, `{"type":"ping"}`)
	ev := read(s.T(), ws)
	s.Equal("pong", ev.Type)
	s.Empty(ev.LobbyID)
}

func (s *PushSuite) TestPlayerLeftDetachesOnlyTheLeaver() {
	stay := s.subscribe("p1", "AAAA1111")
	defer stay.Close()
	gone := s.subscribe("p2", "AAAA1111")
	defer gone.Close()

	s.manager.Publish(context.Background(), model.NewEvent("AAAA1111", model.PlayerLeftPayload{
		PlayerID: "p2", HostID: "p1", PlayerCount: 1, Status: model.LobbyStatusWaiting,
	}))
	// The leaver still hears about their own departure
	s.Equal("player_left", read(s.T(), stay).Type)
	s.Equal("player_left", read(s.T(), gone).Type)

	s.Eventually(func() bool {
		return s.manager.GetHub("AAAA1111").ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	s.manager.Publish(context.Background(), model.NewEvent("AAAA1111", model.GameStartedPayload{}))
	s.Equal("game_started", read(s.T(), stay).Type)

	send(s.T(), gone, `{"type":"ping"}`)
	ev := read(s.T(), gone)
	s.Equal("pong", ev.Type)
	s.Empty(ev.LobbyID)
}

func (s *PushSuite) TestLobbyClosedArrivesBeforeHubIsRemoved() {
	ws := s.subscribe("p1", "AAAA1111")
	defer ws.Close()

	s.manager.Publish(context.Background(), model.NewEvent("AAAA1111", model.LobbyClosedPayload{Reason: "expired"}))
	s.manager.RemoveHub("AAAA1111")

	ev := read(s.T(), ws)
	s.Equal("lobby_closed", ev.Type)
	s.JSONEq(`{"reason":"expired"}`, string(ev.Data))
}

func TestUnsubscribePlayer(t *testing.T) {
	m := NewHubManager(DefaultConfig(), testutil.NopLogger())
	defer m.Close()
	phone := newClient(nil, "p1", m.cfg, m.logger)
	laptop := newClient(nil, "p1", m.cfg, m.logger)
	other := newClient(nil, "p2", m.cfg, m.logger)
	for _, c := range []*Client{phone, laptop, other} {
		m.Subscribe(c, "AAAA1111")
	}

	assert.Equal(t, 2, m.UnsubscribePlayer("AAAA1111", "p1"))
	assert.Empty(t, phone.Lobby())
	assert.Empty(t, laptop.Lobby())
	assert.True(t, m.GetHub("AAAA1111").Has(other))

	assert.Zero(t, m.UnsubscribePlayer("AAAA1111", "p1"))
	assert.Zero(t, m.UnsubscribePlayer("BBBB2222", "p2"))
}

func TestDetachSparesLaterSubscriptions(t *testing.T) {
	logger := testutil.NopLogger()
	hub := NewHub("AAAA1111", logger)
	before := newClient(nil, "p1", DefaultConfig(), logger)
	require.True(t, hub.Register(before))

	hub.BroadcastThenDetach([]byte("left"), "p1")
	after := newClient(nil, "p1", DefaultConfig(), logger)
	require.True(t, hub.Register(after))
	hub.drain()

	assert.False(t, hub.Has(before))
	assert.True(t, hub.Has(after))
	assert.Len(t, before.send, 1)
	assert.Len(t, after.send, 1)
}

func TestCloseDeliversQueuedBroadcasts(t *testing.T) {
	logger := testutil.NopLogger()
	hub := NewHub("AAAA1111", logger)
	c := newClient(nil, "p1", DefaultConfig(), logger)
	require.True(t, hub.Register(c))

	hub.Broadcast([]byte("one"))
	hub.BroadcastThenDetachAll([]byte("closed"))
	hub.Close()

	assert.Len(t, c.send, 2)
	assert.Zero(t, hub.ClientCount())
}

func TestDeadPeerIsPruned(t *testing.T) {
	m := NewHubManager(Config{PongWait: 300 * time.Millisecond, PingPeriod: 100 * time.Millisecond}, testutil.NopLogger())
	defer m.Close()
	server := startServer(m)
	defer server.Close()

	// Never reading means pings are never answered
	ws := dial(t, server, "p1")
	defer ws.Close()

	assert.Eventually(t, func() bool { return m.ClientCount() == 0 }, 3*time.Second, 20*time.Millisecond)
}

func TestLivePeerStaysConnected(t *testing.T) {
	m := NewHubManager(Config{PongWait: 300 * time.Millisecond, PingPeriod: 100 * time.Millisecond}, testutil.NopLogger())
	defer m.Close()
	server := startServer(m)
	defer server.Close()

	ws := dial(t, server, "p1")
	defer ws.Close()
	go func() {
		// Reading answers pings through the default ping handler
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	time.Sleep(time.Second)
	assert.Equal(t, 1, m.ClientCount())
}

func TestSlowClientIsDroppedAlone(t *testing.T) {
	logger := testutil.NopLogger()
	hub := NewHub("AAAA1111", logger)
	slow := newClient(nil, "slow", Config{SendBuffer: 1}, logger)
	fast := newClient(nil, "fast", Config{SendBuffer: 8}, logger)
	require.True(t, hub.Register(slow))
	require.True(t, hub.Register(fast))

	hub.deliver([]byte("one"))
	hub.deliver([]byte("two"))

	assert.True(t, slow.Closed())
	assert.False(t, hub.Has(slow))
	assert.False(t, fast.Closed())
	assert.True(t, hub.Has(fast))
	assert.Len(t, fast.send, 2)
}

func TestSubscribeMovesBetweenLobbies(t *testing.T) {
	m := NewHubManager(DefaultConfig(), testutil.NopLogger())
	defer m.Close()
	c := newClient(nil, "p1", m.cfg, m.logger)

	m.Subscribe(c, "AAAA1111")
	m.Subscribe(c, "BBBB2222")

	assert.Equal(t, model.LobbyCode("BBBB2222"), c.Lobby())
	assert.False(t, m.GetHub("AAAA1111").Has(c))
	assert.True(t, m.GetHub("BBBB2222").Has(c))

	assert.Equal(t, 1, m.CleanupEmptyHubs())
	assert.Equal(t, []model.LobbyCode{"BBBB2222"}, m.HubCodes())

	m.RemoveHub("BBBB2222")
	assert.Empty(t, c.Lobby())
	assert.Empty(t, m.HubCodes())
}

func TestClosedHubRejectsRegistration(t *testing.T) {
	logger := testutil.NopLogger()
	hub := NewHub("AAAA1111", logger)
	hub.Close()
	assert.False(t, hub.Register(newClient(nil, "p1", DefaultConfig(), logger)))

	// Broadcast on a closed hub returns instead of blocking
	for i := 0; i < broadcastBuffer+1; i++ {
		hub.Broadcast([]byte("x"))
	}
}

func TestEncodeEvent(t *testing.T) {
	b, err := encodeEvent(model.Event{
		Type:      model.EventGameEnded,
		LobbyCode: "AAAA1111",
		Timestamp: 42,
		Payload: model.GameEndedPayload{
			Winner:   model.OutcomeX,
			WinnerID: "p1",
			Line:     []int{0, 4, 8},
		},
	})
	require.NoError(t, err)

	var ev wireEvent
	require.NoError(t, json.Unmarshal(b, &ev))
	assert.Equal(t, "game_ended", ev.Type)
	assert.Equal(t, "AAAA1111", ev.LobbyID)
	assert.Equal(t, int64(42), ev.Timestamp)
	assert.Contains(t, string(ev.Data), `"winner":"X"`)
	assert.Contains(t, string(ev.Data), `"line":[0,4,8]`)
}
