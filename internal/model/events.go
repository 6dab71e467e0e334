package model

// EventType identifies the kind of event delivered to lobby subscribers
type EventType string

const (
	EventPlayerJoined EventType = "player_joined"
	EventPlayerLeft   EventType = "player_left"
	EventGameStarted  EventType = "game_started"
	EventGameUpdate   EventType = "game_update"
	EventGameEnded    EventType = "game_ended"
	EventLobbyClosed  EventType = "lobby_closed"

	// Sent only to the connection that caused them
	EventError      EventType = "error"
	EventLobbyState EventType = "lobby_state"
	EventPong       EventType = "pong"
)

// Payload is implemented by every event body. The set of payloads is closed.
type Payload interface {
	EventType() EventType
}

// Event is a lobby-scoped notification. Timestamp is assigned by the poll
// buffer in unix milliseconds and is zero for events that were never buffered.
type Event struct {
	Type      EventType
	LobbyCode LobbyCode
	Timestamp int64
	Payload   Payload
}

// NewEvent wraps a payload for the given lobby
func NewEvent(code LobbyCode, payload Payload) Event {
	return Event{
		Type:      payload.EventType(),
		LobbyCode: code,
		Payload:   payload,
	}
}

// PlayerJoinedPayload is sent when a player takes a seat
type PlayerJoinedPayload struct {
	Player      Player
	PlayerCount int
	Status      LobbyStatus
}

// PlayerLeftPayload is sent when a player gives up their seat
type PlayerLeftPayload struct {
	PlayerID    PlayerID
	DisplayName string
	HostID      PlayerID // Host after the departure, empty if the lobby was deleted
	PlayerCount int
	Status      LobbyStatus
	Abandoned   bool // A game was in progress and has been discarded
}

// LobbyClosedPayload is the last event of a lobby removed by the sweeper
type LobbyClosedPayload struct {
	Reason string // "expired" or "empty"
}

// GameStartedPayload is sent when the host starts a game
type GameStartedPayload struct {
	Game GameState
}

// GameUpdatePayload is sent after every accepted move that does not end the game
type GameUpdatePayload struct {
	Game GameState
	Move MoveRecord
}

// GameEndedPayload is sent after the move that ends the game
type GameEndedPayload struct {
	Winner   Outcome
	WinnerID PlayerID // Empty on a draw
	Line     []int    // Winning cell indices, empty on a draw
	Game     GameState
	Move     MoveRecord
}

// ErrorPayload reports a rejected request to its sender
type ErrorPayload struct {
	Kind    ErrorKind
	Message string
}

// LobbyStatePayload is a snapshot sent to a connection when it subscribes
type LobbyStatePayload struct {
	Lobby Lobby
}

// PongPayload answers an application level ping
type PongPayload struct{}

func (PlayerJoinedPayload) EventType() EventType { return EventPlayerJoined }
func (PlayerLeftPayload) EventType() EventType   { return EventPlayerLeft }
func (LobbyClosedPayload) EventType() EventType  { return EventLobbyClosed }
func (GameStartedPayload) EventType() EventType  { return EventGameStarted }
func (GameUpdatePayload) EventType() EventType   { return EventGameUpdate }
func (GameEndedPayload) EventType() EventType    { return EventGameEnded }
func (ErrorPayload) EventType() EventType        { return EventError }
func (LobbyStatePayload) EventType() EventType   { return EventLobbyState }
func (PongPayload) EventType() EventType         { return EventPong }
