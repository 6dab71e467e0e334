package request

import (
	"encoding/json"

	"github.com/mcoot/tictactoe3d/internal/model"
)

// FrameType identifies an inbound WebSocket message
type FrameType string

const (
	FrameSubscribe FrameType = "subscribe"
	FrameMakeMove  FrameType = "make_move"
	FrameLeave     FrameType = "leave"
	FramePing      FrameType = "ping"
)

// Frame is a decoded and validated inbound WebSocket message.
// LobbyCode is empty only for ping; Move is set only for make_move.
type Frame struct {
	Type      FrameType
	LobbyCode model.LobbyCode
	Move      model.Move
}

// rawFrame is the wire shape: {"type": "...", "lobbyId": "...", "data": {...}}
type rawFrame struct {
	Type    FrameType       `json:"type"`
	LobbyID string          `json:"lobbyId"`
	Data    json.RawMessage `json:"data"`
}

// DecodeFrame parses an inbound message. Unknown types and malformed
// bodies are rejected as invalid input.
func DecodeFrame(b []byte) (Frame, error) {
	var raw rawFrame
	if err := json.Unmarshal(b, &raw); err != nil {
		return Frame{}, model.InvalidInput("malformed message")
	}

	switch raw.Type {
	case FramePing:
		return Frame{Type: FramePing}, nil
	case FrameSubscribe, FrameLeave:
		code, err := ParseLobbyCode(raw.LobbyID)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Type: raw.Type, LobbyCode: code}, nil
	case FrameMakeMove:
		code, err := ParseLobbyCode(raw.LobbyID)
		if err != nil {
			return Frame{}, err
		}
		if len(raw.Data) == 0 {
			return Frame{}, model.InvalidInput("make_move requires data")
		}
		var mr MoveRequest
		if err := json.Unmarshal(raw.Data, &mr); err != nil {
			return Frame{}, model.InvalidInput("malformed move")
		}
		move, err := mr.ToMove()
		if err != nil {
			return Frame{}, err
		}
		return Frame{Type: FrameMakeMove, LobbyCode: code, Move: move}, nil
	case "":
		return Frame{}, model.InvalidInput("message type is required")
	default:
		return Frame{}, model.InvalidInput("unknown message type %q", raw.Type)
	}
}
