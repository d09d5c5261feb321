package network

import (
	"encoding/json"
	"time"
)

// Server -> client message types.
const (
	MsgTypeState = "STATE"
	MsgTypeEvent = "EVENT"
	MsgTypeError = "ERROR"
)

// Client -> server command types.
const (
	CmdStart     = "START"
	CmdPause     = "PAUSE"
	CmdStop      = "STOP"
	CmdDirection = "DIRECTION"
	CmdKey       = "KEY"
	CmdAutopilot = "AUTOPILOT"
	CmdState     = "STATE"
)

// Message is the envelope of everything the server pushes to a client.
type Message struct {
	Type      string      `json:"type"`
	GameID    string      `json:"game_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Command is a request sent by the browser.
type Command struct {
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
	KeyCode   int    `json:"key_code,omitempty"`
	Enabled   *bool  `json:"enabled,omitempty"`
}

func encode(msgType, gameID string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		GameID:    gameID,
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	})
}
