package play

import (
	"encoding/json"

	"github.com/MJE43/lilyhop/internal/game"
)

const ProtocolVersion = 1

const (
	MsgHello   = "hello"
	MsgInput   = "input"
	MsgReset   = "reset"
	MsgWelcome = "welcome"
	MsgState   = "state"
	MsgEvent   = "event"
	MsgError   = "error"
)

const (
	SimTickHz   = 60
	BroadcastHz = 30
)

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

// client -> server

type Hello struct {
	V         int    `json:"v"`
	Name      string `json:"name,omitempty"`
	HighScore int    `json:"highScore,omitempty"` // from the client's local slot
	Seed      string `json:"seed,omitempty"`
}

type InputMsg struct {
	Action string `json:"action"` // jump | left | right
}

// server -> client

type Welcome struct {
	SessionID   string `json:"sessionId"`
	Seed        string `json:"seed"`
	TickHz      int    `json:"tickHz"`
	BroadcastHz int    `json:"broadcastHz"`
	HighScore   int    `json:"highScore"`
}

type State = game.Snapshot

type EventMsg = game.Event

type ErrorMsg struct {
	Message string `json:"message"`
}
