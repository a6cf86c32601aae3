package play

import "github.com/MJE43/lilyhop/internal/game"

type Conn interface {
	Send([]byte) error
	Close() error
}

// Input: one player action
type Input struct {
	Input game.Input
}

// Reset: start a new run in the same session
type Reset struct{}

// Leave: issued on disconnect
type Leave struct{}

// Result is reported when a run ends.
type Result struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	Seed      string `json:"seed"`
	Score     int    `json:"score"`
	HighScore int    `json:"highScore"`
	Ticks     uint64 `json:"ticks"`
}
