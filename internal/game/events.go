package game

import "fmt"

type EventKind uint8

const (
	EventJump EventKind = iota
	EventLanded
	EventBiomeChanged
	EventGameOver
	EventNewHighScore
)

func (k EventKind) String() string {
	switch k {
	case EventJump:
		return "jump"
	case EventLanded:
		return "landed"
	case EventBiomeChanged:
		return "biome_changed"
	case EventGameOver:
		return "game_over"
	case EventNewHighScore:
		return "new_high_score"
	default:
		return fmt.Sprintf("event(%d)", k)
	}
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(text []byte) error {
	for c := EventJump; c <= EventNewHighScore; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("game: unknown event kind %q", text)
}

// Event is emitted by the simulation for collaborators such as renderers,
// audio and score persistence. Events never feed back into the simulation.
type Event struct {
	Kind  EventKind `json:"kind"`
	Tick  uint64    `json:"tick"`
	Score int       `json:"score"`
	PadID int       `json:"padId,omitempty"`
	From  Biome     `json:"from"`
	To    Biome     `json:"to"`
}
