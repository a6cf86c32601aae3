package game

import "fmt"

// EntityKind tags each entity in a snapshot.
type EntityKind uint8

const (
	KindFrog EntityKind = iota
	KindLilypad
)

func (k EntityKind) String() string {
	switch k {
	case KindFrog:
		return "frog"
	case KindLilypad:
		return "lilypad"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

func (k EntityKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EntityKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "frog":
		*k = KindFrog
	case "lilypad":
		*k = KindLilypad
	default:
		return fmt.Errorf("game: unknown entity kind %q", text)
	}
	return nil
}

// Entity is the read-only view of one scene object handed to renderers.
type Entity struct {
	Kind       EntityKind `json:"kind"`
	ID         int        `json:"id"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Z          float64    `json:"z"`
	Radius     float64    `json:"radius,omitempty"`
	VX         float64    `json:"vx,omitempty"`
	Stationary bool       `json:"stationary,omitempty"`
	Occupied   bool       `json:"occupied,omitempty"`
	Jumping    bool       `json:"jumping,omitempty"`
	Biome      Biome      `json:"biome"`
}
