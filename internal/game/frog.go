package game

// Frog is the player. While grounded on a moving pad its x follows the
// pad plus OffsetX; while airborne it rises and falls under gravity.
type Frog struct {
	X, Y, Z  float64
	VY       float64
	Jumping  bool
	OffsetX  float64
	occupant *Lilypad
}

// Occupant returns the pad under the frog, or nil while airborne.
func (f Frog) Occupant() *Lilypad { return f.occupant }
