package game

// Lilypad is a platform the frog lands on.
type Lilypad struct {
	ID            int
	X, Z          float64
	Size          float64
	Radius        float64
	Stationary    bool
	Speed         float64
	Direction     int // +1 or -1
	OriginalSpeed float64
	Biome         Biome
}

// Freeze permanently stops lateral motion.
func (l *Lilypad) Freeze() {
	l.Stationary = true
	l.Speed = 0
}

func (l *Lilypad) occupy() {
	l.Speed = 0
}

func (l *Lilypad) release() {
	if !l.Stationary {
		l.Speed = l.OriginalSpeed
	}
}

func (l *Lilypad) contains(x, z float64) bool {
	dx := x - l.X
	dz := z - l.Z
	return dx*dx+dz*dz < l.Radius*l.Radius
}
