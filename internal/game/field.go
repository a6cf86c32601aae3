package game

// Source supplies uniform floats in [0, 1).
type Source interface {
	Float64() float64
}

// Field is the rolling window of lilypads in front of the frog.
// Pads are kept in insertion order, which is also increasing z.
type Field struct {
	params Params
	rng    Source
	pads   []*Lilypad
	nextID int
	biome  Biome
}

// NewField creates a field populated with its initial layout.
func NewField(p Params, rng Source) *Field {
	f := &Field{params: p, rng: rng}
	f.Reset()
	return f
}

// Reset discards every pad and lays out the starting pads: a stationary
// pad at the origin followed by moving pads at fixed spacing.
func (f *Field) Reset() {
	f.pads = f.pads[:0]
	f.biome = Forest
	origin := f.spawn(0, 0)
	origin.Freeze()
	for i := 1; i < f.params.InitialLilypads; i++ {
		f.spawn(f.lateralStart(), float64(i)*f.params.InitialSpacing)
	}
}

// Advance moves every non-stationary pad by speed*direction*dt and turns
// it around once it has passed the lateral range.
func (f *Field) Advance(dt float64) {
	limit := f.params.LateralRange
	for _, p := range f.pads {
		if p.Stationary {
			continue
		}
		p.X += p.Speed * float64(p.Direction) * dt
		if p.X > limit && p.Direction > 0 {
			p.Direction = -1
		} else if p.X < -limit && p.Direction < 0 {
			p.Direction = 1
		}
	}
}

// QueryOccupant returns the first pad, in insertion order, whose centre
// is closer than its radius to (x, z). Overlapping pads are not ranked.
func (f *Field) QueryOccupant(x, z float64) *Lilypad {
	for _, p := range f.pads {
		if p.contains(x, z) {
			return p
		}
	}
	return nil
}

// Recycle drops pads that trail playerZ by more than the trailing
// distance and returns how many were removed.
func (f *Field) Recycle(playerZ float64) int {
	cutoff := playerZ - f.params.TrailingDistance
	kept := f.pads[:0]
	for _, p := range f.pads {
		if p.Z >= cutoff {
			kept = append(kept, p)
		}
	}
	removed := len(f.pads) - len(kept)
	for i := len(kept); i < len(f.pads); i++ {
		f.pads[i] = nil
	}
	f.pads = kept
	return removed
}

// EnsureAhead appends pads beyond the last one until the window ahead of
// playerZ holds MaxLilypads. It returns how many were created.
func (f *Field) EnsureAhead(playerZ float64) int {
	cutoff := playerZ - f.params.TrailingDistance
	ahead := 0
	for _, p := range f.pads {
		if p.Z >= cutoff {
			ahead++
		}
	}

	created := 0
	for ; ahead < f.params.MaxLilypads; ahead++ {
		z := playerZ
		if n := len(f.pads); n > 0 {
			z = f.pads[n-1].Z + f.spacing()
		}
		f.spawn(f.lateralStart(), z)
		created++
	}
	return created
}

// Restyle switches the visual biome of the field. Motion is untouched.
func (f *Field) Restyle(b Biome) {
	f.biome = b
	for _, p := range f.pads {
		p.Biome = b
	}
}

// Occupy stops a pad while the frog stands on it.
func (f *Field) Occupy(p *Lilypad) {
	if p != nil {
		p.occupy()
	}
}

// Release restores a pad's original speed unless it has been frozen.
func (f *Field) Release(p *Lilypad) {
	if p != nil {
		p.release()
	}
}

// Len returns the number of live pads.
func (f *Field) Len() int { return len(f.pads) }

// Biome returns the current visual biome.
func (f *Field) Biome() Biome { return f.biome }

// Pads returns a copy of the live pads in insertion order.
func (f *Field) Pads() []Lilypad {
	out := make([]Lilypad, len(f.pads))
	for i, p := range f.pads {
		out[i] = *p
	}
	return out
}

func (f *Field) spawn(x, z float64) *Lilypad {
	size := f.between(f.params.MinSize, f.params.MaxSize)
	dir := 1
	if f.rng.Float64() < 0.5 {
		dir = -1
	}
	speed := f.between(f.params.MinSpeed, f.params.MaxSpeed)

	f.nextID++
	p := &Lilypad{
		ID:            f.nextID,
		X:             x,
		Z:             z,
		Size:          size,
		Radius:        size * f.params.RadiusScale,
		Speed:         speed,
		Direction:     dir,
		OriginalSpeed: speed,
		Biome:         f.biome,
	}
	f.pads = append(f.pads, p)
	return p
}

func (f *Field) lateralStart() float64 {
	return (f.rng.Float64() - 0.5) * f.params.SpawnSpread
}

func (f *Field) spacing() float64 {
	return f.between(f.params.MinSpacing, f.params.MaxSpacing)
}

func (f *Field) between(lo, hi float64) float64 {
	return lo + f.rng.Float64()*(hi-lo)
}
