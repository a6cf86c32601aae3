package game

import (
	"errors"
	"fmt"
	"math"
)

// Thresholds are the scores at which each later biome begins.
type Thresholds struct {
	Snow   int
	Desert int
	Space  int
}

// Params holds every tunable of the lilypad field and the frog.
// Distances are world units; speeds and gravity are per frame at dt=1.
type Params struct {
	LateralRange     float64
	TrailingDistance float64

	MaxLilypads     int
	InitialLilypads int
	InitialSpacing  float64
	MinSpacing      float64
	MaxSpacing      float64
	SpawnSpread     float64

	MinSize     float64
	MaxSize     float64
	RadiusScale float64
	MinSpeed    float64
	MaxSpeed    float64

	JumpPower    float64
	Gravity      float64
	JumpDistance float64
	LateralStep  float64
	GroundY      float64

	Thresholds Thresholds
}

// DefaultParams returns the standard tuning.
func DefaultParams() Params {
	return Params{
		LateralRange:     10,
		TrailingDistance: 10,

		MaxLilypads:     8,
		InitialLilypads: 5,
		InitialSpacing:  5,
		MinSpacing:      5,
		MaxSpacing:      5,
		SpawnSpread:     10,

		MinSize:     1,
		MaxSize:     2,
		RadiusScale: 1.2,
		MinSpeed:    0.05,
		MaxSpeed:    0.1,

		JumpPower:    0.1,
		Gravity:      0.02,
		JumpDistance: 5,
		LateralStep:  0.1,
		GroundY:      0.5,

		Thresholds: Thresholds{Snow: 50, Desert: 101, Space: 150},
	}
}

// Validate reports the first inconsistent value.
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"lateral range", p.LateralRange},
		{"trailing distance", p.TrailingDistance},
		{"initial spacing", p.InitialSpacing},
		{"min spacing", p.MinSpacing},
		{"max spacing", p.MaxSpacing},
		{"spawn spread", p.SpawnSpread},
		{"min size", p.MinSize},
		{"max size", p.MaxSize},
		{"radius scale", p.RadiusScale},
		{"min speed", p.MinSpeed},
		{"max speed", p.MaxSpeed},
		{"jump power", p.JumpPower},
		{"gravity", p.Gravity},
		{"jump distance", p.JumpDistance},
		{"lateral step", p.LateralStep},
		{"ground y", p.GroundY},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("game: %s must be finite", f.name)
		}
	}

	switch {
	case p.LateralRange <= 0:
		return errors.New("game: lateral range must be positive")
	case p.TrailingDistance < 0:
		return errors.New("game: trailing distance must not be negative")
	case p.MaxLilypads < 1:
		return errors.New("game: max lilypads must be at least 1")
	case p.InitialLilypads < 1 || p.InitialLilypads > p.MaxLilypads:
		return fmt.Errorf("game: initial lilypads must be within [1, %d]", p.MaxLilypads)
	case p.InitialSpacing <= 0:
		return errors.New("game: initial spacing must be positive")
	case p.MinSpacing <= 0 || p.MaxSpacing < p.MinSpacing:
		return errors.New("game: spacing bounds must satisfy 0 < min <= max")
	case p.SpawnSpread < 0 || p.SpawnSpread > 2*p.LateralRange:
		return fmt.Errorf("game: spawn spread must be within [0, %g]", 2*p.LateralRange)
	case p.MinSize <= 0 || p.MaxSize < p.MinSize:
		return errors.New("game: size bounds must satisfy 0 < min <= max")
	case p.RadiusScale <= 0:
		return errors.New("game: radius scale must be positive")
	case p.MinSpeed < 0 || p.MaxSpeed < p.MinSpeed:
		return errors.New("game: speed bounds must satisfy 0 <= min <= max")
	case p.JumpPower <= 0 || p.Gravity <= 0:
		return errors.New("game: jump power and gravity must be positive")
	case p.JumpDistance <= 0:
		return errors.New("game: jump distance must be positive")
	}
	t := p.Thresholds
	if t.Snow <= 0 || t.Desert <= t.Snow || t.Space <= t.Desert {
		return fmt.Errorf("game: biome thresholds must increase: snow=%d desert=%d space=%d", t.Snow, t.Desert, t.Space)
	}
	return nil
}
