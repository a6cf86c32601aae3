package game

import (
	"math"
	"testing"

	"github.com/MJE43/lilyhop/internal/engine"
)

type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

func TestFieldResetInitialLayout(t *testing.T) {
	p := DefaultParams()
	f := NewField(p, constSource(0.5))

	pads := f.Pads()
	if len(pads) != p.InitialLilypads {
		t.Fatalf("len(pads) = %d, want %d", len(pads), p.InitialLilypads)
	}
	if !pads[0].Stationary || pads[0].X != 0 || pads[0].Z != 0 {
		t.Fatalf("first pad = %+v, want stationary at origin", pads[0])
	}
	for i, pad := range pads {
		if want := float64(i) * p.InitialSpacing; pad.Z != want {
			t.Errorf("pad %d z = %v, want %v", i, pad.Z, want)
		}
		if want := pad.Size * p.RadiusScale; pad.Radius != want {
			t.Errorf("pad %d radius = %v, want %v", i, pad.Radius, want)
		}
	}
}

func TestFieldAdvanceReflectsAtRange(t *testing.T) {
	f := NewField(DefaultParams(), constSource(0.5))
	pad := &Lilypad{ID: 99, X: 9.95, Speed: 0.1, Direction: 1, OriginalSpeed: 0.1}
	f.pads = []*Lilypad{pad}

	f.Advance(1)
	if pad.Direction != -1 {
		t.Fatalf("direction = %d after crossing range, want -1", pad.Direction)
	}
	f.Advance(1)
	if math.Abs(pad.X-9.95) > 1e-9 {
		t.Fatalf("x = %v, want 9.95 after turning back", pad.X)
	}
}

func TestFieldAdvanceSkipsStationary(t *testing.T) {
	f := NewField(DefaultParams(), constSource(0.5))
	pad := &Lilypad{X: 3, Speed: 0.1, Direction: 1, OriginalSpeed: 0.1}
	pad.Freeze()
	f.pads = []*Lilypad{pad}

	for i := 0; i < 100; i++ {
		f.Advance(1)
	}
	if pad.X != 3 {
		t.Fatalf("stationary pad moved to %v", pad.X)
	}
}

func TestFieldPadsStayWithinLateralRange(t *testing.T) {
	p := DefaultParams()
	f := NewField(p, engine.NewStream("range", "field", 0, 0))

	for tick := 0; tick < 20000; tick++ {
		f.Advance(1)
		for _, pad := range f.pads {
			if pad.Stationary {
				continue
			}
			if math.Abs(pad.X) > p.LateralRange+pad.Speed+1e-9 {
				t.Fatalf("tick %d: pad %d at x=%v exceeds range", tick, pad.ID, pad.X)
			}
		}
	}
}

func TestFieldOccupiedPadDoesNotDrift(t *testing.T) {
	f := NewField(DefaultParams(), constSource(0.5))
	pad := &Lilypad{X: 10.05, Speed: 0.1, Direction: -1, OriginalSpeed: 0.1}
	f.pads = []*Lilypad{pad}
	f.Occupy(pad)

	for i := 0; i < 5; i++ {
		f.Advance(1)
	}
	if pad.Direction != -1 {
		t.Fatalf("occupied pad flipped direction while parked outside range")
	}
	f.Release(pad)
	f.Advance(1)
	if pad.X >= 10.05 {
		t.Fatalf("released pad moved outward: x=%v", pad.X)
	}
}

func TestFieldQueryOccupantMiss(t *testing.T) {
	f := NewField(DefaultParams(), engine.NewStream("miss", "field", 0, 0))
	rng := engine.NewStream("miss", "probe", 0, 0)

	for i := 0; i < 2000; i++ {
		x := (rng.Float64() - 0.5) * 30
		z := rng.Float64()*40 - 5
		got := f.QueryOccupant(x, z)
		for _, pad := range f.pads {
			d := math.Hypot(x-pad.X, z-pad.Z)
			if got == nil && d < pad.Radius {
				t.Fatalf("(%v,%v) is inside pad %d but query returned none", x, z, pad.ID)
			}
		}
		if got != nil && math.Hypot(x-got.X, z-got.Z) >= got.Radius {
			t.Fatalf("query returned pad %d that does not contain (%v,%v)", got.ID, x, z)
		}
	}

	if got := f.QueryOccupant(100, 100); got != nil {
		t.Fatalf("far point returned pad %d", got.ID)
	}
}

func TestFieldQueryOccupantFirstMatchWins(t *testing.T) {
	f := NewField(DefaultParams(), constSource(0.5))
	first := &Lilypad{ID: 1, X: 1, Z: 0, Radius: 2}
	nearer := &Lilypad{ID: 2, X: 0, Z: 0, Radius: 2}
	f.pads = []*Lilypad{first, nearer}

	if got := f.QueryOccupant(0, 0); got != first {
		t.Fatalf("QueryOccupant returned pad %d, want the first inserted pad", got.ID)
	}
}

func TestFieldRecycleDropsTrailingPads(t *testing.T) {
	f := NewField(DefaultParams(), constSource(0.5))

	removed := f.Recycle(25)
	if removed != 3 {
		t.Fatalf("Recycle removed %d pads, want 3", removed)
	}
	pads := f.Pads()
	if len(pads) != 2 || pads[0].Z != 15 || pads[1].Z != 20 {
		t.Fatalf("unexpected pads after recycle: %+v", pads)
	}
}

func TestFieldEnsureAheadFillsWindow(t *testing.T) {
	p := DefaultParams()
	f := NewField(p, constSource(0.5))

	created := f.EnsureAhead(0)
	if created != p.MaxLilypads-p.InitialLilypads {
		t.Fatalf("EnsureAhead created %d pads, want %d", created, p.MaxLilypads-p.InitialLilypads)
	}
	pads := f.Pads()
	for i := 1; i < len(pads); i++ {
		if gap := pads[i].Z - pads[i-1].Z; gap < p.MinSpacing || gap > p.MaxSpacing {
			t.Errorf("gap between pad %d and %d = %v", i-1, i, gap)
		}
		if pads[i].X < -p.SpawnSpread/2 || pads[i].X > p.SpawnSpread/2 {
			t.Errorf("pad %d spawned at x=%v", i, pads[i].X)
		}
	}
	if again := f.EnsureAhead(0); again != 0 {
		t.Fatalf("full window created %d more pads", again)
	}
}

func TestFieldRestyleOnlyChangesBiome(t *testing.T) {
	f := NewField(DefaultParams(), engine.NewStream("style", "field", 0, 0))
	before := f.Pads()

	f.Restyle(Desert)
	after := f.Pads()
	for i := range before {
		if after[i].Biome != Desert {
			t.Errorf("pad %d biome = %v, want desert", i, after[i].Biome)
		}
		after[i].Biome = before[i].Biome
		if after[i] != before[i] {
			t.Errorf("restyle changed pad %d: %+v -> %+v", i, before[i], after[i])
		}
	}

	f.EnsureAhead(0)
	pads := f.Pads()
	if pads[len(pads)-1].Biome != Desert {
		t.Fatalf("new pads should spawn in the current biome")
	}
}
