package scripting

import (
	"fmt"
	"math"

	"github.com/MJE43/lilyhop/internal/game"
)

// Pilot chooses one input per tick.
type Pilot interface {
	Decide(snap game.Snapshot) (game.Input, error)
}

// AirTicks is the number of Step(1) calls a jump stays airborne under p.
func AirTicks(p game.Params) int {
	y, vy := p.GroundY, p.JumpPower
	for t := 1; t <= 10000; t++ {
		y += vy
		vy -= p.Gravity
		if y <= p.GroundY {
			return t
		}
	}
	return 0
}

// GreedyPilot jumps when the pad in the next row will be under the frog
// on landing and otherwise walks toward the closest landing point.
type GreedyPilot struct {
	params game.Params
	air    int
	margin float64
}

func NewGreedyPilot(p game.Params) *GreedyPilot {
	return &GreedyPilot{params: p, air: AirTicks(p), margin: 0.8}
}

func (g *GreedyPilot) Decide(snap game.Snapshot) (game.Input, error) {
	frog := snap.Frog()
	if snap.GameOver || frog.Jumping {
		return game.InputNone, nil
	}
	landZ := frog.Z + g.params.JumpDistance

	bestDist := math.Inf(1)
	bestX := frog.X
	found := false
	for _, pad := range snap.Lilypads() {
		dz := pad.Z - landZ
		reach := pad.Radius * g.margin
		if dz*dz >= reach*reach {
			continue
		}
		x := g.predictX(pad, g.air)
		halfWidth := math.Sqrt(reach*reach - dz*dz)
		if math.Abs(frog.X-x) < halfWidth {
			return game.InputJump, nil
		}
		// where the pad will be once the frog has walked there
		steps := int(math.Abs(frog.X-x) / g.params.LateralStep)
		x = g.predictX(pad, steps+g.air)
		if d := math.Abs(frog.X - x); d < bestDist {
			bestDist, bestX, found = d, x, true
		}
	}
	if !found || bestDist < g.params.LateralStep/2 {
		return game.InputNone, nil
	}
	// left is +x
	if bestX > frog.X {
		return game.InputMoveLeft, nil
	}
	return game.InputMoveRight, nil
}

// predictX replays the field's bounce rule for ticks steps.
func (g *GreedyPilot) predictX(pad game.Entity, ticks int) float64 {
	if pad.Stationary || pad.VX == 0 {
		return pad.X
	}
	x, vx := pad.X, pad.VX
	limit := g.params.LateralRange
	for i := 0; i < ticks; i++ {
		x += vx
		if x > limit && vx > 0 || x < -limit && vx < 0 {
			vx = -vx
		}
	}
	return x
}

// ScriptPilot asks a script's decide() for every input.
type ScriptPilot struct {
	vm     *VM
	params game.Params
}

// NewScriptPilot runs source and checks that it defines decide().
func NewScriptPilot(source string, p game.Params) (*ScriptPilot, error) {
	vm := NewVM()
	if err := vm.Execute(source); err != nil {
		return nil, err
	}
	if !vm.HasDecide() {
		return nil, fmt.Errorf("script does not define decide()")
	}
	return &ScriptPilot{vm: vm, params: p}, nil
}

func (s *ScriptPilot) Decide(snap game.Snapshot) (game.Input, error) {
	s.vm.SetState(snap, s.params)
	return s.vm.CallDecide()
}

// Stopped reports whether the script called stop().
func (s *ScriptPilot) Stopped() bool { return s.vm.IsStopRequested() }

// Logs returns what the script printed with log() or console.log().
func (s *ScriptPilot) Logs() []LogEntry { return s.vm.GetLogs() }
