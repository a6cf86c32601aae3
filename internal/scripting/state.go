package scripting

import (
	"github.com/dop251/goja"

	"github.com/MJE43/lilyhop/internal/game"
)

// injectConstants sets the action names a script may return.
func injectConstants(vm *goja.Runtime) {
	vm.Set("JUMP", game.InputJump.String())
	vm.Set("LEFT", game.InputMoveLeft.String())
	vm.Set("RIGHT", game.InputMoveRight.String())
	vm.Set("WAIT", game.InputNone.String())
}

// injectState exposes the snapshot as plain JS values. Scripts get copies;
// writing to them has no effect on the run.
func injectState(vm *goja.Runtime, snap game.Snapshot, p game.Params) {
	frog := snap.Frog()
	vm.Set("frog", map[string]interface{}{
		"x":       frog.X,
		"y":       frog.Y,
		"z":       frog.Z,
		"jumping": frog.Jumping,
	})

	entities := snap.Lilypads()
	pads := make([]interface{}, 0, len(entities))
	for _, e := range entities {
		pads = append(pads, map[string]interface{}{
			"id":         e.ID,
			"x":          e.X,
			"z":          e.Z,
			"radius":     e.Radius,
			"vx":         e.VX,
			"stationary": e.Stationary,
			"occupied":   e.Occupied,
		})
	}
	vm.Set("pads", pads)

	vm.Set("score", snap.Score)
	vm.Set("highscore", snap.HighScore)
	vm.Set("biome", snap.Biome.String())
	vm.Set("tick", snap.Tick)
	vm.Set("gameover", snap.GameOver)

	vm.Set("jumpdistance", p.JumpDistance)
	vm.Set("lateralrange", p.LateralRange)
	vm.Set("lateralstep", p.LateralStep)
	vm.Set("airticks", AirTicks(p))
}
