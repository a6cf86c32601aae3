package scripting

import (
	"context"

	"github.com/MJE43/lilyhop/internal/game"
)

// stopper is implemented by pilots that can end a run early.
type stopper interface {
	Stopped() bool
}

// Result summarises a piloted run.
type Result struct {
	Ticks        uint64
	Score        int
	HighScore    int
	Biome        game.Biome
	GameOver     bool
	NewHighScore bool
	Jumps        int
	Biomes       []game.Event // biome_changed events in order
	Stopped      bool         // the pilot called stop()
	Draws        uint64       // seed stream bytes consumed by the field
}

// Run drives sim with pilot until game over, maxTicks, a pilot stop or
// ctx cancellation. onEvent, when set, sees every emitted event.
func Run(ctx context.Context, sim *game.Sim, pilot Pilot, maxTicks uint64, onEvent func(game.Event)) (Result, error) {
	var res Result
	for n := uint64(0); n < maxTicks && !sim.GameOver(); n++ {
		if err := ctx.Err(); err != nil {
			res.fill(sim)
			return res, err
		}

		in, err := pilot.Decide(sim.Snapshot())
		if err != nil {
			res.fill(sim)
			return res, err
		}
		sim.Apply(in)
		sim.Step(1)

		for _, ev := range sim.Drain() {
			switch ev.Kind {
			case game.EventJump:
				res.Jumps++
			case game.EventBiomeChanged:
				res.Biomes = append(res.Biomes, ev)
			case game.EventNewHighScore:
				res.NewHighScore = true
			}
			if onEvent != nil {
				onEvent(ev)
			}
		}

		if s, ok := pilot.(stopper); ok && s.Stopped() {
			res.Stopped = true
			break
		}
	}
	res.fill(sim)
	return res, nil
}

func (r *Result) fill(sim *game.Sim) {
	r.Ticks = sim.Tick()
	r.Score = sim.Score()
	r.HighScore = sim.HighScore()
	r.Biome = sim.Biome()
	r.GameOver = sim.GameOver()
	r.Draws = sim.Draws()
}
