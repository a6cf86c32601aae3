package game

import "github.com/MJE43/lilyhop/internal/engine"

// Input is a discrete player action.
type Input uint8

const (
	InputNone Input = iota
	InputJump
	InputMoveLeft
	InputMoveRight
)

func (in Input) String() string {
	switch in {
	case InputJump:
		return "jump"
	case InputMoveLeft:
		return "left"
	case InputMoveRight:
		return "right"
	default:
		return "none"
	}
}

// ParseInput maps a wire action name to an Input.
func ParseInput(s string) (Input, bool) {
	switch s {
	case "jump":
		return InputJump, true
	case "left":
		return InputMoveLeft, true
	case "right":
		return InputMoveRight, true
	}
	return InputNone, false
}

// Sim owns one run: the field, the frog and the progression.
// It must only be used from a single goroutine.
type Sim struct {
	params   Params
	field    *Field
	frog     Frog
	progress *Progression
	tick     uint64
	events   []Event
}

// NewSim builds a simulation whose field is drawn from seed.
func NewSim(p Params, seed string) *Sim {
	return NewSimWithSource(p, engine.NewStream(seed, "field", 0, 0))
}

// NewSimWithSource builds a simulation drawing from an arbitrary source.
func NewSimWithSource(p Params, src Source) *Sim {
	s := &Sim{
		params:   p,
		field:    NewField(p, src),
		progress: NewProgression(p.Thresholds),
	}
	s.placeFrog()
	return s
}

// Reset starts a new run. The field is repopulated to its initial layout
// and the high score survives.
func (s *Sim) Reset() {
	s.progress.Reset()
	s.field.Reset()
	s.tick = 0
	s.events = s.events[:0]
	s.placeFrog()
}

func (s *Sim) placeFrog() {
	s.frog = Frog{Y: s.params.GroundY}
	if pad := s.field.QueryOccupant(0, 0); pad != nil {
		s.frog.occupant = pad
		s.field.Occupy(pad)
	}
}

// Apply handles one input. Inputs are ignored after game over and, for
// movement, while airborne.
func (s *Sim) Apply(in Input) {
	if s.progress.GameOver() || s.frog.Jumping {
		return
	}
	switch in {
	case InputJump:
		s.frog.Jumping = true
		s.frog.VY = s.params.JumpPower
		s.frog.Z += s.params.JumpDistance
		s.field.Release(s.frog.occupant)
		s.frog.occupant = nil
		s.frog.OffsetX = 0
		s.emit(Event{Kind: EventJump})
	case InputMoveLeft:
		s.nudge(s.params.LateralStep)
	case InputMoveRight:
		s.nudge(-s.params.LateralStep)
	}
}

// Left is +x: the camera looks down -z, so the screen is mirrored.
func (s *Sim) nudge(dx float64) {
	s.frog.X += dx
	if occ := s.frog.occupant; occ != nil {
		s.frog.OffsetX = s.frog.X - occ.X
	}
}

// Step advances the run by dt frames.
func (s *Sim) Step(dt float64) {
	if s.progress.GameOver() {
		return
	}
	s.tick++

	s.field.Advance(dt)
	if occ := s.frog.occupant; occ != nil && !occ.Stationary {
		s.frog.X = occ.X + s.frog.OffsetX
	}

	if s.frog.Jumping {
		s.frog.Y += s.frog.VY * dt
		s.frog.VY -= s.params.Gravity * dt
		if s.frog.Y <= s.params.GroundY {
			s.land()
			if s.progress.GameOver() {
				return
			}
		}
	}

	s.field.Recycle(s.frog.Z)
	s.field.EnsureAhead(s.frog.Z)
}

func (s *Sim) land() {
	s.frog.Y = s.params.GroundY
	s.frog.Jumping = false
	s.frog.VY = 0

	pad := s.field.QueryOccupant(s.frog.X, s.frog.Z)
	out := s.progress.OnLand(pad)
	if out.GameOver {
		s.emit(Event{Kind: EventGameOver})
		if out.NewHighScore {
			s.emit(Event{Kind: EventNewHighScore})
		}
		return
	}

	s.frog.occupant = pad
	s.field.Occupy(pad)
	s.frog.OffsetX = s.frog.X - pad.X
	s.emit(Event{Kind: EventLanded, PadID: pad.ID, From: out.From, To: out.To})
	if out.BiomeChanged {
		s.field.Restyle(out.To)
		s.emit(Event{Kind: EventBiomeChanged, PadID: pad.ID, From: out.From, To: out.To})
	}
}

func (s *Sim) emit(e Event) {
	e.Tick = s.tick
	e.Score = s.progress.Score()
	s.events = append(s.events, e)
}

// Drain returns and clears the pending events.
func (s *Sim) Drain() []Event {
	if len(s.events) == 0 {
		return nil
	}
	out := make([]Event, len(s.events))
	copy(out, s.events)
	s.events = s.events[:0]
	return out
}

// SetHighScore seeds the high score, typically from persistent storage.
func (s *Sim) SetHighScore(n int) { s.progress.SetHighScore(n) }

func (s *Sim) Tick() uint64 { return s.tick }
func (s *Sim) Score() int { return s.progress.Score() }
func (s *Sim) HighScore() int { return s.progress.HighScore() }
func (s *Sim) GameOver() bool { return s.progress.GameOver() }
func (s *Sim) Biome() Biome { return s.progress.Biome() }
func (s *Sim) Params() Params { return s.params }
func (s *Sim) Frog() Frog { return s.frog }
func (s *Sim) Lilypads() []Lilypad { return s.field.Pads() }

// Draws reports how many bytes of the seed stream the field has consumed.
// Sources that do not count report 0.
func (s *Sim) Draws() uint64 {
	if c, ok := s.field.rng.(interface{ Cursor() uint64 }); ok {
		return c.Cursor()
	}
	return 0
}

// Snapshot is a read-only copy of the run for renderers and pilots.
type Snapshot struct {
	Tick      uint64   `json:"tick"`
	Score     int      `json:"score"`
	HighScore int      `json:"highScore"`
	Biome     Biome    `json:"biome"`
	GameOver  bool     `json:"gameOver"`
	Entities  []Entity `json:"entities"`
}

// Snapshot copies the current state. The frog is always the first entity.
func (s *Sim) Snapshot() Snapshot {
	pads := s.field.Pads()
	snap := Snapshot{
		Tick:      s.tick,
		Score:     s.progress.Score(),
		HighScore: s.progress.HighScore(),
		Biome:     s.progress.Biome(),
		GameOver:  s.progress.GameOver(),
		Entities:  make([]Entity, 0, len(pads)+1),
	}
	snap.Entities = append(snap.Entities, Entity{
		Kind:    KindFrog,
		X:       s.frog.X,
		Y:       s.frog.Y,
		Z:       s.frog.Z,
		Jumping: s.frog.Jumping,
		Biome:   snap.Biome,
	})
	var occupied int
	if s.frog.occupant != nil {
		occupied = s.frog.occupant.ID
	}
	for _, p := range pads {
		snap.Entities = append(snap.Entities, Entity{
			Kind:       KindLilypad,
			ID:         p.ID,
			X:          p.X,
			Z:          p.Z,
			Radius:     p.Radius,
			VX:         p.Speed * float64(p.Direction),
			Stationary: p.Stationary,
			Occupied:   p.ID == occupied,
			Biome:      p.Biome,
		})
	}
	return snap
}

// Lilypads returns the lilypad entities of a snapshot.
func (s Snapshot) Lilypads() []Entity {
	out := make([]Entity, 0, len(s.Entities))
	for _, e := range s.Entities {
		if e.Kind == KindLilypad {
			out = append(out, e)
		}
	}
	return out
}

// Frog returns the frog entity of a snapshot.
func (s Snapshot) Frog() Entity {
	for _, e := range s.Entities {
		if e.Kind == KindFrog {
			return e
		}
	}
	return Entity{Kind: KindFrog}
}
