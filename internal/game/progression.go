package game

// Progression tracks score, high score and the terminal game-over state.
// The biome is never stored; it is always derived from the score.
type Progression struct {
	thresholds Thresholds
	score      int
	highScore  int
	gameOver   bool
}

// Outcome describes what a single landing changed.
type Outcome struct {
	Scored       bool
	Anchored     bool
	BiomeChanged bool
	From, To     Biome
	GameOver     bool
	NewHighScore bool
}

// NewProgression starts at score 0 in the first biome.
func NewProgression(t Thresholds) *Progression {
	return &Progression{thresholds: t}
}

// OnLand resolves a touchdown. A nil pad ends the game without scoring.
// When the landing is the last step before a biome boundary the pad is
// frozen before the score is incremented, so it anchors the new biome.
// After game over OnLand changes nothing.
func (p *Progression) OnLand(pad *Lilypad) Outcome {
	if p.gameOver {
		return Outcome{GameOver: true}
	}
	if pad == nil {
		p.gameOver = true
		out := Outcome{GameOver: true}
		if p.score > p.highScore {
			p.highScore = p.score
			out.NewHighScore = true
		}
		return out
	}

	out := Outcome{Scored: true, From: p.Biome()}
	if p.thresholds.anchors(p.score) {
		pad.Freeze()
		out.Anchored = true
	}
	p.score++
	out.To = p.Biome()
	out.BiomeChanged = out.To != out.From
	return out
}

// Reset returns to a fresh run. The high score is kept.
func (p *Progression) Reset() {
	p.score = 0
	p.gameOver = false
}

func (p *Progression) Score() int { return p.score }
func (p *Progression) HighScore() int { return p.highScore }
func (p *Progression) GameOver() bool { return p.gameOver }
func (p *Progression) Biome() Biome { return p.thresholds.BiomeFor(p.score) }

// SetHighScore seeds the high score from persisted state. Lower values are ignored.
func (p *Progression) SetHighScore(n int) {
	if n > p.highScore {
		p.highScore = n
	}
}
