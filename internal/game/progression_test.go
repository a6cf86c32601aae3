package game

import "testing"

func TestBiomeForScore(t *testing.T) {
	th := DefaultParams().Thresholds
	tests := []struct {
		score int
		want  Biome
	}{
		{0, Forest},
		{49, Forest},
		{50, Snow},
		{100, Snow},
		{101, Desert},
		{149, Desert},
		{150, Space},
		{10000, Space},
	}
	for _, tt := range tests {
		if got := th.BiomeFor(tt.score); got != tt.want {
			t.Errorf("BiomeFor(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestBiomeForCustomThresholds(t *testing.T) {
	th := Thresholds{Snow: 2, Desert: 4, Space: 6}
	want := []Biome{Forest, Forest, Snow, Snow, Desert, Desert, Space}
	for score, b := range want {
		if got := th.BiomeFor(score); got != b {
			t.Errorf("BiomeFor(%d) = %v, want %v", score, got, b)
		}
	}
}

func TestOnLandWithoutPadEndsGame(t *testing.T) {
	p := NewProgression(DefaultParams().Thresholds)
	for i := 0; i < 3; i++ {
		p.OnLand(&Lilypad{})
	}

	out := p.OnLand(nil)
	if !out.GameOver || !p.GameOver() {
		t.Fatalf("expected game over")
	}
	if out.Scored || p.Score() != 3 {
		t.Fatalf("score = %d scored=%v, want 3 and no score", p.Score(), out.Scored)
	}
	if !out.NewHighScore || p.HighScore() != 3 {
		t.Fatalf("high score = %d, want 3", p.HighScore())
	}
}

func TestOnLandIncrementsByOne(t *testing.T) {
	p := NewProgression(DefaultParams().Thresholds)
	for i := 1; i <= 200; i++ {
		out := p.OnLand(&Lilypad{})
		if !out.Scored || p.Score() != i {
			t.Fatalf("landing %d: score = %d", i, p.Score())
		}
		if p.Biome() != DefaultParams().Thresholds.BiomeFor(p.Score()) {
			t.Fatalf("biome %v inconsistent with score %d", p.Biome(), p.Score())
		}
	}
}

func TestOnLandAnchorsPadBeforeBoundary(t *testing.T) {
	th := DefaultParams().Thresholds
	p := NewProgression(th)
	for p.Score() < th.Snow-2 {
		p.OnLand(&Lilypad{})
	}

	early := &Lilypad{Speed: 0.1, OriginalSpeed: 0.1}
	if out := p.OnLand(early); out.Anchored || early.Stationary {
		t.Fatalf("pad frozen two steps before boundary")
	}

	anchor := &Lilypad{Speed: 0.1, OriginalSpeed: 0.1}
	out := p.OnLand(anchor)
	if !out.Anchored || !anchor.Stationary || anchor.Speed != 0 {
		t.Fatalf("boundary pad not frozen: %+v", anchor)
	}
	if !out.BiomeChanged || out.From != Forest || out.To != Snow {
		t.Fatalf("outcome = %+v, want forest -> snow", out)
	}
	if p.Score() != th.Snow {
		t.Fatalf("score = %d, want %d", p.Score(), th.Snow)
	}
}

func TestProgressionFrozenAfterGameOver(t *testing.T) {
	p := NewProgression(DefaultParams().Thresholds)
	p.OnLand(&Lilypad{})
	p.OnLand(nil)

	pad := &Lilypad{}
	out := p.OnLand(pad)
	if out.Scored || p.Score() != 1 {
		t.Fatalf("landing after game over changed score to %d", p.Score())
	}
}

func TestProgressionResetKeepsHighScore(t *testing.T) {
	p := NewProgression(DefaultParams().Thresholds)
	p.SetHighScore(40)
	for i := 0; i < 60; i++ {
		p.OnLand(&Lilypad{})
	}
	p.OnLand(nil)

	p.Reset()
	if p.Score() != 0 || p.GameOver() || p.Biome() != Forest {
		t.Fatalf("after reset: score=%d gameOver=%v biome=%v", p.Score(), p.GameOver(), p.Biome())
	}
	if p.HighScore() != 60 {
		t.Fatalf("high score = %d, want 60", p.HighScore())
	}

	p.SetHighScore(10)
	if p.HighScore() != 60 {
		t.Fatalf("SetHighScore lowered high score to %d", p.HighScore())
	}
}
