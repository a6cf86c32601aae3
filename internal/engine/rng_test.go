package engine

import (
	"testing"
)

func draw(seed, label string, nonce, cursor uint64, count int) []float64 {
	s := NewStream(seed, label, nonce, cursor)
	out := make([]float64, count)
	for i := range out {
		out[i] = s.Float64()
	}
	return out
}

func TestFloatsRange(t *testing.T) {
	tests := []struct {
		name   string
		seed   string
		label  string
		nonce  uint64
		cursor uint64
		count  int
	}{
		{name: "single float", seed: "pond", label: "field", nonce: 1, cursor: 0, count: 1},
		{name: "spans rounds", seed: "pond", label: "field", nonce: 1, cursor: 0, count: 40},
		{name: "cursor boundary", seed: "pond", label: "field", nonce: 1, cursor: 31, count: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			floats := draw(tt.seed, tt.label, tt.nonce, tt.cursor, tt.count)
			if len(floats) != tt.count {
				t.Fatalf("draw returned %d floats, want %d", len(floats), tt.count)
			}
			for i, f := range floats {
				if f < 0 || f >= 1 {
					t.Errorf("float %d out of range [0, 1): %f", i, f)
				}
			}
		})
	}
}

func TestStreamDeterministic(t *testing.T) {
	a := NewStream("seed-a", "field", 3, 0)
	b := NewStream("seed-a", "field", 3, 0)
	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d differs: %v != %v", i, x, y)
		}
	}
}

func TestStreamSeparatesInputs(t *testing.T) {
	base := draw("seed-a", "field", 1, 0, 4)
	variants := map[string][]float64{
		"seed":  draw("seed-b", "field", 1, 0, 4),
		"label": draw("seed-a", "other", 1, 0, 4),
		"nonce": draw("seed-a", "field", 2, 0, 4),
	}
	for name, got := range variants {
		same := true
		for i := range base {
			if base[i] != got[i] {
				same = false
				break
			}
		}
		if same {
			t.Errorf("changing %s did not change the stream", name)
		}
	}
}

func TestStreamCursorResume(t *testing.T) {
	s := NewStream("seed", "field", 0, 0)
	for i := 0; i < 9; i++ {
		s.Float64()
	}
	if s.Cursor() != 36 {
		t.Fatalf("Cursor() = %d, want 36", s.Cursor())
	}

	resumed := NewStream("seed", "field", 0, s.Cursor())
	if got, want := resumed.Float64(), s.Float64(); got != want {
		t.Fatalf("resumed draw = %v, want %v", got, want)
	}
}
