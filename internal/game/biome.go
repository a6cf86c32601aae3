package game

import "fmt"

// Biome is a visual stage selected purely by score.
type Biome uint8

const (
	Forest Biome = iota
	Snow
	Desert
	Space
)

var biomeNames = [...]string{"forest", "snow", "desert", "space"}

func (b Biome) String() string {
	if int(b) < len(biomeNames) {
		return biomeNames[b]
	}
	return fmt.Sprintf("biome(%d)", b)
}

func (b Biome) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Biome) UnmarshalText(text []byte) error {
	for i, name := range biomeNames {
		if name == string(text) {
			*b = Biome(i)
			return nil
		}
	}
	return fmt.Errorf("game: unknown biome %q", text)
}

// BiomeFor maps a score to its biome. The mapping is stepwise and non-decreasing.
func (t Thresholds) BiomeFor(score int) Biome {
	switch {
	case score >= t.Space:
		return Space
	case score >= t.Desert:
		return Desert
	case score >= t.Snow:
		return Snow
	default:
		return Forest
	}
}

// anchors reports whether landing at score (before it is incremented)
// is the last step before a biome boundary.
func (t Thresholds) anchors(score int) bool {
	return score == t.Snow-1 || score == t.Desert-1 || score == t.Space-1
}
