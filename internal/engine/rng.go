// Package engine provides the seeded byte stream that drives lilypad spawning.
//
// Every draw is derived from HMAC-SHA256(seed, "stream:nonce:round"), so a
// given seed, stream label and run number always reproduce the same field.
package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math"
)

// Stream generates deterministic bytes and floats from a seed.
// A Stream is not safe for concurrent use.
type Stream struct {
	seed         string
	label        string
	nonce        uint64
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

// NewStream creates a stream for the given seed, label and run number.
// cursor skips that many bytes before the first draw.
func NewStream(seed, label string, nonce uint64, cursor uint64) *Stream {
	s := &Stream{
		seed:         seed,
		label:        label,
		nonce:        nonce,
		currentRound: cursor / 32,
		currentPos:   int(cursor % 32),
	}
	s.generateRound()
	return s
}

// Next returns the next byte from the stream.
func (s *Stream) Next() byte {
	if s.currentPos >= 32 {
		s.currentRound++
		s.currentPos = 0
		s.generateRound()
	}

	b := s.buffer[s.currentPos]
	s.currentPos++
	return b
}

// Float64 returns the next float in [0, 1) using exactly 4 bytes.
func (s *Stream) Float64() float64 {
	return bytesToFloat([4]byte{s.Next(), s.Next(), s.Next(), s.Next()})
}

// Cursor reports how many bytes have been consumed so far.
func (s *Stream) Cursor() uint64 {
	return s.currentRound*32 + uint64(s.currentPos)
}

func (s *Stream) generateRound() {
	h := hmac.New(sha256.New, []byte(s.seed))
	fmt.Fprintf(h, "%s:%d:%d", s.label, s.nonce, s.currentRound)
	copy(s.buffer[:], h.Sum(nil))
}

func bytesToFloat(bytes [4]byte) float64 {
	result := 0.0
	for i, b := range bytes {
		result += float64(b) / math.Pow(256, float64(i+1))
	}
	return result
}
