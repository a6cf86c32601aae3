package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultCapacity is the number of entries a leaderboard retains.
const DefaultCapacity = 100

var (
	// ErrInvalidEntry is returned when an entry fails validation.
	ErrInvalidEntry = errors.New("store: invalid entry")
	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("store: closed")
)

// Entry is one leaderboard row.
type Entry struct {
	ID    string    `json:"id,omitempty"`
	Name  string    `json:"name"`
	Score int64     `json:"score"`
	Date  time.Time `json:"date"`
}

// Validate checks the fields a store relies on.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidEntry)
	}
	return nil
}

// Leaderboard stores scores ordered by score descending. Ties keep
// submission order. Implementations never hold more than their capacity.
type Leaderboard interface {
	// Submit stores the entry and prunes the board back to capacity.
	// The stored entry is returned with its ID and Date filled in.
	Submit(ctx context.Context, e Entry) (Entry, error)
	// Top returns at most n entries, best first.
	Top(ctx context.Context, n int) ([]Entry, error)
	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

func stamp(e Entry, id string, now time.Time) Entry {
	e.Name = strings.TrimSpace(e.Name)
	if e.ID == "" {
		e.ID = id
	}
	if e.Date.IsZero() {
		e.Date = now
	}
	e.Date = e.Date.UTC().Truncate(time.Millisecond)
	return e
}
