package play

import (
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/MJE43/lilyhop/internal/game"
)

type fakeConn struct {
	sendCh chan []byte

	mu     sync.Mutex
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{sendCh: make(chan []byte, 1024)}
}

func (f *fakeConn) Send(b []byte) error {
	cp := make([]byte, len(b))
	copy(cp, b)
	f.sendCh <- cp
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type failingConn struct{}

func (failingConn) Send([]byte) error { return io.ErrClosedPipe }
func (failingConn) Close() error      { return nil }

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// waitFor reads messages until one of type t arrives and match accepts it.
func waitFor(t *testing.T, fc *fakeConn, msgType string, match func(Envelope) bool) Envelope {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case b := <-fc.sendCh:
			env, err := DecodeEnvelope(b)
			if err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if env.T != msgType {
				continue
			}
			if match == nil || match(env) {
				return env
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s message", msgType)
		}
	}
}

func TestSessionWelcomeThenState(t *testing.T) {
	m := NewManager(game.DefaultParams(), quietLogger())
	defer m.Shutdown()

	fc := newFakeConn()
	s := m.Start(fc, Hello{V: ProtocolVersion, Name: "  kermit  ", HighScore: 12, Seed: "fixed"})

	env := waitFor(t, fc, MsgWelcome, nil)
	welcome, err := DecodePayload[Welcome](env)
	if err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if welcome.SessionID != s.ID || welcome.Seed != "fixed" || welcome.TickHz != SimTickHz || welcome.HighScore != 12 {
		t.Fatalf("welcome = %+v", welcome)
	}
	if s.Name != "kermit" {
		t.Fatalf("name = %q, want trimmed", s.Name)
	}

	env = waitFor(t, fc, MsgState, nil)
	st, err := DecodePayload[State](env)
	if err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.Frog().Kind != game.KindFrog || len(st.Lilypads()) == 0 {
		t.Fatalf("state missing entities: %+v", st)
	}
	if st.HighScore != 12 || st.Biome != game.Forest {
		t.Fatalf("state = %+v", st)
	}
}

func TestSessionDefaultSeedIsGenerated(t *testing.T) {
	m := NewManager(game.DefaultParams(), quietLogger())
	defer m.Shutdown()

	a := m.Start(newFakeConn(), Hello{V: ProtocolVersion})
	b := m.Start(newFakeConn(), Hello{V: ProtocolVersion})
	if a.Seed == "" || a.Seed == b.Seed || a.ID == b.ID {
		t.Fatalf("expected distinct generated seeds and ids, got %q/%q %q/%q", a.Seed, b.Seed, a.ID, b.ID)
	}
	if m.Count() != 2 || len(m.List()) != 2 {
		t.Fatalf("manager should track both sessions")
	}
}

func TestSessionJumpProducesEvents(t *testing.T) {
	p := game.DefaultParams()
	p.MinSpeed, p.MaxSpeed = 0, 0
	m := NewManager(p, quietLogger())
	defer m.Shutdown()

	fc := newFakeConn()
	s := m.Start(fc, Hello{V: ProtocolVersion, Seed: "jump"})
	s.Inbox <- Input{Input: game.InputJump}

	env := waitFor(t, fc, MsgEvent, nil)
	ev, err := DecodePayload[EventMsg](env)
	if err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Kind != game.EventJump {
		t.Fatalf("first event = %v, want jump", ev.Kind)
	}
	waitFor(t, fc, MsgEvent, func(env Envelope) bool {
		ev, err := DecodePayload[EventMsg](env)
		return err == nil && (ev.Kind == game.EventLanded || ev.Kind == game.EventGameOver)
	})
}

func TestSessionGameOverReportsResult(t *testing.T) {
	p := game.DefaultParams()
	p.InitialSpacing = 10 // first hop always lands in water
	m := NewManager(p, quietLogger())
	results := make(chan Result, 1)
	m.OnGameOver = func(r Result) { results <- r }
	defer m.Shutdown()

	fc := newFakeConn()
	s := m.Start(fc, Hello{V: ProtocolVersion, Name: "ribbit", HighScore: 4})
	s.Inbox <- Input{Input: game.InputJump}

	select {
	case r := <-results:
		if r.SessionID != s.ID || r.Name != "ribbit" || r.Score != 0 || r.HighScore != 4 {
			t.Fatalf("result = %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for game over")
	}

	waitFor(t, fc, MsgState, func(env Envelope) bool {
		st, err := DecodePayload[State](env)
		return err == nil && st.GameOver
	})

	s.Inbox <- Reset{}
	waitFor(t, fc, MsgState, func(env Envelope) bool {
		st, err := DecodePayload[State](env)
		return err == nil && !st.GameOver && st.Score == 0 && st.Tick == 0
	})
}

func TestSessionLeaveRemovesFromManager(t *testing.T) {
	m := NewManager(game.DefaultParams(), quietLogger())
	defer m.Shutdown()

	fc := newFakeConn()
	s := m.Start(fc, Hello{V: ProtocolVersion})
	if _, ok := m.Get(s.ID); !ok {
		t.Fatalf("session not registered")
	}
	s.Inbox <- Leave{}

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatalf("session did not stop")
	}
	if !fc.isClosed() {
		t.Fatalf("conn should be closed when the session ends")
	}
	if _, ok := m.Get(s.ID); ok {
		t.Fatalf("session still registered after leave")
	}
	if s.Push(Input{Input: game.InputJump}) {
		t.Fatalf("push after end should report false")
	}
}

func TestSessionEndsOnSendFailure(t *testing.T) {
	m := NewManager(game.DefaultParams(), quietLogger())
	s := m.Start(failingConn{}, Hello{V: ProtocolVersion})

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatalf("session should stop when the conn fails")
	}
	if m.Count() != 0 {
		t.Fatalf("count = %d, want 0", m.Count())
	}
}

func TestSessionBroadcastRate(t *testing.T) {
	m := NewManager(game.DefaultParams(), quietLogger())
	defer m.Shutdown()

	fc := newFakeConn()
	m.Start(fc, Hello{V: ProtocolVersion})

	deadline := time.After(300 * time.Millisecond)
	count := 0
	for {
		select {
		case b := <-fc.sendCh:
			env, err := DecodeEnvelope(b)
			if err == nil && env.T == MsgState {
				count++
			}
		case <-deadline:
			// 30Hz for 0.3s => ~9 msgs plus the initial one.
			if count < 3 || count > 16 {
				t.Fatalf("unexpected state broadcast count in 300ms: %d", count)
			}
			return
		}
	}
}
