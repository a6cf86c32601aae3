package play

import (
	"log"
	"time"

	"github.com/MJE43/lilyhop/internal/game"
)

// Session owns one Sim and drives it from a single goroutine. Commands
// arrive on Inbox; snapshots leave through conn.
type Session struct {
	ID        string
	Name      string
	Seed      string
	StartedAt time.Time

	Inbox          chan any
	tickHz         int
	broadcastEvery int
	frames         uint64
	sim            *game.Sim
	conn           Conn
	logger         *log.Logger
	quit           chan struct{}
	done           chan struct{}

	OnGameOver func(Result)    // runs on the session goroutine
	OnEnd      func(id string) // called once the loop exits
}

func newSession(id, name, seed string, params game.Params, conn Conn, logger *log.Logger) *Session {
	broadcastEvery := SimTickHz / BroadcastHz
	if broadcastEvery <= 0 {
		broadcastEvery = 1
	}
	return &Session{
		ID:             id,
		Name:           name,
		Seed:           seed,
		StartedAt:      time.Now(),
		Inbox:          make(chan any, 256),
		tickHz:         SimTickHz,
		broadcastEvery: broadcastEvery,
		sim:            game.NewSim(params, seed),
		conn:           conn,
		logger:         logger,
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Stop ends the loop. Safe to call more than once.
func (s *Session) Stop() {
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
}

func (s *Session) Info() SessionInfo {
	return SessionInfo{ID: s.ID, Name: s.Name, Seed: s.Seed, StartedAt: s.StartedAt}
}

// Done is closed after the loop has exited and the conn is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Push delivers a command without blocking past the session's lifetime.
func (s *Session) Push(cmd any) bool {
	select {
	case s.Inbox <- cmd:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) Run() {
	defer func() {
		_ = s.conn.Close()
		close(s.done)
		if s.OnEnd != nil {
			s.OnEnd(s.ID)
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(s.tickHz))
	defer ticker.Stop()

	if !s.send(MsgState, s.sim.Snapshot()) {
		return
	}

	for {
		select {
		case <-s.quit:
			return
		case cmd := <-s.Inbox:
			if !s.handleCommand(cmd) {
				return
			}
		case <-ticker.C:
			s.sim.Step(1)
			for _, ev := range s.sim.Drain() {
				if !s.send(MsgEvent, ev) {
					return
				}
				if ev.Kind == game.EventGameOver {
					s.reportGameOver()
				}
			}
			s.frames++
			if s.frames%uint64(s.broadcastEvery) == 0 {
				if !s.send(MsgState, s.sim.Snapshot()) {
					return
				}
			}
		}
	}
}

func (s *Session) handleCommand(cmd any) bool {
	switch c := cmd.(type) {
	case Input:
		s.sim.Apply(c.Input)
	case Reset:
		s.sim.Reset()
		return s.send(MsgState, s.sim.Snapshot())
	case Leave:
		return false
	}
	return true
}

func (s *Session) reportGameOver() {
	res := Result{
		SessionID: s.ID,
		Name:      s.Name,
		Seed:      s.Seed,
		Score:     s.sim.Score(),
		HighScore: s.sim.HighScore(),
		Ticks:     s.sim.Tick(),
	}
	s.logger.Printf("session_game_over id=%s name=%q score=%d high_score=%d ticks=%d",
		res.SessionID, res.Name, res.Score, res.HighScore, res.Ticks)
	if s.OnGameOver != nil {
		s.OnGameOver(res)
	}
}

func (s *Session) send(t string, payload any) bool {
	b, err := Encode(t, payload)
	if err != nil {
		s.logger.Printf("session_encode_failed id=%s type=%s error=%v", s.ID, t, err)
		return true
	}
	if err := s.conn.Send(b); err != nil {
		s.logger.Printf("session_send_failed id=%s type=%s error=%v", s.ID, t, err)
		return false
	}
	return true
}
