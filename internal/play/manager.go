package play

import (
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MJE43/lilyhop/internal/game"
)

const maxNameRunes = 64

// SessionInfo is returned by the API for the session list.
type SessionInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Seed      string    `json:"seed"`
	StartedAt time.Time `json:"startedAt"`
}

// Manager tracks live play sessions. Sessions are created on hello and
// removed when their loop exits.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	params   game.Params
	logger   *log.Logger

	// OnGameOver, when set, receives every finished run. It is called on
	// the session goroutine and must not block.
	OnGameOver func(Result)
}

func NewManager(params game.Params, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(os.Stdout, "[PLAY] ", log.LstdFlags|log.Lshortfile)
	}
	return &Manager{
		sessions: make(map[string]*Session),
		params:   params,
		logger:   logger,
	}
}

// Start creates a session for conn, sends the welcome and starts its loop.
func (m *Manager) Start(conn Conn, hello Hello) *Session {
	seed := hello.Seed
	if seed == "" {
		seed = uuid.NewString()
	}
	s := newSession(uuid.NewString(), cleanName(hello.Name), seed, m.params, conn, m.logger)
	if hello.HighScore > 0 {
		s.sim.SetHighScore(hello.HighScore)
	}
	s.OnGameOver = m.OnGameOver
	s.OnEnd = m.remove

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	welcome := Welcome{
		SessionID:   s.ID,
		Seed:        s.Seed,
		TickHz:      SimTickHz,
		BroadcastHz: BroadcastHz,
		HighScore:   s.sim.HighScore(),
	}
	if b, err := Encode(MsgWelcome, welcome); err == nil {
		if err := conn.Send(b); err != nil {
			m.logger.Printf("session_send_failed id=%s type=%s error=%v", s.ID, MsgWelcome, err)
		}
	}
	m.logger.Printf("session_started id=%s name=%q seed=%s", s.ID, s.Name, s.Seed)

	go s.Run()
	return s
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		m.logger.Printf("session_ended id=%s duration=%s", id, time.Since(s.StartedAt).Round(time.Millisecond))
	}
}

// Get returns the live session with the given id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// List returns the live sessions, oldest first.
func (m *Manager) List() []SessionInfo {
	m.mu.RLock()
	out := make([]SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Info())
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Shutdown stops every session and waits for their loops to exit.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.RUnlock()
	for _, s := range live {
		s.Stop()
	}
	for _, s := range live {
		<-s.Done()
	}
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	r := []rune(name)
	if len(r) > maxNameRunes {
		name = string(r[:maxNameRunes])
	}
	return name
}
