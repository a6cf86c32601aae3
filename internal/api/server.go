package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/lilyhop/internal/play"
	"github.com/MJE43/lilyhop/internal/store"
)

// Config tunes the HTTP surface.
type Config struct {
	TopN           int
	Capacity       int
	MaxNameLength  int
	SubmitToken    string
	StaticDir      string
	RequestTimeout time.Duration
	LogOutput      io.Writer
}

// DefaultConfig matches the public leaderboard: top 10 of 100.
func DefaultConfig() Config {
	return Config{
		TopN:           10,
		Capacity:       store.DefaultCapacity,
		MaxNameLength:  64,
		RequestTimeout: 60 * time.Second,
	}
}

// Server handles HTTP requests
type Server struct {
	board        store.Leaderboard
	sessions     *play.Manager
	cfg          Config
	errorHandler *ErrorHandler
	logger       *log.Logger
	audit        *AuditLogger
	monitor      *HealthMonitor
	static       http.Handler
}

// NewServer creates a new API server. sessions may be nil, which disables
// /ws/play.
func NewServer(board store.Leaderboard, sessions *play.Manager, cfg Config) *Server {
	def := DefaultConfig()
	if cfg.TopN <= 0 {
		cfg.TopN = def.TopN
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.LogOutput == nil {
		cfg.LogOutput = os.Stdout
	}

	logger := log.New(cfg.LogOutput, "[API] ", log.LstdFlags|log.Lshortfile)
	audit := NewAuditLogger(cfg.LogOutput)

	s := &Server{
		board:        board,
		sessions:     sessions,
		cfg:          cfg,
		errorHandler: NewErrorHandler(logger, audit),
		logger:       logger,
		audit:        audit,
		monitor:      NewHealthMonitor(),
	}
	if cfg.StaticDir != "" {
		s.static = http.FileServer(http.Dir(cfg.StaticDir))
	}
	return s
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.RequestLoggingMiddleware)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(s.CORSMiddleware)

	r.NotFound(s.handleFallback)
	r.MethodNotAllowed(s.errorHandler.HandleMethodNotAllowed)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		r.Get("/health", s.handleHealthCheck)
		r.Get("/health/ready", s.handleReadiness)
		r.Get("/health/live", s.handleLiveness)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/version", s.handleVersion)
		r.Get("/sessions", s.handleSessions)
		r.Get("/sessions/{id}", s.handleSession)

		// the browser client calls the /api prefixed paths
		for _, prefix := range []string{"", "/api"} {
			r.Get(prefix+"/leaderboard", s.handleLeaderboard)
			r.With(s.SubmitTokenMiddleware).Post(prefix+"/score", s.handleSubmitScore)
		}
	})

	// long-lived, outside the request timeout
	if s.sessions != nil {
		r.Get("/ws/play", s.sessions.ServeWS)
	}

	return r
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	resp := SessionsResponse{Sessions: []play.SessionInfo{}}
	if s.sessions != nil {
		resp.Sessions = s.sessions.List()
	}
	resp.Count = len(resp.Sessions)
	s.writeJSON(w, http.StatusOK, resp)
}

// handleSession returns one live session or a 404.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		s.errorHandler.HandleNotFound(w, r)
		return
	}
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		s.errorHandler.HandleNotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GetVersionInfo())
}

// LogStartup records the listen address and the effective configuration.
func (s *Server) LogStartup(addr string, extra map[string]interface{}) {
	config := map[string]interface{}{
		"top_n":           s.cfg.TopN,
		"capacity":        s.cfg.Capacity,
		"max_name_length": s.cfg.MaxNameLength,
		"static_dir":      s.cfg.StaticDir,
		"submit_token":    s.cfg.SubmitToken,
		"play_sessions":   s.sessions != nil,
	}
	for k, v := range extra {
		config[k] = v
	}
	s.audit.LogSystemStartup(addr, config)
}

// LogShutdown records the shutdown and a per-route request summary.
func (s *Server) LogShutdown(reason string) {
	ops := s.monitor.Snapshot()
	for _, op := range sortedOps(ops) {
		m := ops[op]
		s.logger.Printf("route_summary route=%q total=%d errors=%d avg_ms=%.2f",
			op, m.TotalRequests, m.ErrorRequests, m.AvgDurationMs)
	}
	s.audit.LogSystemShutdown(reason, s.monitor.Uptime())
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Lilyhop-Version", Version)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("response_encode_failed status=%d error=%v", status, err)
	}
}
