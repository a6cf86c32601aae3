package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5/middleware"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheckResponse represents a comprehensive health check response
type HealthCheckResponse struct {
	Status    HealthStatus           `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit,omitempty"`
	BuildTime string                 `json:"build_time,omitempty"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]HealthCheck `json:"checks"`
	System    SystemInfo             `json:"system"`
	RequestID string                 `json:"request_id,omitempty"`
}

// HealthCheck represents an individual health check
type HealthCheck struct {
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	LastChecked string       `json:"last_checked"`
	Duration    string       `json:"duration,omitempty"`
}

// SystemInfo contains system information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	GOMAXPROCS    int    `json:"gomaxprocs"`
	MemoryAlloc   uint64 `json:"memory_alloc_bytes"`
	MemoryTotal   uint64 `json:"memory_total_bytes"`
	MemorySys     uint64 `json:"memory_sys_bytes"`
	MemoryHuman   string `json:"memory_alloc"`
	GCCycles      uint32 `json:"gc_cycles"`
}

// MetricsResponse reports runtime figures and per-route request counters
type MetricsResponse struct {
	Timestamp    string               `json:"timestamp"`
	Version      string               `json:"version"`
	Uptime       string               `json:"uptime"`
	System       SystemInfo           `json:"system"`
	Leaderboard  LeaderboardMetrics   `json:"leaderboard"`
	LiveSessions int                  `json:"live_sessions"`
	Operations   map[string]OpMetrics `json:"operations"`
	RequestID    string               `json:"request_id,omitempty"`
}

// LeaderboardMetrics describes the stored board.
type LeaderboardMetrics struct {
	Entries   int    `json:"entries"`
	Capacity  int    `json:"capacity"`
	TopScore  int64  `json:"top_score"`
	TopScoreH string `json:"top_score_human"`
}

// OpMetrics represents route-specific metrics
type OpMetrics struct {
	TotalRequests   uint64  `json:"total_requests"`
	SuccessRequests uint64  `json:"success_requests"`
	ErrorRequests   uint64  `json:"error_requests"`
	AvgDurationMs   float64 `json:"avg_duration_ms"`
	LastRequest     string  `json:"last_request,omitempty"`
}

// HealthMonitor accumulates per-route request metrics
type HealthMonitor struct {
	mu        sync.Mutex
	startTime time.Time
	metrics   map[string]*opCounters
}

type opCounters struct {
	total, success, errors uint64
	elapsed                time.Duration
	last                   time.Time
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{
		startTime: time.Now(),
		metrics:   make(map[string]*opCounters),
	}
}

// Record counts one finished request. Statuses below 400 count as success.
func (hm *HealthMonitor) Record(op string, status int, d time.Duration) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	c, ok := hm.metrics[op]
	if !ok {
		c = &opCounters{}
		hm.metrics[op] = c
	}
	c.total++
	if status < 400 {
		c.success++
	} else {
		c.errors++
	}
	c.elapsed += d
	c.last = time.Now()
}

// Snapshot copies the current counters.
func (hm *HealthMonitor) Snapshot() map[string]OpMetrics {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	out := make(map[string]OpMetrics, len(hm.metrics))
	for op, c := range hm.metrics {
		m := OpMetrics{
			TotalRequests:   c.total,
			SuccessRequests: c.success,
			ErrorRequests:   c.errors,
			LastRequest:     humanize.Time(c.last),
		}
		if c.total > 0 {
			m.AvgDurationMs = float64(c.elapsed.Microseconds()) / 1000 / float64(c.total)
		}
		out[op] = m
	}
	return out
}

// Uptime returns the time since the monitor was created
func (hm *HealthMonitor) Uptime() time.Duration {
	return time.Since(hm.startTime)
}

// handleHealthCheck provides comprehensive health check endpoint
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	start := time.Now()

	checks := make(map[string]HealthCheck)
	overallStatus := HealthStatusHealthy

	storeCheck := s.checkStoreHealth(r.Context())
	checks["store"] = storeCheck
	if storeCheck.Status != HealthStatusHealthy {
		overallStatus = storeCheck.Status
	}

	sessionCheck := s.checkSessionsHealth()
	checks["sessions"] = sessionCheck
	if sessionCheck.Status != HealthStatusHealthy && overallStatus == HealthStatusHealthy {
		overallStatus = HealthStatusDegraded
	}

	response := HealthCheckResponse{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		Uptime:    formatUptime(s.monitor.Uptime()),
		Checks:    checks,
		System:    s.getSystemInfo(),
		RequestID: requestID,
	}

	statusCode := http.StatusOK
	if overallStatus == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	s.audit.LogAuditEvent(
		requestID,
		"health_check",
		"system",
		string(overallStatus),
		map[string]interface{}{
			"duration":    time.Since(start),
			"checks":      len(checks),
			"status_code": statusCode,
		},
	)

	s.writeJSON(w, statusCode, response)
}

// handleMetrics provides basic performance metrics endpoint
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	response := MetricsResponse{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Version:      Version,
		Uptime:       formatUptime(s.monitor.Uptime()),
		System:       s.getSystemInfo(),
		Leaderboard:  s.leaderboardMetrics(r.Context()),
		LiveSessions: s.liveSessions(),
		Operations:   s.monitor.Snapshot(),
		RequestID:    requestID,
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleReadiness reports whether the store answers
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()
	if err := s.board.Ping(ctx); err != nil {
		s.errorHandler.HandleError(w, r, NewError(ErrTypeServiceUnavailable, "Leaderboard store unavailable").
			WithRequestID(requestID).
			Build(), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ready":      true,
		"message":    "Ready",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"version":    Version,
		"request_id": requestID,
	})
}

// handleLiveness responds as long as the process serves requests
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"alive":      true,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"version":    Version,
		"uptime":     formatUptime(s.monitor.Uptime()),
		"request_id": middleware.GetReqID(r.Context()),
	})
}

func (s *Server) checkStoreHealth(ctx context.Context) HealthCheck {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := HealthStatusHealthy
	var message string

	if err := s.board.Ping(ctx); err != nil {
		status = HealthStatusUnhealthy
		message = fmt.Sprintf("Store unreachable: %v", err)
	} else if n, err := s.board.Count(ctx); err != nil {
		status = HealthStatusDegraded
		message = fmt.Sprintf("Store count failed: %v", err)
	} else {
		message = fmt.Sprintf("%s entries", humanize.Comma(int64(n)))
	}

	return HealthCheck{
		Status:      status,
		Message:     message,
		LastChecked: time.Now().UTC().Format(time.RFC3339),
		Duration:    time.Since(start).String(),
	}
}

func (s *Server) checkSessionsHealth() HealthCheck {
	message := "Play sessions disabled"
	if s.sessions != nil {
		message = fmt.Sprintf("%d live sessions", s.sessions.Count())
	}
	return HealthCheck{
		Status:      HealthStatusHealthy,
		Message:     message,
		LastChecked: time.Now().UTC().Format(time.RFC3339),
	}
}

func (s *Server) leaderboardMetrics(ctx context.Context) LeaderboardMetrics {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	m := LeaderboardMetrics{Capacity: s.cfg.Capacity}
	if n, err := s.board.Count(ctx); err == nil {
		m.Entries = n
	}
	if top, err := s.board.Top(ctx, 1); err == nil && len(top) > 0 {
		m.TopScore = top[0].Score
	}
	m.TopScoreH = humanize.Comma(m.TopScore)
	return m
}

func (s *Server) liveSessions() int {
	if s.sessions == nil {
		return 0
	}
	return s.sessions.Count()
}

// getSystemInfo collects system information
func (s *Server) getSystemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		GOMAXPROCS:    runtime.GOMAXPROCS(0),
		MemoryAlloc:   m.Alloc,
		MemoryTotal:   m.TotalAlloc,
		MemorySys:     m.Sys,
		MemoryHuman:   humanize.Bytes(m.Alloc),
		GCCycles:      m.NumGC,
	}
}

// sortedOps lists metric keys in a stable order for logs.
func sortedOps(ops map[string]OpMetrics) []string {
	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatUptime(d time.Duration) string {
	return d.Round(time.Second).String()
}
