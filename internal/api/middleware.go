package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SubmitTokenHeader carries the shared secret for score submissions.
const SubmitTokenHeader = "X-Submit-Token"

// RequestLoggingMiddleware logs every request and feeds the per-route metrics.
func (s *Server) RequestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		s.logger.Printf(
			"request_start method=%s path=%s request_id=%s remote_addr=%s user_agent=%q",
			r.Method,
			r.URL.Path,
			requestID,
			r.RemoteAddr,
			r.UserAgent(),
		)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.monitor.Record(routeName(r), status, duration)

		s.logger.Printf(
			"request_completed method=%s path=%s status=%d duration=%v request_id=%s bytes_written=%d",
			r.Method,
			r.URL.Path,
			status,
			duration,
			requestID,
			ww.BytesWritten(),
		)
	})
}

// routeName is the matched chi pattern, e.g. "GET /leaderboard".
func routeName(r *http.Request) string {
	pattern := ""
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		pattern = rctx.RoutePattern()
	}
	if pattern == "" || pattern == "/*" {
		pattern = "unmatched"
	}
	return r.Method + " " + pattern
}

// CORSMiddleware lets the game page call the API from another origin
func (s *Server) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+SubmitTokenHeader)
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SubmitTokenMiddleware rejects submissions without the configured token.
// With no token configured every request passes.
func (s *Server) SubmitTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.SubmitToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := r.Header.Get(SubmitTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.SubmitToken)) != 1 {
			s.errorHandler.HandleUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
