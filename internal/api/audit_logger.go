package api

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"os"
	"time"

	"github.com/MJE43/lilyhop/internal/store"
)

// AuditLogger records submissions, rejected requests and lifecycle events.
// Secrets never reach the log; they are redacted or reduced to a fingerprint.
type AuditLogger struct {
	logger *log.Logger
}

// NewAuditLogger creates an audit logger writing to out (stdout when nil).
func NewAuditLogger(out io.Writer) *AuditLogger {
	if out == nil {
		out = os.Stdout
	}
	return &AuditLogger{
		logger: log.New(out, "[AUDIT] ", log.LstdFlags|log.LUTC),
	}
}

// LogScoreSubmission logs an accepted leaderboard entry
func (al *AuditLogger) LogScoreSubmission(requestID string, entry store.Entry, remoteAddr string) {
	al.logger.Printf(
		"score_submitted request_id=%s entry_id=%s name=%q score=%d remote_addr=%s version=%s timestamp=%s",
		requestID,
		entry.ID,
		entry.Name,
		entry.Score,
		remoteAddr,
		Version,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSecurityEvent logs failed validations and rejected credentials
func (al *AuditLogger) LogSecurityEvent(
	requestID string,
	eventType string,
	description string,
	context map[string]interface{},
	remoteAddr string,
) {
	al.logger.Printf(
		"security_event request_id=%s type=%s description=%q context=%+v remote_addr=%s version=%s timestamp=%s",
		requestID,
		eventType,
		description,
		al.sanitizeContext(context),
		remoteAddr,
		Version,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogAuditEvent logs audit events for compliance and debugging
func (al *AuditLogger) LogAuditEvent(
	requestID string,
	action string,
	resource string,
	outcome string,
	details map[string]interface{},
) {
	al.logger.Printf(
		"audit_event request_id=%s action=%s resource=%s outcome=%s details=%+v version=%s timestamp=%s",
		requestID,
		action,
		resource,
		outcome,
		al.sanitizeContext(details),
		Version,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSystemStartup logs system startup information
func (al *AuditLogger) LogSystemStartup(addr string, config map[string]interface{}) {
	al.logger.Printf(
		"system_startup addr=%s config=%+v version=%s git_commit=%s build_time=%s timestamp=%s",
		addr,
		al.sanitizeContext(config),
		Version,
		GitCommit,
		BuildTime,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// LogSystemShutdown logs system shutdown information
func (al *AuditLogger) LogSystemShutdown(reason string, uptime time.Duration) {
	al.logger.Printf(
		"system_shutdown reason=%s uptime=%v version=%s timestamp=%s",
		reason,
		uptime,
		Version,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// sanitizeContext removes sensitive data from context maps
func (al *AuditLogger) sanitizeContext(context map[string]interface{}) map[string]interface{} {
	if context == nil {
		return nil
	}

	sanitized := make(map[string]interface{}, len(context))
	for key, value := range context {
		switch key {
		case "token", "submit_token", "authorization", "password", "secret":
			if s, ok := value.(string); ok && s != "" {
				sanitized[key+"_fingerprint"] = fingerprint(s)
			} else {
				sanitized[key] = "[REDACTED]"
			}
		default:
			sanitized[key] = value
		}
	}
	return sanitized
}

// fingerprint creates a short SHA256 digest so secrets can be correlated
// across log lines without being logged.
func fingerprint(secret string) string {
	if secret == "" {
		return "empty"
	}
	hash := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(hash[:])[:16]
}
