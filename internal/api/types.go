package api

import (
	"github.com/MJE43/lilyhop/internal/play"
	"github.com/MJE43/lilyhop/internal/store"
)

// APIError is the JSON body of every error response. The message travels in
// the "error" field, which is what browser clients read.
type APIError struct {
	Message   string                 `json:"error"`
	Type      string                 `json:"type"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e APIError) Error() string {
	return e.Message
}

// Error types with proper categorization
const (
	// Input validation errors
	ErrTypeInvalidName  = "invalid_name"
	ErrTypeInvalidScore = "invalid_score"
	ErrTypeInvalidJSON  = "invalid_json"
	ErrTypeInvalidQuery = "invalid_query"
	ErrTypeValidation   = "validation_error"

	// Request errors
	ErrTypeUnauthorized     = "unauthorized"
	ErrTypeNotFound         = "not_found"
	ErrTypeMethodNotAllowed = "method_not_allowed"

	// Storage errors
	ErrTypeStore = "store_error"

	// System errors
	ErrTypeTimeout            = "timeout"
	ErrTypeInternal           = "internal_error"
	ErrTypeServiceUnavailable = "service_unavailable"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryRequest    ErrorCategory = "request"
	CategoryStorage    ErrorCategory = "storage"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidName, ErrTypeInvalidScore, ErrTypeInvalidJSON, ErrTypeInvalidQuery, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeUnauthorized, ErrTypeNotFound, ErrTypeMethodNotAllowed:
		return CategoryRequest
	case ErrTypeStore:
		return CategoryStorage
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains build version information
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
}

// ScoreRequest is a validated score submission.
type ScoreRequest struct {
	Name  string `json:"name"`
	Score int64  `json:"score"`
}

// SubmitResponse is returned by POST /score.
type SubmitResponse struct {
	Success bool        `json:"success"`
	Entry   store.Entry `json:"entry"`
}

// SessionsResponse lists live play sessions.
type SessionsResponse struct {
	Count    int                `json:"count"`
	Sessions []play.SessionInfo `json:"sessions"`
}
