package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]interface{}
	requestID string
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause adds the underlying cause error
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

// Build creates the final APIError
func (eb *ErrorBuilder) Build() APIError {
	ctx := eb.context
	if len(ctx) == 0 {
		ctx = nil
	}
	return APIError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   ctx,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *log.Logger
	audit  *AuditLogger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *log.Logger, audit *AuditLogger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
		audit:  audit,
	}
}

// HandleError processes an error and writes appropriate HTTP response
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if apiErr, ok := err.(APIError); ok {
		eh.logError(r, apiErr, status)
		eh.writeErrorResponse(w, status, apiErr)
		return
	}

	apiErr := NewError(ErrTypeInternal, "Internal server error").
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		WithCause(err).
		Build()

	eh.logError(r, apiErr, status)
	delete(apiErr.Context, "cause")
	eh.writeErrorResponse(w, status, apiErr)
}

// HandleValidationError rejects a request with 400. The message is sent
// verbatim so clients can show it.
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, errType, field, message string) {
	requestID := middleware.GetReqID(r.Context())

	apiErr := NewError(errType, message).
		WithRequestID(requestID).
		WithContext("field", field).
		Build()

	eh.audit.LogSecurityEvent(
		requestID,
		"validation_failure",
		message,
		map[string]interface{}{
			"field": field,
			"path":  r.URL.Path,
		},
		r.RemoteAddr,
	)

	eh.logError(r, apiErr, http.StatusBadRequest)
	eh.writeErrorResponse(w, http.StatusBadRequest, apiErr)
}

// HandleStoreError reports a failed leaderboard operation. A store call
// that ran out of time is a 504.
func (eh *ErrorHandler) HandleStoreError(w http.ResponseWriter, r *http.Request, operation, message string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		eh.HandleError(w, r, NewError(ErrTypeTimeout, "Leaderboard operation timed out").
			WithRequestID(middleware.GetReqID(r.Context())).
			WithContext("operation", operation).
			Build(), http.StatusGatewayTimeout)
		return
	}

	apiErr := NewError(ErrTypeStore, message).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("operation", operation).
		WithCause(err).
		Build()

	eh.logError(r, apiErr, http.StatusInternalServerError)
	// the cause stays in the log only
	apiErr.Context = map[string]interface{}{"operation": operation}
	eh.writeErrorResponse(w, http.StatusInternalServerError, apiErr)
}

func (eh *ErrorHandler) HandleUnauthorized(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	apiErr := NewError(ErrTypeUnauthorized, "Invalid submit token").
		WithRequestID(requestID).
		Build()

	eh.audit.LogSecurityEvent(
		requestID,
		"unauthorized_submit",
		"missing or invalid submit token",
		map[string]interface{}{
			"path":  r.URL.Path,
			"token": r.Header.Get(SubmitTokenHeader),
		},
		r.RemoteAddr,
	)

	eh.logError(r, apiErr, http.StatusUnauthorized)
	eh.writeErrorResponse(w, http.StatusUnauthorized, apiErr)
}

func (eh *ErrorHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	apiErr := NewError(ErrTypeNotFound, "Not found").
		WithRequestID(middleware.GetReqID(r.Context())).
		Build()
	eh.writeErrorResponse(w, http.StatusNotFound, apiErr)
}

func (eh *ErrorHandler) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	apiErr := NewError(ErrTypeMethodNotAllowed, "Method not allowed").
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("method", r.Method).
		Build()
	eh.writeErrorResponse(w, http.StatusMethodNotAllowed, apiErr)
}

// logError logs the error with appropriate level and context
func (eh *ErrorHandler) logError(r *http.Request, apiErr APIError, status int) {
	category := GetErrorCategory(apiErr.Type)

	logLevel := "ERROR"
	if category == CategoryValidation || category == CategoryRequest {
		logLevel = "WARN"
	}

	eh.logger.Printf(
		"error_occurred level=%s type=%s category=%s status=%d request_id=%s method=%s path=%s remote_ip=%s message=%q context=%+v",
		logLevel, apiErr.Type, category, status, apiErr.RequestID, r.Method, r.URL.Path, r.RemoteAddr, apiErr.Message, eh.audit.sanitizeContext(apiErr.Context),
	)
}

// writeErrorResponse writes the error response as JSON
func (eh *ErrorHandler) writeErrorResponse(w http.ResponseWriter, status int, apiErr APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Lilyhop-Version", Version)
	w.Header().Set("X-Error-Type", apiErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(apiErr.Type)))
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(apiErr); err != nil {
		eh.logger.Printf("error_encode_failed type=%s error=%v", apiErr.Type, err)
	}
}

// RecoveryHandler provides panic recovery with structured error logging
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				requestID := middleware.GetReqID(r.Context())

				eh.logger.Printf(
					"panic_recovered request_id=%s path=%s method=%s panic=%v",
					requestID, r.URL.Path, r.Method, rvr,
				)

				eh.HandleError(w, r, fmt.Errorf("panic: %v", rvr), http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

