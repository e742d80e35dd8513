package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/arcs-odds/internal/dice"
	"github.com/MJE43/arcs-odds/internal/engine"
	"github.com/MJE43/arcs-odds/internal/scripting"
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]any
	requestID string
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]any),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause records the underlying error message
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

// Build creates the final EngineError
func (eb *ErrorBuilder) Build() EngineError {
	ee := EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if len(eb.context) > 0 {
		ee.Context = eb.context
	}
	return ee
}

// classify maps a domain error to an HTTP status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, dice.ErrNegativeDice),
		errors.Is(err, dice.ErrNegativeFreshTargets),
		errors.Is(err, dice.ErrUnknownDie),
		errors.Is(err, engine.ErrTooManyDice),
		errors.Is(err, engine.ErrUnconvertedIntercepts),
		errors.Is(err, engine.ErrInvalidConstraint),
		errors.Is(err, engine.ErrUnknownVariable),
		errors.Is(err, engine.ErrSameAxis),
		errors.Is(err, errTooManyForServer):
		return http.StatusBadRequest, ErrTypeInvalidParams
	case errors.Is(err, scripting.ErrTimeout):
		return http.StatusRequestTimeout, ErrTypeTimeout
	case errors.Is(err, scripting.ErrCompile), errors.Is(err, scripting.ErrRuntime):
		return http.StatusUnprocessableEntity, ErrTypeScript
	default:
		return http.StatusInternalServerError, ErrTypeInternal
	}
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError classifies err and writes the matching response.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var engineErr EngineError
	if errors.As(err, &engineErr) {
		status := http.StatusBadRequest
		if GetErrorCategory(engineErr.Type) == CategorySystem {
			status = http.StatusInternalServerError
		}
		eh.respond(w, r, status, engineErr)
		return
	}

	status, errType := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	engineErr = NewError(errType, message).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		WithCause(err).
		Build()
	eh.respond(w, r, status, engineErr)
}

// HandleValidationError handles validation-specific errors
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	engineErr := NewError(ErrTypeValidation, "Validation failed").
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("fields", fields).
		WithContext("path", r.URL.Path).
		Build()
	eh.respond(w, r, http.StatusBadRequest, engineErr)
}

// HandleNotFound answers unknown routes.
func (eh *ErrorHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	engineErr := NewError(ErrTypeNotFound, fmt.Sprintf("No route for %s %s", r.Method, r.URL.Path)).
		WithRequestID(middleware.GetReqID(r.Context())).
		Build()
	eh.respond(w, r, http.StatusNotFound, engineErr)
}

// HandleMethodNotAllowed answers known routes hit with the wrong method.
func (eh *ErrorHandler) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	engineErr := NewError(ErrTypeInvalidParams, fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path)).
		WithRequestID(middleware.GetReqID(r.Context())).
		Build()
	eh.respond(w, r, http.StatusMethodNotAllowed, engineErr)
}

func (eh *ErrorHandler) respond(w http.ResponseWriter, r *http.Request, status int, engineErr EngineError) {
	eh.logError(r, engineErr, status)
	eh.writeErrorResponse(w, status, engineErr)
}

// logError logs validation failures at warn and everything else at error.
func (eh *ErrorHandler) logError(r *http.Request, engineErr EngineError, status int) {
	category := GetErrorCategory(engineErr.Type)
	level := slog.LevelError
	if category == CategoryValidation || category == CategoryScript {
		level = slog.LevelWarn
	}

	eh.logger.Log(r.Context(), level, "error_occurred",
		"type", engineErr.Type,
		"category", category,
		"status", status,
		"request_id", engineErr.RequestID,
		"method", r.Method,
		"path", r.URL.Path,
		"message", engineErr.Message,
		"context", engineErr.Context,
	)
}

// writeErrorResponse writes the error response as JSON
func (eh *ErrorHandler) writeErrorResponse(w http.ResponseWriter, status int, engineErr EngineError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.Header().Set("X-Error-Type", engineErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(engineErr.Type)))
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(engineErr); err != nil {
		eh.logger.Error("failed to encode error response", "error", err)
	}
}

// RecoveryHandler turns panics into 500 responses.
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				requestID := middleware.GetReqID(r.Context())
				eh.logger.Error("panic_recovered",
					"request_id", requestID,
					"path", r.URL.Path,
					"method", r.Method,
					"panic", fmt.Sprint(rvr),
				)

				engineErr := NewError(ErrTypeInternal, "Internal server error").
					WithRequestID(requestID).
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build()
				eh.writeErrorResponse(w, http.StatusInternalServerError, engineErr)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
