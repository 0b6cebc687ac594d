package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new application error
func New(statusCode int, code, message string) *AppError {
	return &AppError{StatusCode: statusCode, Code: code, Message: message}
}

func BadRequest(code, message string) *AppError {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(code, message string) *AppError {
	return New(http.StatusUnauthorized, code, message)
}

func NotFound(code, message string) *AppError {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string) *AppError {
	return New(http.StatusConflict, code, message)
}

func TooManyRequests(code, message string) *AppError {
	return New(http.StatusTooManyRequests, code, message)
}

func PayloadTooLarge(code, message string) *AppError {
	return New(http.StatusRequestEntityTooLarge, code, message)
}

func Internal(code, message string) *AppError {
	return New(http.StatusInternalServerError, code, message)
}

// FromError converts a standard error to an AppError.
// Anything that is not already an AppError becomes an opaque 500.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("INTERNAL_ERROR", "An unexpected error occurred")
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError renders err in the {"error": {...}} envelope.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)
	WriteJSON(w, appErr.StatusCode, map[string]any{"error": appErr})
}

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes int64 = 64 << 10

// DecodeJSON reads at most MaxBodyBytes of r's body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return PayloadTooLarge("BODY_TOO_LARGE", fmt.Sprintf("request body exceeds %d bytes", MaxBodyBytes))
		}
		return BadRequest("INVALID_BODY", "invalid request body")
	}
	return nil
}
