package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// BackendErrorKind classifies failures reported by the retrieval and
// generation backends. Each kind maps to a distinct user-facing message.
type BackendErrorKind string

const (
	BackendErrAccessDenied  BackendErrorKind = "access_denied"
	BackendErrNotFound      BackendErrorKind = "not_found"
	BackendErrValidation    BackendErrorKind = "validation"
	BackendErrThrottled     BackendErrorKind = "throttled"
	BackendErrQuotaExceeded BackendErrorKind = "quota_exceeded"
	BackendErrGeneric       BackendErrorKind = "generic"
)

// BackendError wraps a backend failure with its classification. Callers
// render UserMessage instead of propagating the raw error.
type BackendError struct {
	Kind    BackendErrorKind
	Backend string // "knowledge base" or "model"
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Backend, e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// NewBackendError classifies err for the named backend.
func NewBackendError(backend string, kind BackendErrorKind, err error) *BackendError {
	return &BackendError{Kind: kind, Backend: backend, Err: err}
}

// ClassifyHTTPStatus maps an HTTP status code from a backend to an error kind.
func ClassifyHTTPStatus(status int) BackendErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return BackendErrAccessDenied
	case http.StatusNotFound:
		return BackendErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return BackendErrValidation
	case http.StatusTooManyRequests:
		return BackendErrThrottled
	case http.StatusInsufficientStorage, http.StatusPaymentRequired:
		return BackendErrQuotaExceeded
	default:
		return BackendErrGeneric
	}
}

// UserMessage renders err as the terminal string returned to the caller.
// Classified backend errors get a specific message; anything else falls back
// to a generic wrapper.
func UserMessage(err error) string {
	var be *BackendError
	if !errors.As(err, &be) {
		return fmt.Sprintf("Error querying knowledge base: %v", err)
	}
	switch be.Kind {
	case BackendErrAccessDenied:
		return fmt.Sprintf("Error: Access denied by the %s backend. Please check your credentials and permissions.", be.Backend)
	case BackendErrNotFound:
		return fmt.Sprintf("Error: The configured %s resource was not found. Please check your configuration.", be.Backend)
	case BackendErrValidation:
		return fmt.Sprintf("Error: Invalid request to the %s backend. Please check your parameters. Details: %v", be.Backend, be.Err)
	case BackendErrThrottled:
		return fmt.Sprintf("Error: The %s backend throttled the request. Please try again later.", be.Backend)
	case BackendErrQuotaExceeded:
		return fmt.Sprintf("Error: The %s backend quota was exceeded. Please try again later or request a quota increase.", be.Backend)
	default:
		return fmt.Sprintf("Backend error (%s): %v", be.Backend, be.Err)
	}
}
