package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		want   BackendErrorKind
	}{
		{http.StatusUnauthorized, BackendErrAccessDenied},
		{http.StatusForbidden, BackendErrAccessDenied},
		{http.StatusNotFound, BackendErrNotFound},
		{http.StatusBadRequest, BackendErrValidation},
		{http.StatusUnprocessableEntity, BackendErrValidation},
		{http.StatusTooManyRequests, BackendErrThrottled},
		{http.StatusPaymentRequired, BackendErrQuotaExceeded},
		{http.StatusInternalServerError, BackendErrGeneric},
		{http.StatusBadGateway, BackendErrGeneric},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyHTTPStatus(tt.status), "status %d", tt.status)
	}
}

func TestUserMessage_ClassifiedErrors(t *testing.T) {
	tests := []struct {
		name     string
		kind     BackendErrorKind
		contains string
	}{
		{name: "access denied", kind: BackendErrAccessDenied, contains: "Access denied"},
		{name: "not found", kind: BackendErrNotFound, contains: "was not found"},
		{name: "validation", kind: BackendErrValidation, contains: "Invalid request"},
		{name: "throttled", kind: BackendErrThrottled, contains: "throttled"},
		{name: "quota", kind: BackendErrQuotaExceeded, contains: "quota was exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBackendError("knowledge base", tt.kind, errors.New("boom"))
			msg := UserMessage(err)
			assert.Contains(t, msg, tt.contains)
			assert.Contains(t, msg, "knowledge base")
		})
	}
}

func TestUserMessage_WrappedBackendError(t *testing.T) {
	inner := NewBackendError("model", BackendErrThrottled, errors.New("429"))
	wrapped := fmt.Errorf("complete: %w", inner)

	assert.Contains(t, UserMessage(wrapped), "throttled")
}

func TestUserMessage_UnclassifiedFallback(t *testing.T) {
	msg := UserMessage(errors.New("connection refused"))
	assert.Equal(t, "Error querying knowledge base: connection refused", msg)
}
