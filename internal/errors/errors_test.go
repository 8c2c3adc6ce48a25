package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("disk full")

	testCases := []struct {
		name       string
		err        *AppError
		errorType  ErrorType
		statusCode int
	}{
		{"Validation", NewValidationError("bad", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"Not Found", NewNotFoundError("missing", nil), ErrorTypeNotFound, http.StatusNotFound},
		{"Unsupported Media", NewUnsupportedMediaError("bmp", nil), ErrorTypeUnsupportedMedia, http.StatusBadRequest},
		{"Payload Too Large", NewPayloadTooLargeError("big", nil), ErrorTypePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"Storage", NewStorageError("write", cause), ErrorTypeStorage, http.StatusBadGateway},
		{"Processing", NewProcessingError("decode", cause), ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{"Timeout", NewTimeoutError("slow", nil), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"Internal", NewInternalError("oops", nil), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Type != tc.errorType {
				t.Errorf("Expected type %s, got %s", tc.errorType, tc.err.Type)
			}
			if tc.err.StatusCode != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, tc.err.StatusCode)
			}
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("failed to save upload", cause)

	if got := err.Error(); got != "storage: failed to save upload (caused by: disk full)" {
		t.Errorf("Unexpected message %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("Expected cause to be reachable via errors.Is")
	}
	if got := NewNotFoundError("nope", nil).Error(); got != "not_found: nope" {
		t.Errorf("Unexpected message %q", got)
	}
}

func TestWrappedChain(t *testing.T) {
	wrapped := fmt.Errorf("open photo: %w", NewNotFoundError("image not found", nil))

	if !IsType(wrapped, ErrorTypeNotFound) {
		t.Error("Expected wrapped not found error to be detected")
	}
	if GetStatusCode(wrapped) != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", GetStatusCode(wrapped))
	}
	if GetStatusCode(errors.New("plain")) != http.StatusInternalServerError {
		t.Error("Expected plain errors to map to 500")
	}
	if _, ok := As(nil); ok {
		t.Error("Expected nil error not to match")
	}
}

func TestWithDetails(t *testing.T) {
	base := NewValidationError("invalid criteria", nil)
	detailed := base.WithDetails("unknown criterion: exposure")

	if detailed.Details != "unknown criterion: exposure" {
		t.Errorf("Unexpected details %q", detailed.Details)
	}
	if base.Details != "" {
		t.Error("Expected original error to be unchanged")
	}
}
