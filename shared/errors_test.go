package shared

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorConstructorsCarryStatusAndCode(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantCode   string
	}{
		{"bad request", NewBadRequestError(cause, "m"), http.StatusBadRequest, ErrCodeValidation},
		{"not found", NewNotFoundError(cause, "m"), http.StatusNotFound, ErrCodeNotFound},
		{"unauthorized", NewUnauthorizedError(cause, "m"), http.StatusUnauthorized, ErrCodeUnauthorized},
		{"forbidden", NewForbiddenError(cause, "m"), http.StatusForbidden, ErrCodeForbidden},
		{"conflict", NewConflictError(cause, "m"), http.StatusConflict, ErrCodeConflict},
		{"too many requests", NewTooManyRequestsError(cause, "m"), http.StatusTooManyRequests, ErrCodeTooManyRequests},
		{"timeout", NewTimeoutError(cause, "m"), http.StatusGatewayTimeout, ErrCodeTimeout},
		{"transient", NewTransientError(cause, "m"), http.StatusServiceUnavailable, ErrCodeTransient},
		{"internal", NewInternalError(cause, "m"), http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", tt.err.StatusCode, tt.wantStatus)
			}
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if !errors.Is(tt.err, cause) {
				t.Error("cause not reachable through Unwrap")
			}
		})
	}
}

func TestGetAppErrorThroughWrapping(t *testing.T) {
	inner := NewNotFoundError(nil, "Session not found")
	wrapped := fmt.Errorf("loading session: %w", inner)

	appErr, ok := GetAppError(wrapped)
	if !ok {
		t.Fatal("GetAppError failed to find wrapped AppError")
	}
	if appErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", appErr.StatusCode)
	}

	if _, ok := GetAppError(errors.New("plain")); ok {
		t.Error("plain error reported as AppError")
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	withCause := NewTransientError(errors.New("connection refused"), "Database unavailable")
	if got := withCause.Error(); got != "Database unavailable: connection refused" {
		t.Errorf("Error() = %q", got)
	}

	withoutCause := NewNotFoundError(nil, "Draft not found")
	if got := withoutCause.Error(); got != "Draft not found" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCodePredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		fn   func(error) bool
		want bool
	}{
		{"not found matches", NewNotFoundError(nil, "m"), IsNotFound, true},
		{"transient is not not-found", NewTransientError(nil, "m"), IsNotFound, false},
		{"transient matches", NewTransientError(nil, "m"), IsTransient, true},
		{"timeout matches", NewTimeoutError(nil, "m"), IsTimeout, true},
		{"timeout is not transient", NewTimeoutError(nil, "m"), IsTransient, false},
		{"plain error", errors.New("x"), IsTransient, false},
		{"nil error", nil, IsNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.err); got != tt.want {
				t.Errorf("predicate = %v, want %v", got, tt.want)
			}
		})
	}
}
