package commerce

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestBackendErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *BackendError
		want []string
	}{
		{
			name: "status error",
			err: &BackendError{
				StatusCode: 503,
				ErrorClass: ErrorClassServer,
				Endpoint:   "/api/cart/canada",
				Message:    "503 Service Unavailable",
			},
			want: []string{"server", "503", "/api/cart/canada"},
		},
		{
			name: "wrapped network error",
			err: &BackendError{
				ErrorClass: ErrorClassNetwork,
				Endpoint:   "/api/cart/canada",
				Message:    "request failed",
				Err:        errors.New("connection refused"),
			},
			want: []string{"network", "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, fragment := range tt.want {
				if !strings.Contains(msg, fragment) {
					t.Errorf("Error() = %q, missing %q", msg, fragment)
				}
			}
		})
	}
}

func TestBackendErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &BackendError{ErrorClass: ErrorClassNetwork, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to reach the wrapped error")
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  bool
	}{
		{ErrorClassClient, false},
		{ErrorClassServer, true},
		{ErrorClassThrottle, true},
		{ErrorClassNetwork, true},
		{ErrorClass("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			if got := shouldRetry(tt.class); got != tt.want {
				t.Errorf("shouldRetry(%s) = %v, want %v", tt.class, got, tt.want)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{http.StatusNotFound, ErrorClassClient},
		{http.StatusBadRequest, ErrorClassClient},
		{http.StatusTooManyRequests, ErrorClassThrottle},
		{http.StatusInternalServerError, ErrorClassServer},
		{http.StatusBadGateway, ErrorClassServer},
		{http.StatusOK, ""},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.want {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
