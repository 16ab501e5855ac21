package llm

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError_Auth(t *testing.T) {
	err := ClassifyError(errors.New("401 Unauthorized"))
	if err.Type != ErrorTypeAuth {
		t.Errorf("expected auth, got %v", err.Type)
	}
	if err.Retryable {
		t.Error("auth errors must not be retryable")
	}
}

func TestClassifyError_RateLimit(t *testing.T) {
	err := ClassifyError(errors.New("429 Too Many Requests"))
	if err.Type != ErrorTypeRateLimit {
		t.Errorf("expected rate_limit, got %v", err.Type)
	}
	if !err.Retryable {
		t.Error("rate limit errors must be retryable")
	}
	if err.StatusCode != 429 {
		t.Errorf("expected status 429, got %d", err.StatusCode)
	}
}

func TestClassifyError_ModelNotFound(t *testing.T) {
	err := ClassifyError(errors.New("the model `gpt-x` does not exist"))
	if err.Type != ErrorTypeModel {
		t.Errorf("expected model, got %v", err.Type)
	}
	if err.Retryable {
		t.Error("model errors must not be retryable")
	}
}

func TestClassifyError_ConnectionAndServer(t *testing.T) {
	tests := []struct {
		msg       string
		retryable bool
	}{
		{"dial tcp: connection refused", true},
		{"context deadline exceeded", true},
		{"upstream returned 503", true},
		{"something inexplicable", false},
	}
	for _, tt := range tests {
		err := ClassifyError(errors.New(tt.msg))
		if err.Retryable != tt.retryable {
			t.Errorf("ClassifyError(%q).Retryable = %v, want %v", tt.msg, err.Retryable, tt.retryable)
		}
	}
}

func TestClassifyError_Idempotent(t *testing.T) {
	original := NewError(ErrorTypeAuth, "authentication failed", false, errors.New("401"))
	reclassified := ClassifyError(fmt.Errorf("wrapped: %w", original))
	if reclassified != original {
		t.Error("an already-classified error must be returned as is")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewError(ErrorTypeEndpoint, "server error", true, cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap must expose the cause")
	}
}
