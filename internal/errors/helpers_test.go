package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStorageError(t *testing.T) {
	cause := errors.New("no such table: messages")
	err := NewStorageError("insert", cause)

	assert.Equal(t, ErrCodeStorage, err.Code)
	assert.Equal(t, "storage insert failed", err.Message)
	assert.Equal(t, "insert", err.Context["operation"])
	assert.False(t, err.Retryable)
	assert.True(t, errors.Is(err, cause))

	retryable := NewRetryableStorageError("insert", cause)
	assert.True(t, retryable.Retryable)
}

func TestNewForwardError(t *testing.T) {
	err := NewForwardError(-1001, -100555, 42, errors.New("chat not found"))

	assert.Equal(t, ErrCodeForward, err.Code)
	assert.Equal(t, int64(-1001), err.Context["destination_id"])
	assert.Equal(t, int64(-100555), err.Context["chat_id"])
	assert.Equal(t, int64(42), err.Context["message_id"])
}

func TestNewForwardRestrictedError(t *testing.T) {
	err := NewForwardRestrictedError(-100555, 9, errors.New("message can't be forwarded"))

	assert.True(t, HasCode(err, ErrCodeForwardRestricted))
	assert.False(t, IsFatal(err))
	assert.Equal(t, int64(9), err.Context["message_id"])
}

func TestNewConfigErrors(t *testing.T) {
	err := NewConfigError("forwarding.target_group", "target group must not be zero")
	assert.Equal(t, ErrCodeInvalidConfig, err.Code)
	assert.Equal(t, "forwarding.target_group", err.Context["config_key"])

	missing := NewMissingConfigError("telegram.bot_token")
	assert.Equal(t, ErrCodeMissingConfig, missing.Code)
	assert.Contains(t, missing.Message, "telegram.bot_token")
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"invalid input", New(ErrCodeInvalidInput, "bad"), http.StatusBadRequest},
		{"timeout", New(ErrCodeTimeout, "slow"), http.StatusGatewayTimeout},
		{"storage connection", New(ErrCodeStorageConnection, "down"), http.StatusServiceUnavailable},
		{"storage query", NewStorageError("select", errors.New("x")), http.StatusInternalServerError},
		{"plain error", errors.New("x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatusCode(tt.err))
		})
	}
}

func TestToHTTPResponse_HidesCause(t *testing.T) {
	err := NewStorageError("select", errors.New("database disk image is malformed"))

	resp := ToHTTPResponse(err, "Failed to load statistics")

	assert.Equal(t, "Failed to load statistics", resp.Message)
	assert.NotContains(t, resp.Message, "malformed")
}

func TestToHTTPResponse_InvalidInput(t *testing.T) {
	err := New(ErrCodeInvalidInput, "query too long").WithUserMessage("Query is too long")

	resp := ToHTTPResponse(err, "Failed to search messages")

	assert.Equal(t, "Query is too long", resp.Message)
}
