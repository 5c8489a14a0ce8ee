package errors

import (
	"fmt"
	"net/http"
)

// NewConfigError creates a configuration error
func NewConfigError(key, message string) *AppError {
	return New(ErrCodeInvalidConfig, message).
		WithContext("config_key", key).
		WithUserMessage("Configuration error")
}

// NewMissingConfigError creates an error for a required setting that is absent
func NewMissingConfigError(key string) *AppError {
	return New(ErrCodeMissingConfig, fmt.Sprintf("missing required setting %s", key)).
		WithContext("config_key", key).
		WithUserMessage("Configuration error")
}

// NewStorageError creates a storage error with operation context
func NewStorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorage, fmt.Sprintf("storage %s failed", operation)).
		WithContext("operation", operation).
		WithUserMessage("Storage operation failed")
}

// NewRetryableStorageError creates a storage error that a bounded retry may clear
func NewRetryableStorageError(operation string, err error) *AppError {
	appErr := NewStorageError(operation, err)
	appErr.Retryable = true
	return appErr
}

// NewForwardError creates an error for a failed delivery to the destination
func NewForwardError(destinationID, chatID, messageID int64, err error) *AppError {
	return Wrap(err, ErrCodeForward, "forward to destination failed").
		WithContext("destination_id", destinationID).
		WithContext("chat_id", chatID).
		WithContext("message_id", messageID)
}

// NewForwardRestrictedError creates the error for a source chat that does not
// allow its messages to be forwarded
func NewForwardRestrictedError(chatID, messageID int64, err error) *AppError {
	return Wrap(err, ErrCodeForwardRestricted, "source chat does not allow forwarding").
		WithContext("chat_id", chatID).
		WithContext("message_id", messageID)
}

// NewClientUnavailableError creates the error returned once the messaging
// client can no longer deliver anything
func NewClientUnavailableError(reason string) *AppError {
	return New(ErrCodeClientUnavailable, "messaging client unavailable").
		WithContext("reason", reason)
}

// HTTP helpers

// HTTPStatusCode maps error codes to appropriate HTTP status codes
func HTTPStatusCode(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeStorageConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorResponse is the body written for a failed read API request
type HTTPErrorResponse struct {
	Message string `json:"message"`
}

// ToHTTPResponse builds the client-facing body for err. The fallback message
// is used unless the error carries an explicit user message; the cause is
// never exposed.
func ToHTTPResponse(err error, fallback string) HTTPErrorResponse {
	if appErr, ok := As(err); ok && appErr.UserMessage != "" && appErr.Code == ErrCodeInvalidInput {
		return HTTPErrorResponse{Message: appErr.UserMessage}
	}
	return HTTPErrorResponse{Message: fallback}
}
