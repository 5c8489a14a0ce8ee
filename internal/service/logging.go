package service

import (
	"context"

	"listentg/internal/models"
	"listentg/internal/privacy"

	"github.com/sirupsen/logrus"
)

// ContextKey is a package-local type to prevent context key collisions
type ContextKey string

// VerboseContextKey is the strongly-typed context key for verbose logging flag
const VerboseContextKey ContextKey = "verbose"

// WithVerbose marks ctx for verbose logging
func WithVerbose(ctx context.Context, verbose bool) context.Context {
	return context.WithValue(ctx, VerboseContextKey, verbose)
}

// IsVerboseLogging checks if verbose logging is enabled from context
func IsVerboseLogging(ctx context.Context) bool {
	if verbose, ok := ctx.Value(VerboseContextKey).(bool); ok {
		return verbose
	}
	return false
}

// refFields returns the log fields identifying a message. Ids are masked
// unless verbose logging is on.
func refFields(ctx context.Context, ref models.MessageRef) logrus.Fields {
	fields := logrus.Fields{
		LogFieldChatID:    ref.ChatID,
		LogFieldMessageID: ref.MessageID,
	}
	if IsVerboseLogging(ctx) {
		return fields
	}
	return logrus.Fields(privacy.MaskSensitiveFields(fields))
}

// maskedID renders an id for logs, masked unless verbose logging is on
func maskedID(ctx context.Context, id int64) interface{} {
	if IsVerboseLogging(ctx) {
		return id
	}
	return privacy.MaskID(id)
}
