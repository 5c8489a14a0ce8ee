package service

// Logging Standards for ListenTG
//
// This file defines standard field names, log levels, and patterns
// to ensure consistent logging across the application.

// Standard Field Names
// Use these exact field names for consistency across all logging calls
const (
	// Core identifiers
	LogFieldMessageID     = "message_id"
	LogFieldChatID        = "chat_id"
	LogFieldChatTitle     = "chat_title"
	LogFieldChatType      = "chat_type"
	LogFieldSenderID      = "sender_id"
	LogFieldDestinationID = "destination_id"

	// Service and operation fields
	LogFieldService   = "service"
	LogFieldOperation = "operation"
	LogFieldComponent = "component"
	LogFieldMethod    = "method"

	// Pipeline state
	LogFieldQueueSize = "queue_size"
	LogFieldPending   = "pending"
	LogFieldReason    = "reason"
	LogFieldAbandoned = "abandoned"

	// Performance and metrics
	LogFieldDuration = "duration_ms"
	LogFieldCount    = "count"
	LogFieldSize     = "size_bytes"

	// Network and external services
	LogFieldURL        = "url"
	LogFieldStatusCode = "status_code"
	LogFieldRemoteIP   = "remote_ip"
	LogFieldUserAgent  = "user_agent"
	LogFieldRequestID  = "request_id"
	LogFieldTraceID    = "trace_id"

	// Error and debugging
	LogFieldErrorCode = "error_code"
	LogFieldAttempt   = "attempt"
)

// Log Level Usage Guidelines
//
// DEBUG: per-message detail that is only useful when diagnosing problems
//   - Skipped events and the exclusion that matched
//   - Read acknowledgements
//
// INFO: normal pipeline flow
//   - Startup, shutdown and configuration loaded
//   - The formatted line of every accepted message
//   - Successful forwards with the remaining queue size
//
// WARN: unexpected but the pipeline carries on
//   - Retryable storage errors
//   - Forwarding refused by the source chat
//   - Queue backlog above threshold
//
// ERROR: an operation failed and its work was dropped
//   - Storage write failed after retries
//   - Forward failed
//   - Read API query failed
//
// FATAL: startup cannot continue
//   - Invalid configuration
//   - Database cannot be opened

// Standard Log Message Patterns
//
// Starting operations: "Starting [operation]"
// Failed operations: "Failed to [operation]"
// Skipping operations: "Skipping [operation]: [reason]"

// Example Usage:
//
// logger.WithFields(logrus.Fields{
//     LogFieldChatID:    chatID,
//     LogFieldMessageID: messageID,
//     LogFieldQueueSize: queue.Len(),
// }).Info("Message forwarded")
