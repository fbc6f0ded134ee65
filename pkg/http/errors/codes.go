package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"

	// Resource errors
	ErrCodeNotFound = "not_found"

	// Import/export errors
	ErrCodeInvalidFormat    = "invalid_format"
	ErrCodeReadFailed       = "read_failed"
	ErrCodeImportInProgress = "import_in_progress"
	ErrCodePayloadTooLarge  = "payload_too_large"
	ErrCodeExportFailed     = "export_failed"
	ErrCodeUnknownProvider  = "unknown_provider"
	ErrCodeUpstreamFailed   = "upstream_failed"

	// Quiz session errors
	ErrCodeNoQuestions       = "no_questions"
	ErrCodeInvalidCount      = "invalid_count"
	ErrCodeAlreadyAnswered   = "already_answered"
	ErrCodeUnknownOption     = "unknown_option"
	ErrCodeNotAnswered       = "not_answered"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeSessionClosed     = "session_closed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)
