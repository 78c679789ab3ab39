// Package errors provides standardized error handling for audit components.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeSearchRequestFailed ErrorCode = "SEARCH_REQUEST_FAILED"
	ErrCodeSearchTimeout       ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeSearchServerError   ErrorCode = "SEARCH_SERVER_ERROR"
	ErrCodeSearchBadResponse   ErrorCode = "SEARCH_BAD_RESPONSE"

	ErrCodeCorpusFileNotFound  ErrorCode = "CORPUS_FILE_NOT_FOUND"
	ErrCodeCorpusInvalid       ErrorCode = "CORPUS_INVALID"
	ErrCodeCorpusSchemaInvalid ErrorCode = "CORPUS_SCHEMA_INVALID"

	ErrCodeCheckpointReadFailed  ErrorCode = "CHECKPOINT_READ_FAILED"
	ErrCodeCheckpointWriteFailed ErrorCode = "CHECKPOINT_WRITE_FAILED"
	ErrCodeCheckpointCorrupt     ErrorCode = "CHECKPOINT_CORRUPT"

	ErrCodeOracleRequestFailed ErrorCode = "ORACLE_REQUEST_FAILED"
	ErrCodeOracleTimeout       ErrorCode = "ORACLE_TIMEOUT"
	ErrCodeOracleBadReply      ErrorCode = "ORACLE_BAD_REPLY"

	ErrCodeInventoryProbeFailed ErrorCode = "INVENTORY_PROBE_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeCacheWriteFailed         ErrorCode = "CACHE_WRITE_FAILED"

	ErrCodeReportWriteFailed ErrorCode = "REPORT_WRITE_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewSearchRequestFailedError creates a retryable search transport error.
func NewSearchRequestFailedError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchRequestFailed,
		Message:   "Search request failed",
		Details:   fmt.Sprintf("query: %s, error: %s", query, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(query string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Search request timed out",
		Details:   fmt.Sprintf("query: %s", query),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchServerError creates a retryable non-2xx search response error.
func NewSearchServerError(query string, status int) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchServerError,
		Message:   "Search endpoint returned error status",
		Details:   fmt.Sprintf("query: %s, status: %d", query, status),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchBadResponseError creates a non-retryable malformed response error.
func NewSearchBadResponseError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchBadResponse,
		Message:   "Search response could not be decoded",
		Details:   fmt.Sprintf("query: %s, error: %s", query, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCorpusFileNotFoundError creates a non-retryable missing-corpus error.
func NewCorpusFileNotFoundError(path string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCorpusFileNotFound,
		Message:   "Corpus file not found",
		Details:   fmt.Sprintf("path: %s", path),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCorpusInvalidError creates a non-retryable corpus parse error.
func NewCorpusInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCorpusInvalid,
		Message:   "Corpus file could not be parsed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCorpusSchemaInvalidError creates a non-retryable schema validation error.
func NewCorpusSchemaInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCorpusSchemaInvalid,
		Message:   "Corpus file failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCheckpointReadFailedError creates a retryable checkpoint read error.
func NewCheckpointReadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCheckpointReadFailed,
		Message:   "Checkpoint file could not be read",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCheckpointWriteFailedError creates a retryable checkpoint write error.
func NewCheckpointWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCheckpointWriteFailed,
		Message:   "Checkpoint file could not be written",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCheckpointCorruptError creates a non-retryable corrupt checkpoint error.
func NewCheckpointCorruptError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCheckpointCorrupt,
		Message:   "Checkpoint file is corrupt",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOracleRequestFailedError creates a retryable scoring-oracle transport error.
func NewOracleRequestFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleRequestFailed,
		Message:   "Scoring oracle request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewOracleTimeoutError creates a retryable scoring-oracle timeout error.
func NewOracleTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleTimeout,
		Message:   "Scoring oracle request timed out",
		Details:   "call exceeded configured timeout",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewOracleBadReplyError creates a non-retryable unparseable-reply error.
func NewOracleBadReplyError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleBadReply,
		Message:   "Scoring oracle reply contained no usable judgement",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInventoryProbeFailedError creates a retryable inventory probe error.
func NewInventoryProbeFailedError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInventoryProbeFailed,
		Message:   "Inventory count probe failed",
		Details:   fmt.Sprintf("query: %s, error: %s", query, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheWriteFailedError creates a retryable cache write error.
func NewCacheWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheWriteFailed,
		Message:   "Cache write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewReportWriteFailedError creates a retryable report persistence error.
func NewReportWriteFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportWriteFailed,
		Message:   "Report artifact could not be written",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeCacheWriteFailed,
		ErrCodeInventoryProbeFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeSearchRequestFailed,
		ErrCodeSearchTimeout,
		ErrCodeSearchServerError,
		ErrCodeOracleRequestFailed,
		ErrCodeOracleTimeout,
		ErrCodeCheckpointReadFailed,
		ErrCodeCheckpointWriteFailed,
		ErrCodeReportWriteFailed:
		return 2

	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "CORPUS"):
		return "CORPUS"
	case strings.Contains(codeStr, "CHECKPOINT") || strings.Contains(codeStr, "REPORT"):
		return "PERSISTENCE"
	case strings.Contains(codeStr, "ORACLE"):
		return "ORACLE"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "CACHE"):
		return "DATABASE"
	case strings.Contains(codeStr, "INVENTORY"):
		return "INVENTORY"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
