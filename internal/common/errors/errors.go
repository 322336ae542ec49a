// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
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
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidBarcode ErrorCode = "INVALID_BARCODE"

	ErrCodeSourceUnavailable       ErrorCode = "SOURCE_UNAVAILABLE"
	ErrCodeBarcodeLookupFailed     ErrorCode = "BARCODE_LOOKUP_FAILED"
	ErrCodeReviewSourceUnavailable ErrorCode = "REVIEW_SOURCE_UNAVAILABLE"
	ErrCodeLookupTimeout           ErrorCode = "LOOKUP_TIMEOUT"

	ErrCodeAlertPublishFailed ErrorCode = "ALERT_PUBLISH_FAILED"
	ErrCodeEngineUnavailable  ErrorCode = "ENGINE_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

// Error formats the code, message and details.
func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// WithMetadata attaches a key to the error metadata and returns e.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

// Error formats the BPMN error code and message.
func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidInputError creates a non-retryable input validation error.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false, nil)
}

// NewInvalidBarcodeError creates a non-retryable barcode format error.
func NewInvalidBarcodeError(barcode string) *StandardError {
	return newError(ErrCodeInvalidBarcode, "Invalid barcode", fmt.Sprintf("barcode: %q", barcode), false, nil)
}

// NewSourceUnavailableError creates a retryable error for an unreachable
// ingredient score source.
func NewSourceUnavailableError(err error) *StandardError {
	return newError(ErrCodeSourceUnavailable, "Ingredient score source unavailable", err.Error(), true, err)
}

// NewBarcodeLookupFailedError creates a retryable barcode database error.
func NewBarcodeLookupFailedError(barcode string, err error) *StandardError {
	return newError(ErrCodeBarcodeLookupFailed, "Barcode lookup failed",
		fmt.Sprintf("barcode: %s, error: %s", barcode, err.Error()), true, err)
}

// NewReviewSourceUnavailableError creates a retryable review store error.
func NewReviewSourceUnavailableError(err error) *StandardError {
	return newError(ErrCodeReviewSourceUnavailable, "Review source unavailable", err.Error(), true, err)
}

// NewLookupTimeoutError creates a retryable timeout error.
func NewLookupTimeoutError(operation string) *StandardError {
	return newError(ErrCodeLookupTimeout, "Lookup timeout", fmt.Sprintf("operation: %s", operation), true, nil)
}

// NewAlertPublishFailedError creates a retryable notification error.
func NewAlertPublishFailedError(err error) *StandardError {
	return newError(ErrCodeAlertPublishFailed, "Safety alert publish failed", err.Error(), true, err)
}

// NewEngineUnavailableError reports a failed call to the workflow engine.
func NewEngineUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeEngineUnavailable, "Workflow engine unavailable", fmt.Sprintf("%s: %v", operation, err), true, err)
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:            "INVALID_INPUT",
	ErrCodeInvalidBarcode:          "INVALID_BARCODE",
	ErrCodeSourceUnavailable:       "SOURCE_UNAVAILABLE",
	ErrCodeBarcodeLookupFailed:     "BARCODE_LOOKUP_FAILED",
	ErrCodeReviewSourceUnavailable: "REVIEW_SOURCE_UNAVAILABLE",
	ErrCodeLookupTimeout:           "LOOKUP_TIMEOUT",
	ErrCodeAlertPublishFailed:      "ALERT_PUBLISH_FAILED",
	ErrCodeEngineUnavailable:       "ENGINE_UNAVAILABLE",
	ErrCodeInternal:                "INTERNAL_ERROR",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSourceUnavailable,
		ErrCodeBarcodeLookupFailed,
		ErrCodeReviewSourceUnavailable,
		ErrCodeEngineUnavailable:
		return 3

	case ErrCodeLookupTimeout:
		return 2

	case ErrCodeAlertPublishFailed:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError finds a StandardError in err's chain, or wraps err as an
// internal error.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "BARCODE"):
		return "BARCODE"
	case strings.Contains(codeStr, "REVIEW"):
		return "SENTIMENT"
	case strings.Contains(codeStr, "SOURCE") || strings.Contains(codeStr, "LOOKUP"):
		return "SAFETY"
	case strings.Contains(codeStr, "ENGINE"):
		return "ENGINE"
	case strings.Contains(codeStr, "ALERT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "INTERNAL"
	}
}
