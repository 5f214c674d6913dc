// Package errors provides the error taxonomy shared by the chat pipeline and
// its Zeebe job workers.
package errors

import (
	goerrors "errors"
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
	ErrCodeLLMTimeout           ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMAuthFailed        ErrorCode = "LLM_AUTH_FAILED"
	ErrCodeLLMRequestFailed     ErrorCode = "LLM_REQUEST_FAILED"
	ErrCodeLLMMalformedResponse ErrorCode = "LLM_MALFORMED_RESPONSE"

	ErrCodeSearchInvalidCredentials ErrorCode = "SEARCH_INVALID_CREDENTIALS"
	ErrCodeSearchRateLimited        ErrorCode = "SEARCH_RATE_LIMITED"
	ErrCodeSearchNoResults          ErrorCode = "SEARCH_NO_RESULTS"
	ErrCodeSearchMalformedQuery     ErrorCode = "SEARCH_MALFORMED_QUERY"
	ErrCodeSearchTimeout            ErrorCode = "SEARCH_TIMEOUT"

	ErrCodeFetchNetwork       ErrorCode = "FETCH_NETWORK"
	ErrCodeFetchHTTPStatus    ErrorCode = "FETCH_HTTP_STATUS"
	ErrCodeFetchSSL           ErrorCode = "FETCH_SSL"
	ErrCodeFetchImageTooSmall ErrorCode = "FETCH_IMAGE_TOO_SMALL"
	ErrCodeFetchDecode        ErrorCode = "FETCH_DECODE"

	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeStoreOperationFailed     ErrorCode = "STORE_OPERATION_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
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

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another StandardError carrying the same code, so sentinel values
// like &StandardError{Code: ErrCodeSearchRateLimited} work with errors.Is.
func (e *StandardError) Is(target error) bool {
	var other *StandardError
	if !goerrors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// CodeOf extracts the code of the first StandardError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var stdErr *StandardError
	if goerrors.As(err, &stdErr) {
		return stdErr.Code, true
	}
	return "", false
}

// HasCode reports whether err's chain contains a StandardError with code.
func HasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
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

// NewLLMTimeoutError reports a chat completion that exceeded its deadline.
func NewLLMTimeoutError(provider string) *StandardError {
	return newError(ErrCodeLLMTimeout, "Language model request timed out",
		fmt.Sprintf("provider: %s", provider), true, nil)
}

// NewLLMAuthFailedError is terminal: retrying with the same key cannot succeed.
func NewLLMAuthFailedError(provider, details string) *StandardError {
	return newError(ErrCodeLLMAuthFailed, "Language model rejected the API key",
		fmt.Sprintf("provider: %s, %s", provider, details), false, nil)
}

func NewLLMRequestFailedError(provider string, err error) *StandardError {
	return newError(ErrCodeLLMRequestFailed, "Language model request failed",
		fmt.Sprintf("provider: %s, error: %v", provider, err), true, err)
}

func NewLLMMalformedResponseError(details string) *StandardError {
	return newError(ErrCodeLLMMalformedResponse, "Language model returned an unusable response",
		details, false, nil)
}

func NewSearchInvalidCredentialsError(details string) *StandardError {
	return newError(ErrCodeSearchInvalidCredentials, "Image search API key is invalid",
		details, false, nil)
}

func NewSearchRateLimitedError() *StandardError {
	return newError(ErrCodeSearchRateLimited, "Image search rate limit reached", "", true, nil)
}

func NewSearchNoResultsError(query string) *StandardError {
	return newError(ErrCodeSearchNoResults, "No usable images found",
		fmt.Sprintf("query: %s", query), false, nil).WithMetadata("query", query)
}

func NewSearchMalformedQueryError(query string) *StandardError {
	return newError(ErrCodeSearchMalformedQuery, "Search API rejected the query",
		fmt.Sprintf("query: %s", query), false, nil)
}

func NewSearchTimeoutError(query string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Image search timed out",
		fmt.Sprintf("query: %s", query), true, nil)
}

func NewFetchNetworkError(url string, err error) *StandardError {
	return newError(ErrCodeFetchNetwork, "Image download failed",
		fmt.Sprintf("url: %s, error: %v", url, err), true, err)
}

func NewFetchHTTPStatusError(url string, status int) *StandardError {
	return newError(ErrCodeFetchHTTPStatus, "Image host returned an error status",
		fmt.Sprintf("url: %s, status: %d", url, status), status >= 500, nil).
		WithMetadata("status", status)
}

func NewFetchSSLError(url string, err error) *StandardError {
	return newError(ErrCodeFetchSSL, "Image host TLS handshake failed",
		fmt.Sprintf("url: %s, error: %v", url, err), false, err)
}

func NewImageTooSmallError(url string, width, height int) *StandardError {
	return newError(ErrCodeFetchImageTooSmall, "Image is too small to use as a reference",
		fmt.Sprintf("url: %s, size: %dx%d", url, width, height), false, nil)
}

func NewImageDecodeError(url string, err error) *StandardError {
	return newError(ErrCodeFetchDecode, "Downloaded file is not a supported image",
		fmt.Sprintf("url: %s, error: %v", url, err), false, err)
}

func NewQuotaExceededError(userID string, limit int) *StandardError {
	return newError(ErrCodeQuotaExceeded, "Daily generation limit reached",
		fmt.Sprintf("userId: %s, limit: %d", userID, limit), false, nil).
		WithMetadata("limit", limit)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false, nil)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

func NewStoreOperationFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeStoreOperationFailed, "Storage operation failed",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal codes to the error codes modeled in the BPMN
// boundary events. Fetch failures collapse into a single event.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeLLMTimeout:               "LLM_TIMEOUT",
	ErrCodeLLMAuthFailed:            "LLM_AUTH_FAILED",
	ErrCodeLLMRequestFailed:         "LLM_REQUEST_FAILED",
	ErrCodeLLMMalformedResponse:     "LLM_REQUEST_FAILED",
	ErrCodeSearchInvalidCredentials: "SEARCH_INVALID_CREDENTIALS",
	ErrCodeSearchRateLimited:        "SEARCH_RATE_LIMITED",
	ErrCodeSearchNoResults:          "SEARCH_NO_RESULTS",
	ErrCodeSearchMalformedQuery:     "SEARCH_NO_RESULTS",
	ErrCodeSearchTimeout:            "SEARCH_TIMEOUT",
	ErrCodeFetchNetwork:             "REFERENCE_FETCH_FAILED",
	ErrCodeFetchHTTPStatus:          "REFERENCE_FETCH_FAILED",
	ErrCodeFetchSSL:                 "REFERENCE_FETCH_FAILED",
	ErrCodeFetchImageTooSmall:       "REFERENCE_FETCH_FAILED",
	ErrCodeFetchDecode:              "REFERENCE_FETCH_FAILED",
	ErrCodeQuotaExceeded:            "QUOTA_EXCEEDED",
	ErrCodeInvalidInput:             "INVALID_INPUT",
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeLLMRequestFailed,
		ErrCodeFetchNetwork,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeStoreOperationFailed:
		return 3

	case ErrCodeSearchTimeout,
		ErrCodeSearchRateLimited:
		return 2

	case ErrCodeLLMTimeout:
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

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "LLM"):
		return "AI"
	case strings.HasPrefix(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.HasPrefix(codeStr, "FETCH"):
		return "REFERENCE_IMAGE"
	case strings.HasPrefix(codeStr, "QUOTA"):
		return "QUOTA"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "STORE"):
		return "STORAGE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// UserMessage turns a failure into text a chat user can act on.
func UserMessage(code ErrorCode) string {
	switch code {
	case ErrCodeLLMTimeout:
		return "The request timed out. Please try again."
	case ErrCodeLLMAuthFailed:
		return "The chat service is not configured correctly right now. Please try again later."
	case ErrCodeLLMRequestFailed, ErrCodeLLMMalformedResponse:
		return "I had trouble processing that. Could you rephrase it?"
	case ErrCodeSearchInvalidCredentials:
		return "Image search is unavailable at the moment. I can create a logo without a reference image instead."
	case ErrCodeSearchRateLimited:
		return "Image search is busy right now. Wait a moment and try again, or I can create a logo without a reference image."
	case ErrCodeSearchNoResults, ErrCodeSearchMalformedQuery:
		return "I couldn't find usable images for that. Try a different search term, or I can create a logo without a reference."
	case ErrCodeSearchTimeout:
		return "The image search took too long. Try again, or I can create a logo without a reference image."
	case ErrCodeFetchNetwork, ErrCodeFetchHTTPStatus, ErrCodeFetchSSL, ErrCodeFetchDecode:
		return "That image couldn't be downloaded. Pick another one, or say no to search again."
	case ErrCodeFetchImageTooSmall:
		return "That image is too small to use as a reference. Pick another one, or say no to search again."
	case ErrCodeQuotaExceeded:
		return "Free limit reached (5/day). Upgrade to Pro!"
	default:
		return "Something went wrong. Please try again."
	}
}
