package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrorType classifies LLM failures.
type ErrorType string

const (
	ErrorTypeAuth     ErrorType = "auth"
	ErrorTypeEndpoint ErrorType = "endpoint"
	ErrorTypeModel    ErrorType = "model"
	ErrorTypeTimeout  ErrorType = "timeout"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error represents a structured LLM error with classification.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	Cause      error
	StatusCode int
	Model      string
	Endpoint   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface, allowing the
// retry package to check retryability without importing llm.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured LLM error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

var statusCodePattern = regexp.MustCompile(`status code:?\s*(\d{3})`)

// classifyError categorizes a raw client error into a structured *Error.
func classifyError(err error, model, endpoint string) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	lower := strings.ToLower(err.Error())

	statusCode := 0
	if m := statusCodePattern.FindStringSubmatch(lower); len(m) == 2 {
		statusCode, _ = strconv.Atoi(m[1])
	}

	classified := &Error{
		Cause:      err,
		StatusCode: statusCode,
		Model:      model,
		Endpoint:   endpoint,
	}

	switch {
	case statusCode == 401 || statusCode == 403 || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key"):
		classified.Type = ErrorTypeAuth
		classified.Message = "authentication failed"
		classified.Retryable = false
	case statusCode == 404 || strings.Contains(lower, "model not found") || strings.Contains(lower, "does not exist"):
		classified.Type = ErrorTypeModel
		classified.Message = "model not found"
		classified.Retryable = false
	case statusCode == 429 || strings.Contains(lower, "rate limit"):
		classified.Type = ErrorTypeEndpoint
		classified.Message = "rate limited"
		classified.Retryable = true
	case statusCode >= 500:
		classified.Type = ErrorTypeEndpoint
		classified.Message = "server error"
		classified.Retryable = true
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		classified.Type = ErrorTypeTimeout
		classified.Message = "request timed out"
		classified.Retryable = true
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		classified.Type = ErrorTypeEndpoint
		classified.Message = "endpoint unreachable"
		classified.Retryable = true
	default:
		classified.Type = ErrorTypeUnknown
		classified.Message = "request failed"
		classified.Retryable = false
	}

	return classified
}
