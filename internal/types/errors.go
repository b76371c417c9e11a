package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// All handlers MUST use these constants instead of hardcoded strings.
const (
	// Report construction (programming defects; never retried)
	ErrCodeReportMissingArea    ErrorCode = "validation_report_missing_area"
	ErrCodeReportMissingWind    ErrorCode = "validation_report_missing_wind"
	ErrCodeReportMissingWeather ErrorCode = "validation_report_missing_weather"
	ErrCodeReportForceRange     ErrorCode = "validation_report_force_range"

	// Proxy request validation (400)
	ErrCodeValidationInvalidJSON   ErrorCode = "validation_invalid_json"
	ErrCodeValidationMissingSSML   ErrorCode = "validation_missing_ssml"
	ErrCodeValidationSSMLTooLong   ErrorCode = "validation_ssml_too_long"
	ErrCodeValidationSSMLMalformed ErrorCode = "validation_ssml_malformed"
	ErrCodeValidationInvalidVoice  ErrorCode = "validation_invalid_voice"
	ErrCodeValidationInvalidAudio  ErrorCode = "validation_invalid_audio_config"

	// Origin / abuse (403/429)
	ErrCodeOriginForbidden ErrorCode = "origin_forbidden"
	ErrCodeRateLimit       ErrorCode = "rate_limit_exceeded"

	// Upstream synthesis (502)
	ErrCodeUpstreamSynthesis   ErrorCode = "upstream_synthesis_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"
	ErrCodeUpstreamRejected    ErrorCode = "upstream_request_rejected"

	// Environment capability (degrade, never crash)
	ErrCodeCapabilityMissing ErrorCode = "capability_missing"

	// Internal (500)
	ErrCodeInternalStore      ErrorCode = "internal_store_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Used by the proxy layer to translate AppErrors into HTTP responses.
// Returns 500 for unrecognized error codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest // 400
	case s == string(ErrCodeOriginForbidden):
		return http.StatusForbidden // 403
	case s == string(ErrCodeRateLimit), s == string(ErrCodeUpstreamRateLimited):
		return http.StatusTooManyRequests // 429
	case s == string(ErrCodeUpstreamRejected):
		return http.StatusBadRequest // 400
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway // 502
	case s == string(ErrCodeCapabilityMissing):
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

// AppError is the standard application error type used throughout longwave.
// All domain and handler errors should be expressed as AppError to enable
// consistent error formatting, HTTP status mapping, and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error with the provided details merged in.
// This is useful for adding context without mutating the original error.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error. This is the standard constructor for domain errors.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
