package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/taskflow/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	CodeValidationError            = "VALIDATION_ERROR"
	CodeInvalidCredentials         = "INVALID_CREDENTIALS"
	CodeDuplicateAccount           = "DUPLICATE_ACCOUNT"
	CodeInvalidToken               = httpx.CodeInvalidToken
	CodeTokenExpired               = httpx.CodeTokenExpired
	CodeInvalidOrExpiredResetToken = "INVALID_OR_EXPIRED_RESET_TOKEN"
	CodeNotFound                   = "NOT_FOUND"
	CodeRateLimited                = httpx.CodeRateLimited
	CodeInternalError              = httpx.CodeInternalError
)

// ============================================================================
// APIError
// ============================================================================

// APIError is an error response of the auth API. The server writes them and
// the SDK parses them back, so errors.Is works on both sides of the wire:
// two APIErrors match when their codes match.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code, e.g. TOKEN_EXPIRED
	Code string `json:"code"`

	// Message is a human-readable description
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WriteError writes the error as a JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	if e.StatusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	httpx.WriteError(w, e.StatusCode, e.Code, e.Message)
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidCredentials,
		Message:    "Invalid email or password",
	}

	ErrDuplicateAccount = &APIError{
		StatusCode: http.StatusConflict,
		Code:       CodeDuplicateAccount,
		Message:    "An account with this email already exists",
	}

	ErrAccessTokenRequired = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidToken,
		Message:    "Access token required",
	}

	ErrInvalidToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidToken,
		Message:    "Invalid token",
	}

	ErrTokenExpired = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       CodeTokenExpired,
		Message:    "Token expired",
	}

	ErrInvalidOrExpiredResetToken = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       CodeInvalidOrExpiredResetToken,
		Message:    "Invalid or expired reset token",
	}

	ErrNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       CodeNotFound,
		Message:    "User not found",
	}

	ErrInternal = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternalError,
		Message:    "Internal server error",
	}
)

// NewValidationError returns a 400 VALIDATION_ERROR with msg.
func NewValidationError(msg string) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       CodeValidationError,
		Message:    msg,
	}
}

// IsTokenExpired reports whether err is a TOKEN_EXPIRED response.
func IsTokenExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}

// ============================================================================
// Session Errors
// ============================================================================

var (
	// ErrSessionEnded is returned once the refresh token has been rejected or
	// lost. The user has to log in again.
	ErrSessionEnded = errors.New("authsdk: session ended")

	// ErrRetryExhausted is returned when a request was rejected with 401
	// even after a successful refresh. The request is not retried again.
	ErrRetryExhausted = errors.New("authsdk: request unauthorized after refresh")

	// ErrNoRefreshToken means there is nothing to refresh with.
	ErrNoRefreshToken = errors.New("authsdk: no refresh token")
)

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse converts a non-2xx response body into an *APIError.
// Returns nil for 2xx.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && (errResp.Code != "" || errResp.Error != "") {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       errResp.Code,
			Message:    errResp.Error,
		}
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       CodeInternalError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
