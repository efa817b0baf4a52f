package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials         = errors.New("invalid_credentials")
	ErrDuplicateAccount           = errors.New("duplicate_account")
	ErrInvalidToken               = errors.New("invalid_token")
	ErrExpiredToken               = errors.New("token_expired")
	ErrInvalidOrExpiredResetToken = errors.New("invalid_or_expired_reset_token")
	ErrNotFound                   = errors.New("not_found")
)

// ValidationError reports a request field that failed validation. Handlers
// surface Message to the caller verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
