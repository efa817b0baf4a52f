package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Input limits for account fields.
const (
	MaxNameLength     = 100
	MaxEmailLength    = 255
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// NormalizeEmail trims and lower-cases an email so lookups and the unique
// index agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 {
		return invalid("name", "Name is required")
	}
	if n > MaxNameLength {
		return invalid("name", "Name must be at most %d characters", MaxNameLength)
	}
	return nil
}

// ValidateEmail expects an already normalised address.
func ValidateEmail(email string) error {
	if email == "" {
		return invalid("email", "Email is required")
	}
	if len(email) > MaxEmailLength {
		return invalid("email", "Email must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndexByte(email, '@')+1:], ".") {
		return invalid("email", "Invalid email address")
	}
	return nil
}

func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return invalid("password", "Password must be at least %d characters", MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return invalid("password", "Password must be at most %d characters", MaxPasswordLength)
	}
	return nil
}

func ValidateSignup(name, email, password string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}
