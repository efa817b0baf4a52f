package authsdk

import (
	"time"

	"github.com/aussiebroadwan/taskflow/pkg/jwtx"
)

// ============================================================================
// Request Types
// ============================================================================

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Name     string `json:"name" example:"Alice"`
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"password123"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" example:"demo@taskflow.ai"`
	Password string `json:"password" example:"password123"`
}

// RefreshRequest is the body of POST /api/auth/refresh and /api/auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ForgotPasswordRequest is the body of POST /api/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" example:"alice@example.com"`
}

// ResetPasswordRequest is the body of POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	// Token is the opaque token from the reset link.
	Token    string `json:"token"`
	Password string `json:"password" example:"new-password-123"`
}

// ============================================================================
// Response Types
// ============================================================================

// User is the public profile of an account.
type User struct {
	ID        string    `json:"id" example:"01JAZ3Q0S6W5N8XGQ7M1V3K9TB"`
	Email     string    `json:"email" example:"alice@example.com"`
	Name      string    `json:"name" example:"Alice"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResponse is returned by signup, login and refresh.
type AuthResponse struct {
	User User `json:"user"`

	// AccessToken is the short-lived JWT sent as "Authorization: Bearer".
	AccessToken string `json:"accessToken"`

	// RefreshToken is opaque and single use; every refresh returns a new one.
	RefreshToken string `json:"refreshToken"`
}

// MeResponse is returned by GET /api/auth/me.
type MeResponse struct {
	User User `json:"user"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message" example:"Logged out successfully"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	// Error is a human-readable message
	Error string `json:"error" example:"Invalid email or password"`

	// Code is a stable machine-readable code, e.g. TOKEN_EXPIRED
	Code string `json:"code" example:"INVALID_CREDENTIALS"`
}

// ============================================================================
// Health Types
// ============================================================================

// APIHealthResponse is returned by GET /api/health.
type APIHealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`

	// Signer indicates the JWT signing capability status
	Signer string `json:"signer"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse contains the JSON Web Key Set. Only served when tokens are
// signed with EdDSA.
type JWKSResponse jwtx.JWKS
