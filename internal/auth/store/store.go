package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/taskflow/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and so a Tx can only hand out repos bound to that transaction.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens

	ApplyMigrations(ctx context.Context) error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh rotation).
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and password reset requests. Email
	// matching is case-insensitive.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByResetTokenHash returns the user holding the given reset token
	// fingerprint, regardless of whether it has expired.
	GetUserByResetTokenHash(ctx context.Context, hash string) (domain.User, error)

	// CreateUser inserts a new user. Returns ErrAlreadyExists when the email
	// is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// SetResetToken records a pending reset, replacing any previous one.
	SetResetToken(ctx context.Context, userID, hash string, expiresAt time.Time) error

	// ResetPassword stores the new hash and clears the reset fields, but only
	// while tokenHash is still the user's pending reset and has not expired at
	// now. Returns ErrNotFound otherwise, so a reset token is spent at most once.
	ResetPassword(ctx context.Context, userID, tokenHash, newHash string, now time.Time) error

	// ClearExpiredResetTokens is housekeeping; it returns the rows touched.
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// DeleteRefreshToken removes a single record by id. Returns ErrNotFound
	// when nothing was deleted, which is how a concurrent rotation of the
	// same token loses the race.
	DeleteRefreshToken(ctx context.Context, id string) error

	// DeleteRefreshTokenByHash removes the record matching the fingerprint,
	// if any. Deleting an unknown token is not an error.
	DeleteRefreshTokenByHash(ctx context.Context, hash string) error

	// DeleteUserRefreshTokens revokes every session for a user.
	DeleteUserRefreshTokens(ctx context.Context, userID string) (int64, error)

	// CountUserRefreshTokens returns the number of live records for a user.
	CountUserRefreshTokens(ctx context.Context, userID string) (int64, error)

	// DeleteExpiredRefreshTokens is housekeeping; it returns the rows removed.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}
