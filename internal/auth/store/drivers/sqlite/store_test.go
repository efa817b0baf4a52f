package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskflow/internal/auth/domain"
	"github.com/aussiebroadwan/taskflow/internal/auth/store"
	"github.com/aussiebroadwan/taskflow/pkg/cryptox"
	"github.com/aussiebroadwan/taskflow/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations(context.Background()))
	return s
}

func seedUser(t *testing.T, s *Store, email string) domain.User {
	t.Helper()

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$argon2id$dummy",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func seedRefreshToken(t *testing.T, s *Store, userID string, expiresAt time.Time) domain.RefreshToken {
	t.Helper()

	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(opaque),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(context.Background(), rt))
	return rt
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations(context.Background()))
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := seedUser(t, s, "alice@example.com")

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
	require.Equal(t, u.Name, got.Name)
	require.Nil(t, got.ResetTokenHash)
	require.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Second)

	got, err = s.Users().GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err, "email lookup is case-insensitive")
	require.Equal(t, u.ID, got.ID)

	_, err = s.Users().GetUserByEmail(ctx, "bob@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().GetUserByID(ctx, idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)

	empty, err = s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "alice@example.com")

	now := time.Now().UTC()
	err := s.Users().CreateUser(context.Background(), domain.User{
		ID:           idx.New().String(),
		Email:        "Alice@Example.com",
		Name:         "Imposter",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUsers_ResetTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "alice@example.com")

	hash := cryptox.FingerprintToken("reset-token")
	expires := time.Now().UTC().Add(time.Hour)
	require.NoError(t, s.Users().SetResetToken(ctx, u.ID, hash, expires))

	got, err := s.Users().GetUserByResetTokenHash(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.True(t, got.PendingReset(time.Now()))
	require.False(t, got.PendingReset(expires.Add(time.Second)))

	require.ErrorIs(t, s.Users().ResetPassword(ctx, u.ID, "other-fp", "$argon2id$x", time.Now()), store.ErrNotFound)
	require.ErrorIs(t, s.Users().ResetPassword(ctx, u.ID, hash, "$argon2id$x", expires.Add(time.Second)), store.ErrNotFound)

	require.NoError(t, s.Users().ResetPassword(ctx, u.ID, hash, "$argon2id$new", time.Now()))
	require.ErrorIs(t, s.Users().ResetPassword(ctx, u.ID, hash, "$argon2id$again", time.Now()), store.ErrNotFound)

	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "$argon2id$new", got.PasswordHash)
	require.Nil(t, got.ResetTokenHash)
	require.Nil(t, got.ResetTokenExpiresAt)

	_, err = s.Users().GetUserByResetTokenHash(ctx, hash)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, s.Users().SetResetToken(ctx, "missing", hash, expires), store.ErrNotFound)
	require.ErrorIs(t, s.Users().ResetPassword(ctx, "missing", hash, "x", time.Now()), store.ErrNotFound)
}

func TestUsers_ClearExpiredResetTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	stale := seedUser(t, s, "stale@example.com")
	fresh := seedUser(t, s, "fresh@example.com")
	require.NoError(t, s.Users().SetResetToken(ctx, stale.ID, "stale-hash", now.Add(-time.Minute)))
	require.NoError(t, s.Users().SetResetToken(ctx, fresh.ID, "fresh-hash", now.Add(time.Hour)))

	n, err := s.Users().ClearExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.Users().GetUserByResetTokenHash(ctx, "stale-hash")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Users().GetUserByResetTokenHash(ctx, "fresh-hash")
	require.NoError(t, err)
}

func TestRefreshTokens_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "alice@example.com")

	rt := seedRefreshToken(t, s, u.ID, time.Now().UTC().Add(time.Hour))

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, rt.TokenHash)
	require.NoError(t, err)
	require.Equal(t, rt.ID, got.ID)
	require.Equal(t, u.ID, got.UserID)
	require.False(t, got.Expired(time.Now()))

	require.NoError(t, s.RefreshTokens().DeleteRefreshToken(ctx, rt.ID))
	require.ErrorIs(t, s.RefreshTokens().DeleteRefreshToken(ctx, rt.ID), store.ErrNotFound,
		"second delete must report that nothing was removed")

	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, rt.TokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.RefreshTokens().DeleteRefreshTokenByHash(ctx, "never-issued"))
}

func TestRefreshTokens_UnknownUser(t *testing.T) {
	s := newTestStore(t)

	err := s.RefreshTokens().CreateRefreshToken(context.Background(), domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    "nobody",
		TokenHash: "hash",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	})
	require.Error(t, err, "foreign keys must be enforced")
}

func TestRefreshTokens_BulkDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	alice := seedUser(t, s, "alice@example.com")
	bob := seedUser(t, s, "bob@example.com")

	seedRefreshToken(t, s, alice.ID, now.Add(time.Hour))
	seedRefreshToken(t, s, alice.ID, now.Add(time.Hour))
	seedRefreshToken(t, s, bob.ID, now.Add(-time.Minute))
	seedRefreshToken(t, s, bob.ID, now.Add(time.Hour))

	n, err := s.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = s.RefreshTokens().DeleteUserRefreshTokens(ctx, alice.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	count, err := s.RefreshTokens().CountUserRefreshTokens(ctx, alice.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	count, err = s.RefreshTokens().CountUserRefreshTokens(ctx, bob.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "alice@example.com")
	seedRefreshToken(t, s, u.ID, time.Now().UTC().Add(time.Hour))

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx store.Tx) error {
			if _, err := tx.RefreshTokens().DeleteUserRefreshTokens(ctx, u.ID); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		count, err := s.RefreshTokens().CountUserRefreshTokens(ctx, u.ID)
		require.NoError(t, err)
		require.EqualValues(t, 1, count)
	})

	t.Run("commits on success", func(t *testing.T) {
		hash := cryptox.FingerprintToken("reset-token")
		require.NoError(t, s.Users().SetResetToken(ctx, u.ID, hash, time.Now().UTC().Add(time.Hour)))

		err := s.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Users().ResetPassword(ctx, u.ID, hash, "new-hash", time.Now()); err != nil {
				return err
			}
			_, err := tx.RefreshTokens().DeleteUserRefreshTokens(ctx, u.ID)
			return err
		})
		require.NoError(t, err)

		count, err := s.RefreshTokens().CountUserRefreshTokens(ctx, u.ID)
		require.NoError(t, err)
		require.Zero(t, count)
	})

	t.Run("explicit nested Tx is refused", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			_, err := tx.Tx(ctx)
			return err
		})
		require.ErrorIs(t, err, errNestedTx)
	})
}

func TestWithPragmas(t *testing.T) {
	const defaults = "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	tests := []struct {
		dsn  string
		want string
	}{
		{"file:auth.db", "file:auth.db?" + defaults},
		{"file:auth.db?cache=shared", "file:auth.db?cache=shared&" + defaults},
		{"file:auth.db?_pragma=foreign_keys(1)", "file:auth.db?_pragma=foreign_keys(1)"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, withPragmas(tt.dsn), tt.dsn)
	}
}

func TestNewStore_FileUsesWAL(t *testing.T) {
	s, err := NewStore("file:" + filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	var mode string
	require.NoError(t, s.db.QueryRowContext(context.Background(), `PRAGMA journal_mode`).Scan(&mode))
	require.Equal(t, "wal", mode)
}

func TestSchemaVersion(t *testing.T) {
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	version, dirty, err := s.SchemaVersion()
	require.NoError(t, err)
	require.Zero(t, version)
	require.False(t, dirty)

	require.NoError(t, s.ApplyMigrations(context.Background()))
	require.NoError(t, s.ApplyMigrations(context.Background()), "re-applying is a no-op")

	version, dirty, err = s.SchemaVersion()
	require.NoError(t, err)
	require.Equal(t, uint(1), version)
	require.False(t, dirty)
}

func TestWithTx_NestedJoinsOuter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "nested@example.com")

	hash := cryptox.FingerprintToken("reset-token")
	require.NoError(t, s.Users().SetResetToken(ctx, u.ID, hash, time.Now().UTC().Add(time.Hour)))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Tx(ctx)
		require.Error(t, err)

		return tx.WithTx(ctx, func(inner store.Tx) error {
			require.NoError(t, inner.Users().ResetPassword(ctx, u.ID, hash, "changed", time.Now()))
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "$argon2id$dummy", got.PasswordHash, "outer rollback covers the inner work")
}
