package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskflow/internal/auth/domain"
	"github.com/aussiebroadwan/taskflow/internal/auth/store"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newContainerStore starts a throwaway postgres and returns a migrated Store.
func newContainerStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "taskflow",
				"POSTGRES_PASSWORD": "taskflow",
				"POSTGRES_DB":       "taskflow",
			},
			// postgres restarts once after initdb; wait for the second ready line.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://taskflow:taskflow@%s:%s/taskflow?sslmode=disable", host, port.Port())
	s, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations(ctx))
	return s
}

func TestIntegration_UserAndTokenLifecycle(t *testing.T) {
	s := newContainerStore(t)
	ctx := t.Context()
	now := time.Now().UTC().Truncate(time.Microsecond)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := domain.User{
		ID:           "01JAZ3Q0S6W5N8XGQ7M1V3K9TB",
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(ctx, u))

	dup := u
	dup.ID = "01JAZ3Q0S6W5N8XGQ7M1V3K9TC"
	dup.Email = "ALICE@example.com"
	require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)

	got, err := s.Users().GetUserByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	rt := domain.RefreshToken{
		ID:        "01JAZ3Q0S6W5N8XGQ7M1V3K9TD",
		UserID:    u.ID,
		TokenHash: "fp-1",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))

	stored, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "fp-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, stored.UserID)

	// Two deletes of one row: exactly one succeeds.
	require.NoError(t, s.RefreshTokens().DeleteRefreshToken(ctx, rt.ID))
	require.ErrorIs(t, s.RefreshTokens().DeleteRefreshToken(ctx, rt.ID), store.ErrNotFound)
}

func TestIntegration_ResetInTransaction(t *testing.T) {
	s := newContainerStore(t)
	ctx := t.Context()
	now := time.Now().UTC().Truncate(time.Microsecond)

	u := domain.User{ID: "u1", Email: "bob@example.com", Name: "Bob", PasswordHash: "old", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.Users().CreateUser(ctx, u))
	for i := range 3 {
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID:        fmt.Sprintf("rt%d", i),
			UserID:    u.ID,
			TokenHash: fmt.Sprintf("fp%d", i),
			ExpiresAt: now.Add(time.Hour),
			CreatedAt: now,
		}))
	}
	require.NoError(t, s.Users().SetResetToken(ctx, u.ID, "reset-fp", now.Add(time.Hour)))

	pending, err := s.Users().GetUserByResetTokenHash(ctx, "reset-fp")
	require.NoError(t, err)
	require.True(t, pending.PendingReset(now))

	var revoked int64
	err = s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().ResetPassword(ctx, u.ID, "reset-fp", "new", now); err != nil {
			return err
		}
		revoked, err = tx.RefreshTokens().DeleteUserRefreshTokens(ctx, u.ID)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), revoked)

	after, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new", after.PasswordHash)
	require.Nil(t, after.ResetTokenHash)

	err = s.Users().ResetPassword(ctx, u.ID, "reset-fp", "again", now)
	require.ErrorIs(t, err, store.ErrNotFound, "a spent reset token cannot be replayed")

	count, err := s.RefreshTokens().CountUserRefreshTokens(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}
