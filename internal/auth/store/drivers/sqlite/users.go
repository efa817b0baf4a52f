package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/taskflow/internal/auth/domain"
	"github.com/aussiebroadwan/taskflow/internal/auth/store"
	"github.com/aussiebroadwan/taskflow/internal/auth/store/drivers/sqlite/gen"
)

type usersRepo struct {
	q *gen.Queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByResetTokenHash(ctx context.Context, hash string) (domain.User, error) {
	row, err := r.q.GetUserByResetTokenHash(ctx, sql.NullString{String: hash, Valid: true})
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	err := r.q.CreateUser(ctx, gen.CreateUserParams{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	})
	return mapConstraint(err)
}

func (r *usersRepo) SetResetToken(ctx context.Context, userID, hash string, expiresAt time.Time) error {
	n, err := r.q.SetUserResetToken(ctx, gen.SetUserResetTokenParams{
		ResetTokenHash:      sql.NullString{String: hash, Valid: true},
		ResetTokenExpiresAt: sql.NullTime{Time: expiresAt.UTC(), Valid: true},
		UpdatedAt:           time.Now().UTC(),
		ID:                  userID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) ResetPassword(ctx context.Context, userID, tokenHash, newHash string, now time.Time) error {
	n, err := r.q.ResetUserPassword(ctx, gen.ResetUserPasswordParams{
		PasswordHash:        newHash,
		UpdatedAt:           time.Now().UTC(),
		ID:                  userID,
		ResetTokenHash:      sql.NullString{String: tokenHash, Valid: true},
		ResetTokenExpiresAt: sql.NullTime{Time: now.UTC(), Valid: true},
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	return r.q.ClearExpiredResetTokens(ctx, sql.NullTime{Time: now.UTC(), Valid: true})
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.q.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
