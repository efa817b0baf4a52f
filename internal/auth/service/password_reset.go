package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/taskflow/internal/auth/store"
	"github.com/aussiebroadwan/taskflow/pkg/cryptox"
	"github.com/aussiebroadwan/taskflow/pkg/slogx"
)

// DefaultResetTokenTTL is how long a reset link stays usable.
const DefaultResetTokenTTL = time.Hour

type PasswordResetService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher
	Mailer Mailer

	// ResetURLBase is the client origin; links take the form
	// <ResetURLBase>/reset-password/<token>.
	ResetURLBase string
	TTL          time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (s *PasswordResetService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *PasswordResetService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultResetTokenTTL
}

// RequestReset issues a reset token for email and mails the link. Unknown
// addresses succeed silently so the endpoint can't be used to probe for
// accounts.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := cryptox.NewOpaqueToken()
	if err != nil {
		return err
	}

	expiresAt := s.now().Add(s.ttl())
	if err := s.Store.Users().SetResetToken(ctx, u.ID, token.Fingerprint, expiresAt); err != nil {
		return err
	}

	link := strings.TrimRight(s.ResetURLBase, "/") + "/reset-password/" + token.Value
	if err := s.Mailer.SendPasswordReset(ctx, u.Email, u.Name, link); err != nil {
		// The token is stored; the user can simply ask again.
		l.Error("failed to deliver password reset", slog.String("user_id", u.ID), slogx.Err(err))
	}
	return nil
}

// PerformReset sets a new password using a reset token. On success the reset
// token is spent and every refresh token of the user is revoked.
func (s *PasswordResetService) PerformReset(ctx context.Context, token, newPassword string) error {
	l := slogx.FromContext(ctx)

	if token == "" {
		return ErrInvalidOrExpiredResetToken
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	now := s.now()
	fp := cryptox.FingerprintToken(token)
	u, err := s.Store.Users().GetUserByResetTokenHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredResetToken
		}
		return err
	}
	if !u.PendingReset(now) {
		return ErrInvalidOrExpiredResetToken
	}

	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	var revoked int64
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().ResetPassword(ctx, u.ID, fp, hash, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				l.Warn("reset token consumed concurrently", slog.String("user_id", u.ID))
				return ErrInvalidOrExpiredResetToken
			}
			return err
		}
		n, err := tx.RefreshTokens().DeleteUserRefreshTokens(ctx, u.ID)
		revoked = n
		return err
	})
	if err != nil {
		return err
	}

	l.Info("password reset completed",
		slog.String("user_id", u.ID),
		slog.Int64("sessions_revoked", revoked),
	)
	return nil
}
