package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/taskflow/internal/auth/domain"
	"github.com/aussiebroadwan/taskflow/internal/auth/store"
	"github.com/aussiebroadwan/taskflow/pkg/cryptox"
	"github.com/aussiebroadwan/taskflow/pkg/idx"
	"github.com/aussiebroadwan/taskflow/pkg/jwtx"
	"github.com/aussiebroadwan/taskflow/pkg/slogx"
)

// TokenSigner signs and verifies access tokens. *jwtx.KeyManager satisfies it.
type TokenSigner interface {
	Sign(claims jwtx.Claims) (string, error)
	Verify(token string) (jwtx.Claims, error)
}

// TokenService is the token issuer. Access tokens are stateless JWTs;
// refresh tokens are opaque, single use, and only their fingerprint is kept.
type TokenService struct {
	Keys       TokenSigner
	Store      store.Store
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// Issue mints a fresh access token and refresh token for u and records the
// refresh token's fingerprint.
func (s *TokenService) Issue(ctx context.Context, u domain.User) (*domain.TokenPair, error) {
	return s.issue(ctx, s.Store.RefreshTokens(), u, s.now())
}

func (s *TokenService) issue(
	ctx context.Context,
	refreshTokens store.RefreshTokens,
	u domain.User,
	now time.Time,
) (*domain.TokenPair, error) {
	accessToken, err := s.Keys.Sign(jwtx.NewAccessClaims(u.ID, u.Email, s.Issuer, s.accessTTL(), now))
	if err != nil {
		return nil, err
	}

	refresh, err := cryptox.NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	rt := domain.RefreshToken{
		ID:        idx.NewAt(now).String(),
		UserID:    u.ID,
		TokenHash: refresh.Fingerprint,
		ExpiresAt: now.Add(s.refreshTTL()),
		CreatedAt: now,
	}
	if err := refreshTokens.CreateRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refresh.Value,
		ExpiresIn:    s.accessTTL(),
	}, nil
}

// Rotate exchanges a refresh token for a new pair. The presented token is
// consumed whether or not it had expired; only one of several concurrent
// rotations of the same token can succeed.
func (s *TokenService) Rotate(ctx context.Context, refreshOpaque string) (domain.User, *domain.TokenPair, error) {
	now := s.now()
	l := slogx.FromContext(ctx)

	if refreshOpaque == "" {
		return domain.User{}, nil, ErrInvalidToken
	}

	// 1. Lookup the persisted refresh row by token fingerprint
	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Either never issued or already rotated/revoked.
			l.Warn("refresh token not recognised")
			return domain.User{}, nil, ErrInvalidToken
		}
		return domain.User{}, nil, err
	}

	// 2. Expired rows are removed on sight
	if rt.Expired(now) {
		if err := s.Store.RefreshTokens().DeleteRefreshToken(ctx, rt.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			l.Error("failed to delete expired refresh token", slogx.Err(err))
		}
		return domain.User{}, nil, ErrExpiredToken
	}

	// 3. Consume the old row and issue the new pair atomically
	var (
		user domain.User
		pair *domain.TokenPair
	)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().DeleteRefreshToken(ctx, rt.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				l.Warn("refresh token consumed concurrently", slog.String("user_id", rt.UserID))
				return ErrInvalidToken
			}
			return err
		}

		u, err := tx.Users().GetUserByID(ctx, rt.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidToken
			}
			return err
		}

		p, err := s.issue(ctx, tx.RefreshTokens(), u, now)
		if err != nil {
			return err
		}
		user, pair = u, p
		return nil
	})
	if err != nil {
		return domain.User{}, nil, err
	}

	l.Debug("refresh token rotated", slog.String("user_id", user.ID))
	return user, pair, nil
}

// Revoke deletes the refresh token if it exists. Unknown and empty tokens
// are not an error.
func (s *TokenService) Revoke(ctx context.Context, refreshOpaque string) error {
	if refreshOpaque == "" {
		return nil
	}
	return s.Store.RefreshTokens().DeleteRefreshTokenByHash(ctx, cryptox.FingerprintToken(refreshOpaque))
}

// RevokeAllForUser ends every session of userID.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	return s.Store.RefreshTokens().DeleteUserRefreshTokens(ctx, userID)
}

// Validate checks an access token's signature, issuer and lifetime. It
// returns ErrExpiredToken for an otherwise valid token past its expiry and
// ErrInvalidToken for everything else.
func (s *TokenService) Validate(accessToken string) (jwtx.Claims, error) {
	claims, err := s.Keys.Verify(accessToken)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return jwtx.Claims{}, ErrExpiredToken
		}
		return jwtx.Claims{}, ErrInvalidToken
	}
	return claims, nil
}
