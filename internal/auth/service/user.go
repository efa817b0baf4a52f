package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/taskflow/internal/auth/domain"
	"github.com/aussiebroadwan/taskflow/internal/auth/store"
	"github.com/aussiebroadwan/taskflow/pkg/cryptox"
	"github.com/aussiebroadwan/taskflow/pkg/idx"
	"github.com/aussiebroadwan/taskflow/pkg/slogx"
)

// Demo account created by SeedDemoUser.
const (
	DemoEmail    = "demo@taskflow.ai"
	DemoPassword = "password123"
	DemoName     = "Demo User"
)

type UserService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher
	Tokens *TokenService
}

// Signup registers a new account and signs it in.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (domain.User, *domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if err := ValidateSignup(name, email, password); err != nil {
		return domain.User{}, nil, err
	}

	u, err := s.createUser(ctx, name, email, password)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			l.Info("signup with existing email")
			return domain.User{}, nil, ErrDuplicateAccount
		}
		l.Error("failed to create user", slogx.Err(err))
		return domain.User{}, nil, err
	}

	pair, err := s.Tokens.Issue(ctx, u)
	if err != nil {
		return domain.User{}, nil, err
	}

	l.Info("user registered", slog.String("user_id", u.ID))
	return u, pair, nil
}

// Login verifies credentials and issues a token pair. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, *domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	email = NormalizeEmail(email)

	if email == "" || password == "" {
		return domain.User{}, nil, ErrInvalidCredentials
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Hasher.VerifyDummy(password)
			return domain.User{}, nil, ErrInvalidCredentials
		}
		return domain.User{}, nil, err
	}

	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash unreadable", slog.String("user_id", u.ID), slogx.Err(err))
		}
		return domain.User{}, nil, ErrInvalidCredentials
	}

	pair, err := s.Tokens.Issue(ctx, u)
	if err != nil {
		return domain.User{}, nil, err
	}

	l.Info("user logged in", slog.String("user_id", u.ID))
	return u, pair, nil
}

// GetProfile fetches a user by id.
func (s *UserService) GetProfile(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrNotFound
	}
	return u, err
}

// SeedDemoUser creates the demo account unless it already exists. It
// reports whether a user was created.
func (s *UserService) SeedDemoUser(ctx context.Context) (bool, error) {
	_, err := s.Store.Users().GetUserByEmail(ctx, DemoEmail)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	u, err := s.createUser(ctx, DemoName, DemoEmail, DemoPassword)
	if errors.Is(err, store.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	slogx.FromContext(ctx).Info("demo user created", slog.String("user_id", u.ID), slog.String("email", u.Email))
	return true, nil
}

func (s *UserService) createUser(ctx context.Context, name, email, password string) (domain.User, error) {
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}

	now := s.Tokens.now().UTC()
	u := domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}
