package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/taskflow/internal/auth/domain"
	"github.com/aussiebroadwan/taskflow/internal/auth/service"
	"github.com/aussiebroadwan/taskflow/pkg/authsdk"
	"github.com/aussiebroadwan/taskflow/pkg/slogx"
)

var (
	errRefreshTokenInvalid = &authsdk.APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       authsdk.CodeInvalidToken,
		Message:    "Invalid refresh token",
	}
	errRefreshTokenExpired = &authsdk.APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       authsdk.CodeTokenExpired,
		Message:    "Refresh token expired",
	}
)

// writeServiceError maps a service error onto the API error taxonomy.
// Anything unrecognised is logged and answered with a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		authsdk.NewValidationError(verr.Message).WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrDuplicateAccount):
		authsdk.ErrDuplicateAccount.WriteError(w)
	case errors.Is(err, service.ErrExpiredToken):
		errRefreshTokenExpired.WriteError(w)
	case errors.Is(err, service.ErrInvalidToken):
		errRefreshTokenInvalid.WriteError(w)
	case errors.Is(err, service.ErrInvalidOrExpiredResetToken):
		authsdk.ErrInvalidOrExpiredResetToken.WriteError(w)
	case errors.Is(err, service.ErrNotFound):
		authsdk.ErrNotFound.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", slogx.Err(err))
		authsdk.ErrInternal.WriteError(w)
	}
}

func userResponse(u domain.User) authsdk.User {
	return authsdk.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

func authResponse(u domain.User, pair *domain.TokenPair) authsdk.AuthResponse {
	return authsdk.AuthResponse{
		User:         userResponse(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
}
