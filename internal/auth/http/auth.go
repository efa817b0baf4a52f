package http

import (
	"net/http"

	"github.com/aussiebroadwan/taskflow/internal/auth/service"
	"github.com/aussiebroadwan/taskflow/pkg/authsdk"
	"github.com/aussiebroadwan/taskflow/pkg/httpx"
	"github.com/aussiebroadwan/taskflow/pkg/slogx"
)

// AuthHandler serves the account and session endpoints under /api/auth.
type AuthHandler struct {
	Users  *service.UserService
	Tokens *service.TokenService
}

// HandleSignup godoc
//
//	@Summary		Create an account
//	@Description	Registers a new account and signs it in. The email is trimmed and lower-cased.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.SignupRequest	true	"name, email, password"
//	@Success		201		{object}	authsdk.AuthResponse	"user, accessToken, refreshToken"
//	@Failure		400		{object}	authsdk.ErrorResponse	"VALIDATION_ERROR"
//	@Failure		409		{object}	authsdk.ErrorResponse	"DUPLICATE_ACCOUNT"
//	@Failure		429		{object}	authsdk.ErrorResponse	"RATE_LIMITED"
//	@Router			/api/auth/signup [post].
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignupRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.NewValidationError(err.Error()).WriteError(w)
		return
	}

	u, pair, err := h.Users.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authResponse(u, pair))
}

// HandleLogin godoc
//
//	@Summary		Sign in
//	@Description	Exchanges email and password for a token pair. Unknown emails and wrong passwords get the same response.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"email, password"
//	@Success		200		{object}	authsdk.AuthResponse	"user, accessToken, refreshToken"
//	@Failure		400		{object}	authsdk.ErrorResponse	"VALIDATION_ERROR"
//	@Failure		401		{object}	authsdk.ErrorResponse	"INVALID_CREDENTIALS"
//	@Failure		429		{object}	authsdk.ErrorResponse	"RATE_LIMITED"
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.NewValidationError(err.Error()).WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		authsdk.NewValidationError("email and password are required").WriteError(w)
		return
	}

	u, pair, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authResponse(u, pair))
}

// HandleRefresh godoc
//
//	@Summary		Rotate a refresh token
//	@Description	Consumes the refresh token and returns a new pair. Each refresh token works once.
//	@Description	An expired token is deleted and reported as TOKEN_EXPIRED; reuse of a consumed token is INVALID_TOKEN.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RefreshRequest	true	"refreshToken"
//	@Success		200		{object}	authsdk.AuthResponse	"user, accessToken, refreshToken"
//	@Failure		400		{object}	authsdk.ErrorResponse	"VALIDATION_ERROR"
//	@Failure		401		{object}	authsdk.ErrorResponse	"INVALID_TOKEN or TOKEN_EXPIRED"
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Router			/api/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.NewValidationError(err.Error()).WriteError(w)
		return
	}
	if req.RefreshToken == "" {
		authsdk.NewValidationError("refreshToken is required").WriteError(w)
		return
	}

	u, pair, err := h.Tokens.Rotate(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authResponse(u, pair))
}

// HandleLogout godoc
//
//	@Summary		Sign out
//	@Description	Revokes the refresh token. Always answers 200, including for unknown or missing tokens.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RefreshRequest	false	"refreshToken"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Router			/api/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		log.Debug("logout without a readable body", slogx.Err(err))
	}

	if req.RefreshToken != "" {
		if err := h.Tokens.Revoke(ctx, req.RefreshToken); err != nil {
			log.Warn("revoke refresh token failed", slogx.Err(err))
		}
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Logged out successfully"})
}

// HandleMe godoc
//
//	@Summary		Current user
//	@Description	Returns the profile of the account the access token was issued to.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"INVALID_TOKEN or TOKEN_EXPIRED"
//	@Failure		404	{object}	authsdk.ErrorResponse	"NOT_FOUND"
//	@Router			/api/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	u, err := h.Users.GetProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{User: userResponse(u)})
}
