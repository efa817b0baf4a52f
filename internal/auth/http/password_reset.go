package http

import (
	"net/http"

	"github.com/aussiebroadwan/taskflow/internal/auth/service"
	"github.com/aussiebroadwan/taskflow/pkg/authsdk"
	"github.com/aussiebroadwan/taskflow/pkg/httpx"
)

const forgotPasswordMessage = "If that email exists, a reset link has been sent."

// PasswordResetHandler serves the forgot and reset password endpoints.
type PasswordResetHandler struct {
	Resets *service.PasswordResetService
}

// HandleForgotPassword godoc
//
//	@Summary		Request a password reset
//	@Description	Sends a reset link valid for one hour. The response is identical whether or not the account exists.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ForgotPasswordRequest	true	"email"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"VALIDATION_ERROR"
//	@Failure		429		{object}	authsdk.ErrorResponse	"RATE_LIMITED"
//	@Router			/api/auth/forgot-password [post].
func (h *PasswordResetHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ForgotPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.NewValidationError(err.Error()).WriteError(w)
		return
	}

	if err := h.Resets.RequestReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: forgotPasswordMessage})
}

// HandleResetPassword godoc
//
//	@Summary		Reset a password
//	@Description	Sets a new password using the token from a reset link and signs out every session of the account.
//	@Tags			Password
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ResetPasswordRequest	true	"token, password"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"VALIDATION_ERROR or INVALID_OR_EXPIRED_RESET_TOKEN"
//	@Router			/api/auth/reset-password [post].
func (h *PasswordResetHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ResetPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.NewValidationError(err.Error()).WriteError(w)
		return
	}

	if err := h.Resets.PerformReset(r.Context(), req.Token, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Password reset successfully."})
}
