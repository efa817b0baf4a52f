package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/taskflow/pkg/idx"
	"github.com/aussiebroadwan/taskflow/pkg/jwtx"
	"github.com/aussiebroadwan/taskflow/pkg/slogx"
)

// AuthnMiddleware requires a valid bearer access token. Expired tokens get
// 401 TOKEN_EXPIRED so clients know a refresh will help; everything else
// gets 401 INVALID_TOKEN.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, CodeInvalidToken, "Access token required")
				return
			}

			claims, err := v.Verify(raw)
			if errors.Is(err, jwtx.ErrExpired) {
				writeBearerError(w, CodeTokenExpired, "Access token expired")
				return
			}
			if err == nil {
				_, err = idx.Parse(claims.Subject)
			}
			if err != nil {
				log.Warn("jwt verify failed", slogx.Err(err))
				writeBearerError(w, CodeInvalidToken, "Invalid access token")
				return
			}

			ctx = contextWithAuth(ctx, claims)
			ctx = slogx.With(ctx, "user_id", claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RFC 6750 challenge plus our JSON body.
func writeBearerError(w http.ResponseWriter, code, desc string) {
	errParam := "invalid_token"
	if code == CodeInvalidToken && desc == "Access token required" {
		errParam = "invalid_request"
	}
	w.Header().Set("WWW-Authenticate", `Bearer error="`+errParam+`", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, code, desc)
}
