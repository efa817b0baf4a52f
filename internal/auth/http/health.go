package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aussiebroadwan/taskflow/pkg/authsdk"
	"github.com/aussiebroadwan/taskflow/pkg/httpx"
	"github.com/aussiebroadwan/taskflow/pkg/jwtx"
)

// jwksMaxAge lets verifiers cache the key set; the key only changes when the
// process restarts with a new key file.
const jwksMaxAge = "public, max-age=300"

// HealthHandler godoc
//
//	@Summary		API health
//	@Description	Reports that the API is up, with the server time.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.APIHealthResponse	"status, timestamp"
//	@Router			/api/health [get].
func HealthHandler(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.APIHealthResponse{
			Status:    "ok",
			Timestamp: now().UTC(),
		})
	}
}

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Returns 200 with uptime and version while the process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(started time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(started).Round(time.Second).String(),
			Version: version,
		})
	}
}

// JWKSHandler godoc
//
//	@Summary		JSON Web Key Set
//	@Description	Public keys for verifying access tokens. Only served when tokens are signed with EdDSA.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", jwksMaxAge)
		_ = json.NewEncoder(w).Encode(authsdk.JWKSResponse(keys.PublicJWKS()))
	}
}
