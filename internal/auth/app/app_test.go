package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/taskflow/internal/auth/service"
	"github.com/aussiebroadwan/taskflow/pkg/authsdk"
	"github.com/aussiebroadwan/taskflow/pkg/jwtx"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("ACCESS_TOKEN_SECRET", strings.Repeat("x", jwtx.MinHS256SecretLength))
	t.Setenv("AUTH_DATABASE_FILE", filepath.Join(dir, "auth.db"))
	t.Setenv("AUTH_PEPPER_FILE", filepath.Join(dir, "pepper"))
	t.Setenv("PASSWORD_ALGORITHM", "bcrypt")
	t.Setenv("PASSWORD_COST", "4")
	t.Setenv("AUTH_SEED_DEMO", "true")
	t.Setenv("LOG_LEVEL", "error")

	return LoadConfig()
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	require.Equal(t, 3001, cfg.Port)
	require.Equal(t, jwtx.AlgorithmHS256, cfg.Algorithm)
	require.Equal(t, jwtx.DefaultAccessTokenTTL, cfg.AccessTTL)
	require.Equal(t, jwtx.DefaultRefreshTokenTTL, cfg.RefreshTTL)
	require.Equal(t, time.Hour, cfg.ResetTTL)
	require.Equal(t, DriverSQLite, cfg.DBDriver)
	require.Equal(t, RateLimitMemory, cfg.RateLimitBackend)
	require.Equal(t, "http://localhost:5173", cfg.ClientURL)
	require.False(t, cfg.SeedDemo)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL", "30")
	t.Setenv("CLIENT_URL", "https://app.taskflow.ai/")
	t.Setenv("AUTH_DB_DRIVER", "Postgres")

	cfg := LoadConfig()
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, 5*time.Minute, cfg.AccessTTL)
	require.Equal(t, 30*time.Minute, cfg.RefreshTTL, "bare integers are minutes")
	require.Equal(t, "https://app.taskflow.ai", cfg.ClientURL)
	require.Equal(t, DriverPostgres, cfg.DBDriver)
}

func TestConfig_Validate(t *testing.T) {
	valid := testConfig(t)
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short secret", func(c *Config) { c.Secret = "short" }, "ACCESS_TOKEN_SECRET"},
		{"eddsa needs no secret", func(c *Config) { c.Algorithm = jwtx.AlgorithmEdDSA; c.Secret = "" }, ""},
		{"unknown algorithm", func(c *Config) { c.Algorithm = "RS256" }, "AUTH_ALGORITHM"},
		{"postgres without url", func(c *Config) { c.DBDriver = DriverPostgres }, "DATABASE_URL"},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "AUTH_DB_DRIVER"},
		{"redis without url", func(c *Config) { c.RateLimitBackend = RateLimitRedis }, "REDIS_URL"},
		{"access outlives refresh", func(c *Config) { c.AccessTTL = c.RefreshTTL }, "ACCESS_TOKEN_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func newTestApp(t *testing.T, cfg Config) *Application {
	t.Helper()
	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.close() })
	return app
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data)))
	return rec
}

func TestNew_DemoLogin(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	rec := post(t, app.Handler(), "/api/auth/login", authsdk.LoginRequest{
		Email: service.DemoEmail, Password: service.DemoPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp authsdk.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, service.DemoName, resp.User.Name)
}

func TestNew_SeedIsIdempotent(t *testing.T) {
	cfg := testConfig(t)

	first, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, first.close())

	// Reopening the same database and pepper keeps the seeded account usable.
	second := newTestApp(t, cfg)
	rec := post(t, second.Handler(), "/api/auth/login", authsdk.LoginRequest{
		Email: service.DemoEmail, Password: service.DemoPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestNew_EdDSAPersistsKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Algorithm = jwtx.AlgorithmEdDSA
	cfg.SigningKeyFile = filepath.Join(t.TempDir(), "signing.pem")

	first := newTestApp(t, cfg)
	rec := post(t, first.Handler(), "/api/auth/login", authsdk.LoginRequest{
		Email: service.DemoEmail, Password: service.DemoPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp authsdk.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// A second instance with the same key file accepts the first one's token.
	second := newTestApp(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	me := httptest.NewRecorder()
	second.Handler().ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())

	jwks := httptest.NewRecorder()
	second.Handler().ServeHTTP(jwks, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	require.Equal(t, http.StatusOK, jwks.Code)
}

func TestNew_RedisRateLimiting(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.RateLimitBackend = RateLimitRedis
	cfg.RedisURL = "redis://" + mr.Addr()

	app := newTestApp(t, cfg)
	require.NotNil(t, app.redis)

	rec := post(t, app.Handler(), "/api/auth/forgot-password", authsdk.ForgotPasswordRequest{Email: service.DemoEmail})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, mr.Keys(), "limiter counters live in redis")
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Secret = ""

	_, err := New(context.Background(), cfg)
	require.ErrorContains(t, err, "invalid configuration")
}
