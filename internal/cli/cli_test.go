package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/taskflow/pkg/authsdk"
	"github.com/aussiebroadwan/taskflow/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	*httptest.Server
	refreshes atomic.Int32
	logouts   atomic.Int32
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{}
	user := authsdk.User{ID: "u1", Email: "demo@taskflow.local", Name: "Demo User"}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req authsdk.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "demo123" {
			authsdk.ErrInvalidCredentials.WriteError(w)
			return
		}
		writeJSON(w, http.StatusOK, authsdk.AuthResponse{User: user, AccessToken: "access-1", RefreshToken: "refresh-1"})
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshes.Add(1)
		var req authsdk.RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.RefreshToken != "refresh-1" {
			authsdk.ErrInvalidToken.WriteError(w)
			return
		}
		writeJSON(w, http.StatusOK, authsdk.AuthResponse{User: user, AccessToken: "access-2", RefreshToken: "refresh-2"})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.logouts.Add(1)
		writeJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Logged out successfully"})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-2" {
			authsdk.ErrTokenExpired.WriteError(w)
			return
		}
		writeJSON(w, http.StatusOK, authsdk.MeResponse{User: user})
	})
	mux.HandleFunc("POST /api/auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "If that email exists, a reset link has been sent."})
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestApp(input string) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &App{
		In:     bufio.NewReader(strings.NewReader(input)),
		Out:    out,
		Err:    &bytes.Buffer{},
		Logger: slogx.Discard(),
	}, out
}

func TestLoginThenMe(t *testing.T) {
	srv := newFakeServer(t)
	sessionFile := filepath.Join(t.TempDir(), "session.json")
	args := func(cmd string) []string { return []string{"-url", srv.URL, "-session", sessionFile, cmd} }

	app, out := newTestApp("demo@taskflow.local\ndemo123\n")
	require.NoError(t, app.Run(t.Context(), args("login")))
	require.Contains(t, out.String(), "Logged in as Demo User <demo@taskflow.local>")

	stored, err := authsdk.NewFileTokenStore(sessionFile).Load()
	require.NoError(t, err)
	require.Equal(t, "refresh-1", stored)

	// A new process starts with only the refresh token on disk.
	app, out = newTestApp("")
	require.NoError(t, app.Run(t.Context(), args("me")))
	require.Contains(t, out.String(), `"email": "demo@taskflow.local"`)
	require.Equal(t, int32(1), srv.refreshes.Load())

	stored, err = authsdk.NewFileTokenStore(sessionFile).Load()
	require.NoError(t, err)
	require.Equal(t, "refresh-2", stored)

	app, out = newTestApp("")
	require.NoError(t, app.Run(t.Context(), args("logout")))
	require.Contains(t, out.String(), "Logged out")
	require.Equal(t, int32(1), srv.logouts.Load())

	stored, err = authsdk.NewFileTokenStore(sessionFile).Load()
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := newFakeServer(t)
	app, _ := newTestApp("demo@taskflow.local\nwrong\n")

	err := app.Run(t.Context(), []string{"-url", srv.URL, "-session", filepath.Join(t.TempDir(), "s.json"), "login"})
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)
}

func TestMe_WithoutSession(t *testing.T) {
	srv := newFakeServer(t)
	app, _ := newTestApp("")

	err := app.Run(t.Context(), []string{"-url", srv.URL, "-session", filepath.Join(t.TempDir(), "s.json"), "me"})
	require.Error(t, err)
	require.Zero(t, srv.refreshes.Load())
}

func TestForgotPassword(t *testing.T) {
	srv := newFakeServer(t)
	app, out := newTestApp("nobody@example.com\n")

	require.NoError(t, app.Run(t.Context(), []string{"-url", srv.URL, "-session", filepath.Join(t.TempDir(), "s.json"), "forgot-password"}))
	require.Contains(t, out.String(), "If that email exists, a reset link has been sent.")
}

func TestRun_UnknownCommand(t *testing.T) {
	app, _ := newTestApp("")
	require.Error(t, app.Run(t.Context(), []string{"frobnicate"}))
	require.Error(t, app.Run(t.Context(), nil))
}

func TestPromptPassword_Terminal(t *testing.T) {
	origRead, origTerm := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = origRead, origTerm })

	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }

	out := &bytes.Buffer{}
	pw, err := promptPassword(bufio.NewReader(strings.NewReader("")), out, "Password")
	require.NoError(t, err)
	require.Equal(t, "s3cret", pw)
	require.Equal(t, "Password: \n", out.String())
}

func TestPrompt_LastLineWithoutNewline(t *testing.T) {
	got, err := prompt(bufio.NewReader(strings.NewReader("  alice@example.com")), &bytes.Buffer{}, "Email")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", got)
}
