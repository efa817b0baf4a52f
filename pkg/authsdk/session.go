package authsdk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/taskflow/pkg/slogx"
)

// DefaultRefreshTimeout bounds a single refresh exchange.
const DefaultRefreshTimeout = 15 * time.Second

// Refresher exchanges a refresh token for a new pair. *SDKClient implements it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
}

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Session holds the access token of a signed-in user and attaches it to
// requests. When the server reports TOKEN_EXPIRED the session refreshes once,
// no matter how many requests failed concurrently, and retries each of them
// once with the new token.
//
// A failed refresh ends the session: stored credentials are cleared, the
// ended hook fires, and every waiting request gets an error wrapping
// ErrSessionEnded.
type Session struct {
	client         *SDKClient
	store          TokenStore
	refresher      Refresher
	doer           Doer
	refreshTimeout time.Duration
	onEnded        func(error)
	logger         *slog.Logger

	mu          sync.Mutex
	accessToken string
	user        *User
	inflight    *refreshCall
	ended       bool
	generation  uint64 // bumped by every Login and Signup
}

// refreshCall is one refresh exchange. token and err are written before done
// is closed.
type refreshCall struct {
	done       chan struct{}
	generation uint64
	token      string
	err        error
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRefresher replaces the client as the source of new token pairs.
func WithRefresher(r Refresher) SessionOption {
	return func(s *Session) { s.refresher = r }
}

// WithHTTPClient sets the Doer used by Session.Do.
func WithHTTPClient(d Doer) SessionOption {
	return func(s *Session) { s.doer = d }
}

// WithRefreshTimeout bounds each refresh exchange.
func WithRefreshTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.refreshTimeout = d }
}

// WithSessionEndedHook registers fn to run once each time the session ends.
// err is nil after Logout and wraps ErrSessionEnded after a failed refresh.
func WithSessionEndedHook(fn func(err error)) SessionOption {
	return func(s *Session) { s.onEnded = fn }
}

// WithLogger sets the logger for refresh events.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a signed-out session. Use Login, Signup or Resume to
// obtain tokens. A nil store keeps the refresh token in memory.
func NewSession(client *SDKClient, store TokenStore, opts ...SessionOption) *Session {
	if store == nil {
		store = NewMemoryTokenStore("")
	}
	s := &Session{
		client:         client,
		store:          store,
		refresher:      client,
		doer:           client.HTTPClient,
		refreshTimeout: DefaultRefreshTimeout,
		logger:         slogx.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login signs in and stores the returned tokens.
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.establish(resp)
}

// Signup creates an account and signs in to it.
func (s *Session) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	resp, err := s.client.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(resp)
}

// Resume obtains an access token from the stored refresh token. It returns
// an error wrapping ErrSessionEnded when the stored token is missing or no
// longer accepted.
func (s *Session) Resume(ctx context.Context) (*User, error) {
	s.mu.Lock()
	s.ended = false
	s.mu.Unlock()

	if _, err := s.awaitRefresh(ctx, ""); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, nil
}

// establish installs a fresh login. A refresh still in flight for the
// previous credentials is discarded when it returns.
func (s *Session) establish(resp *AuthResponse) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(resp.RefreshToken); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}
	s.accessToken = resp.AccessToken
	s.user = &resp.User
	s.ended = false
	s.generation++
	return s.user, nil
}

// AccessToken returns the current access token, or "" when signed out.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// User returns the profile from the last login or refresh.
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Do sends req with the current access token. A TOKEN_EXPIRED response
// triggers the shared refresh and a single retry; a 401 on the retry is
// returned as ErrRetryExhausted. Other responses, including other 401s, are
// returned unchanged.
//
// Requests with a body must be replayable: bodies created by
// http.NewRequest from bytes or strings are, others are buffered.
func (s *Session) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.Clone(ctx)
	if err := makeReplayable(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil, ErrSessionEnded
	}
	used := s.accessToken
	s.mu.Unlock()

	resp, err := s.send(req, used)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	apiErr, err := peekError(resp)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if apiErr == nil || apiErr.Code != CodeTokenExpired {
		return resp, nil
	}
	resp.Body.Close()

	token, err := s.awaitRefresh(ctx, used)
	if err != nil {
		return nil, err
	}

	retry, err := replay(req)
	if err != nil {
		return nil, err
	}
	resp, err = s.send(retry, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %w", ErrRetryExhausted, parseErrorResponse(resp, body))
	}
	return resp, nil
}

func (s *Session) send(req *http.Request, token string) (*http.Response, error) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Del("Authorization")
	}

	resp, err := s.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// awaitRefresh returns an access token newer than stale. If another request
// already replaced stale the current token is returned without a refresh;
// otherwise the caller joins the in-flight refresh or starts one.
//
// The refresh itself is detached from ctx: a caller giving up does not
// cancel the exchange the other waiters depend on.
func (s *Session) awaitRefresh(ctx context.Context, stale string) (string, error) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return "", ErrSessionEnded
	}
	if s.inflight == nil && s.accessToken != "" && s.accessToken != stale {
		token := s.accessToken
		s.mu.Unlock()
		return token, nil
	}
	call := s.inflight
	if call == nil {
		call = &refreshCall{done: make(chan struct{}), generation: s.generation}
		s.inflight = call
		go s.runRefresh(context.WithoutCancel(ctx), call)
	}
	s.mu.Unlock()

	select {
	case <-call.done:
		return call.token, call.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Session) runRefresh(ctx context.Context, call *refreshCall) {
	ctx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()

	resp, err := s.refresh(ctx)

	// Store writes happen under mu so they cannot interleave with establish.
	s.mu.Lock()
	s.inflight = nil
	if s.generation != call.generation {
		// A Login or Signup replaced the credentials this refresh started from.
		call.token = s.accessToken
		s.mu.Unlock()
		s.logger.Debug("discarding refresh result for a replaced session")
		close(call.done)
		return
	}
	if err == nil {
		if saveErr := s.store.Save(resp.RefreshToken); saveErr != nil {
			err = fmt.Errorf("save refresh token: %w", saveErr)
		}
	}
	if err == nil {
		s.accessToken = resp.AccessToken
		s.user = &resp.User
		call.token = resp.AccessToken
		s.mu.Unlock()
		s.logger.Debug("session refreshed")
		close(call.done)
		return
	}

	s.accessToken = ""
	s.user = nil
	s.ended = true
	call.err = fmt.Errorf("%w: %w", ErrSessionEnded, err)
	clearErr := s.store.Clear()
	s.mu.Unlock()

	s.logger.Info("session ended", slogx.Err(err))
	if clearErr != nil {
		s.logger.Warn("failed to clear token store", slogx.Err(clearErr))
	}
	if s.onEnded != nil {
		s.onEnded(call.err)
	}
	close(call.done)
}

func (s *Session) refresh(ctx context.Context) (*AuthResponse, error) {
	refreshToken, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	return s.refresher.Refresh(ctx, refreshToken)
}

// Me returns the signed-in user's profile.
func (s *Session) Me(ctx context.Context) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.client.url("/api/auth/me"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var out MeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout revokes the stored refresh token and clears local state. Local
// state is cleared even if the server cannot be reached.
func (s *Session) Logout(ctx context.Context) error {
	s.waitIdle()

	refreshToken, loadErr := s.store.Load()

	var revokeErr error
	if refreshToken != "" {
		revokeErr = s.client.Logout(ctx, refreshToken)
	}

	s.mu.Lock()
	s.accessToken = ""
	s.user = nil
	s.ended = true
	clearErr := s.store.Clear()
	s.mu.Unlock()

	if s.onEnded != nil {
		s.onEnded(nil)
	}
	return errors.Join(loadErr, revokeErr, clearErr)
}

// Close waits for an in-flight refresh and drops the in-memory access token.
// The stored refresh token is kept so a later Resume can pick it up.
func (s *Session) Close() error {
	s.waitIdle()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.user = nil
	s.ended = true
	return nil
}

func (s *Session) waitIdle() {
	s.mu.Lock()
	call := s.inflight
	s.mu.Unlock()
	if call != nil {
		<-call.done
	}
}

// makeReplayable buffers req.Body when it cannot be recreated.
func makeReplayable(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to buffer request body: %w", err)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	req.Body, _ = req.GetBody()
	return nil
}

func replay(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to replay request body: %w", err)
		}
		retry.Body = body
	}
	return retry, nil
}
