package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskflow/internal/auth/domain"
	"github.com/aussiebroadwan/taskflow/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/taskflow/pkg/cryptox"
	"github.com/aussiebroadwan/taskflow/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://auth.taskflow.test"

type testEnv struct {
	store  *sqlite.Store
	keys   *jwtx.KeyManager
	hasher *cryptox.PasswordHasher
	tokens *TokenService
	users  *UserService
	resets *PasswordResetService
	mailer *recordingMailer
}

type sentReset struct {
	To, Name, Link string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentReset
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, name, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentReset{To: to, Name: name, Link: link})
	return nil
}

func (m *recordingMailer) last(t *testing.T) sentReset {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "expected a reset mail")
	return m.sent[len(m.sent)-1]
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations(context.Background()))

	keys, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Issuer: testIssuer,
		Secret: []byte(strings.Repeat("k", jwtx.MinHS256SecretLength)),
	})
	require.NoError(t, err)

	hasher, err := cryptox.NewPasswordHasher(cryptox.PasswordBcrypt, 4, "")
	require.NoError(t, err)

	tokens := &TokenService{
		Keys:       keys,
		Store:      s,
		Issuer:     testIssuer,
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
	}
	mailer := &recordingMailer{}

	return &testEnv{
		store:  s,
		keys:   keys,
		hasher: hasher,
		tokens: tokens,
		users:  &UserService{Store: s, Hasher: hasher, Tokens: tokens},
		resets: &PasswordResetService{
			Store:        s,
			Hasher:       hasher,
			Mailer:       mailer,
			ResetURLBase: "http://localhost:5173",
		},
		mailer: mailer,
	}
}

func (e *testEnv) signup(t *testing.T, email string) (domain.User, *domain.TokenPair) {
	t.Helper()
	u, pair, err := e.users.Signup(context.Background(), "Test User", email, "password123")
	require.NoError(t, err)
	return u, pair
}

func (e *testEnv) refreshCount(t *testing.T, userID string) int64 {
	t.Helper()
	n, err := e.store.RefreshTokens().CountUserRefreshTokens(context.Background(), userID)
	require.NoError(t, err)
	return n
}

// shiftedClock returns a clock running offset away from the wall clock.
func shiftedClock(offset time.Duration) func() time.Time {
	return func() time.Time { return time.Now().Add(offset) }
}
