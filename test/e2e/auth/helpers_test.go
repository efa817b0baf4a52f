package auth_test

import (
	"context"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"regexp"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskflow/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup and assertions.
 */

const (
	testImageName = "taskflow-auth-test:latest"
	servicePort   = "3001/tcp"

	demoEmail    = "demo@taskflow.ai"
	demoPassword = "password123"
)

// TestMain builds the Docker image once before all tests and removes it
// after they complete.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	_ = exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName).Run()
}

// baseEnv relaxes the rate limits; tests fire many requests from one IP.
func baseEnv() map[string]string {
	return map[string]string{
		"ACCESS_TOKEN_SECRET": "e2e-secret-that-is-at-least-32-bytes-long",
		"AUTH_DATABASE_FILE":  "/data/auth.db",
		"AUTH_PEPPER_FILE":    "/data/pepper",
		"AUTH_SEED_DEMO":      "true",
		"CLIENT_URL":          "http://localhost:5173",
		"ENV":                 "test",
		"LOG_LEVEL":           "info",
		"LOG_FORMAT":          "json",

		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_AUTH_REQUESTS":     "1000",
		"RATELIMIT_AUTH_BURST":        "1000",
	}
}

type authContainer struct {
	testcontainers.Container
	BaseURL string
}

// setupAuthContainer starts the service with baseEnv plus overrides. An
// empty override value removes the variable.
func setupAuthContainer(t *testing.T, overrides map[string]string) *authContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	env := baseEnv()
	maps.Copy(env, overrides)
	maps.DeleteFunc(env, func(_, v string) bool { return v == "" })

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{servicePort},
			Env:          env,
			WaitingFor: wait.ForHTTP("/livez").
				WithPort(servicePort).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := container.MappedPort(ctx, servicePort)
	require.NoError(t, err)

	return &authContainer{
		Container: container,
		BaseURL:   fmt.Sprintf("http://%s:%s", host, mappedPort.Port()),
	}
}

var resetLinkPattern = regexp.MustCompile(`/reset-password/([A-Za-z0-9_-]+)`)

// lastResetToken pulls the most recent reset token out of the container
// logs, where the log mailer writes reset links.
func (c *authContainer) lastResetToken(t *testing.T) string {
	t.Helper()

	var token string
	require.Eventually(t, func() bool {
		logs, err := c.Logs(context.Background())
		if err != nil {
			return false
		}
		defer logs.Close()
		data, err := io.ReadAll(logs)
		if err != nil {
			return false
		}
		matches := resetLinkPattern.FindAllStringSubmatch(string(data), -1)
		if len(matches) == 0 {
			return false
		}
		token = matches[len(matches)-1][1]
		return true
	}, 5*time.Second, 100*time.Millisecond, "reset link should be logged")
	return token
}

// assertAuthResponse verifies a login or refresh response has all fields.
func assertAuthResponse(t *testing.T, resp *authsdk.AuthResponse) {
	t.Helper()
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.AccessToken, "access token should not be empty")
	require.NotEmpty(t, resp.RefreshToken, "refresh token should not be empty")
	require.NotEmpty(t, resp.User.ID, "user id should not be empty")
}

// assertAPIError checks err carries the given status and code.
func assertAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
}
