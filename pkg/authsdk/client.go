package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the TaskFlow authentication API.
// It provides the unauthenticated operations and is the default Refresher
// for a Session.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth API client. baseURL is the server root,
// e.g. "http://localhost:3001".
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Signup creates an account and returns its first token pair.
func (c *SDKClient) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.postJSON(ctx, "/api/auth/signup", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token pair.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.postJSON(ctx, "/api/auth/login", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh rotates refreshToken. The presented token is consumed whether or
// not the caller receives the response.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	var out AuthResponse
	req := RefreshRequest{RefreshToken: refreshToken}
	if err := c.postJSON(ctx, "/api/auth/refresh", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes refreshToken. The server answers 200 for unknown tokens too.
func (c *SDKClient) Logout(ctx context.Context, refreshToken string) error {
	var out MessageResponse
	req := RefreshRequest{RefreshToken: refreshToken}
	return c.postJSON(ctx, "/api/auth/logout", req, &out, http.StatusOK)
}

// ForgotPassword asks for a reset link to be sent to email. The response is
// the same whether or not the account exists.
func (c *SDKClient) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	req := ForgotPasswordRequest{Email: email}
	if err := c.postJSON(ctx, "/api/auth/forgot-password", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword sets a new password using the token from a reset link. Every
// session of the account is revoked.
func (c *SDKClient) ResetPassword(ctx context.Context, token, password string) (*MessageResponse, error) {
	var out MessageResponse
	req := ResetPasswordRequest{Token: token, Password: password}
	if err := c.postJSON(ctx, "/api/auth/reset-password", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the profile for accessToken. An expired token yields an error
// for which IsTokenExpired is true. Prefer Session.Me, which refreshes.
func (c *SDKClient) Me(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", nil, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
	if err != nil {
		return nil, err
	}

	var out MeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}
