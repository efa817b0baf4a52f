package authsdk

import (
	"context"
	"net/http"
)

// getJSON fetches path and decodes a 200 response into T.
func getJSON[T any](ctx context.Context, c *SDKClient, path string) (*T, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	var out T
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health calls GET /api/health.
func (c *SDKClient) Health(ctx context.Context) (*APIHealthResponse, error) {
	return getJSON[APIHealthResponse](ctx, c, "/api/health")
}

// GetLiveness calls the /livez probe.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return getJSON[HealthResponse](ctx, c, "/livez")
}

// GetReadiness calls the /readyz probe. A degraded server answers 503,
// which surfaces as an *APIError.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return getJSON[HealthResponse](ctx, c, "/readyz")
}

// GetJWKS fetches the public keys for verifying access tokens locally.
// Servers signing with HS256 publish nothing and answer 404.
func (c *SDKClient) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	return getJSON[JWKSResponse](ctx, c, "/.well-known/jwks.json")
}
