package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Byte lengths before encoding.
const (
	TokenSize128 = 16
	TokenSize256 = 32 // refresh and password reset tokens
)

// GenerateToken returns size random bytes, base64url encoded without
// padding so the token can sit in a URL path segment.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken is the SHA-256 of token, base64url encoded (43 chars).
// Only fingerprints reach the database.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// OpaqueToken is a freshly minted bearer secret and its stored fingerprint.
type OpaqueToken struct {
	Value       string
	Fingerprint string
}

// NewOpaqueToken mints a 256-bit token ready to hand to the client and
// persist by fingerprint.
func NewOpaqueToken() (OpaqueToken, error) {
	v, err := GenerateToken(TokenSize256)
	if err != nil {
		return OpaqueToken{}, err
	}
	return OpaqueToken{Value: v, Fingerprint: FingerprintToken(v)}, nil
}
