package jwtx

import (
	"bytes"
	"crypto/ed25519"
	"errors"

	"github.com/aussiebroadwan/taskflow/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// EdDSASigner signs access tokens with an Ed25519 key. Its public half is
// served from the JWKS endpoint.
type EdDSASigner struct {
	kid string
	key ed25519.PrivateKey
	pub ed25519.PublicKey
}

// newEdDSASigner parses pemKey. An empty kid is derived from the public
// key, so a key persisted on disk keeps its kid across restarts.
func newEdDSASigner(kid string, pemKey []byte) (*EdDSASigner, error) {
	key, err := cryptox.ParseEd25519PrivateKey(pemKey)
	if err != nil {
		return nil, err
	}
	pub := key.Public().(ed25519.PublicKey)
	if kid == "" {
		kid = deriveKeyID(pub)
	}
	return &EdDSASigner{kid: kid, key: key, pub: pub}, nil
}

func deriveKeyID(pub ed25519.PublicKey) string {
	return "taskflow-" + cryptox.FingerprintToken(string(pub))[:16]
}

func (s *EdDSASigner) Alg() string { return jwt.SigningMethodEdDSA.Alg() }
func (s *EdDSASigner) KID() string { return s.kid }

func (s *EdDSASigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func (s *EdDSASigner) PublicJWK() JWK {
	return NewEd25519JWK(s.kid, "sig", s.Alg(), s.pub)
}

// Validate checks the key pair is intact by signing and verifying a probe.
func (s *EdDSASigner) Validate() error {
	if len(s.key) != ed25519.PrivateKeySize || len(s.pub) != ed25519.PublicKeySize {
		return errors.New("jwtx: malformed Ed25519 key pair")
	}
	if !bytes.Equal(s.key.Public().(ed25519.PublicKey), s.pub) {
		return errors.New("jwtx: Ed25519 public key does not match private key")
	}
	probe := []byte(s.kid)
	if !ed25519.Verify(s.pub, probe, ed25519.Sign(s.key, probe)) {
		return errors.New("jwtx: Ed25519 self-check failed")
	}
	return nil
}
