package jwtx

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"
	"sync"
)

type keyEntry struct {
	jwk JWK
	pub ed25519.PublicKey
}

// KeySet holds the Ed25519 verification keys, indexed by kid. The JWKS
// handler reads it while the verifier looks keys up, so it is guarded.
type KeySet struct {
	mu   sync.RWMutex
	keys map[string]keyEntry
}

func NewKeySet() *KeySet {
	return &KeySet{keys: make(map[string]keyEntry)}
}

// AddSigner publishes the signer's public key. Re-adding the same key is a
// no-op; a different key under an existing kid is an error.
func (k *KeySet) AddSigner(s PublicKeySigner) error {
	j := s.PublicJWK()
	pub, err := decodeEd25519JWK(j)
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if existing, ok := k.keys[j.Kid]; ok {
		if bytes.Equal(existing.pub, pub) {
			return nil
		}
		return fmt.Errorf("jwtx: kid %q already holds a different key", j.Kid)
	}
	k.keys[j.Kid] = keyEntry{jwk: j, pub: pub}
	return nil
}

// Get returns the key for kid, or an error wrapping ErrUnknownKID.
func (k *KeySet) Get(kid string) (ed25519.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	e, ok := k.keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
	}
	return e.pub, nil
}

// PublicJWKS is a snapshot for serving, ordered by kid.
func (k *KeySet) PublicJWKS() JWKS {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := JWKS{Keys: make([]JWK, 0, len(k.keys))}
	for _, e := range k.keys {
		out.Keys = append(out.Keys, e.jwk)
	}
	slices.SortFunc(out.Keys, func(a, b JWK) int { return strings.Compare(a.Kid, b.Kid) })
	return out
}

// IsReady reports whether at least one key is loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys) > 0
}

func decodeEd25519JWK(j JWK) (ed25519.PublicKey, error) {
	if j.Kty != "OKP" || j.Crv != "Ed25519" {
		return nil, fmt.Errorf("jwtx: unsupported key %s/%s", j.Kty, j.Crv)
	}
	raw, err := base64.RawURLEncoding.DecodeString(j.X)
	if err != nil {
		return nil, fmt.Errorf("jwtx: decode x: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("jwtx: Ed25519 key is %d bytes", len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
