package jwtx

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// EdDSAVerifier checks Ed25519 signed tokens against a KeySet, picking the
// key by the kid header.
type EdDSAVerifier struct {
	keys *KeySet
	opts VerifyOptions
}

func NewVerifierEdDSA(keys *KeySet, opts VerifyOptions) *EdDSAVerifier {
	return &EdDSAVerifier{keys: keys, opts: opts}
}

func (v *EdDSAVerifier) Verify(tokenStr string) (Claims, error) {
	return parseWith(tokenStr, jwt.SigningMethodEdDSA, v.opts, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: missing kid", ErrUnknownKID)
		}
		return v.keys.Get(kid)
	})
}
