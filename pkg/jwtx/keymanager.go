package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/taskflow/pkg/cryptox"
)

// Supported JWT signing algorithms
const (
	AlgorithmHS256 = "HS256"
	AlgorithmEdDSA = "EdDSA"
)

// KeyManager owns the signing key for an instance and the matching verifier.
// Handlers and services only ever talk to the KeyManager, so switching the
// algorithm is a configuration change.
type KeyManager struct {
	signer    Signer
	Verifier  Verifier
	KeySet    *KeySet
	algorithm string
}

// KeyManagerOptions configures the KeyManager.
type KeyManagerOptions struct {
	// Algorithm is either "HS256" (default) or "EdDSA".
	Algorithm string

	// Issuer is written to and required from the iss claim.
	Issuer string

	// Secret is the HS256 shared secret.
	Secret []byte

	// PrivateKeyPEM is the PKCS8 Ed25519 key for EdDSA. When empty an
	// ephemeral key is generated, so tokens die with the process.
	PrivateKeyPEM []byte

	// Leeway tolerated on exp/nbf for clock skew.
	Leeway time.Duration
}

// NewKeyManager builds the signer and verifier for opts.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}
	if opts.Algorithm == "" {
		opts.Algorithm = AlgorithmHS256
	}

	verify := VerifyOptions{Issuer: opts.Issuer, Leeway: opts.Leeway}
	keyset := NewKeySet()

	switch opts.Algorithm {
	case AlgorithmHS256:
		signer, err := NewSignerHS256("", opts.Secret)
		if err != nil {
			return nil, err
		}
		return &KeyManager{
			signer:    signer,
			Verifier:  NewVerifierHS256(opts.Secret, verify),
			KeySet:    keyset,
			algorithm: AlgorithmHS256,
		}, nil

	case AlgorithmEdDSA:
		pemKey := opts.PrivateKeyPEM
		if len(pemKey) == 0 {
			var err error
			if pemKey, err = cryptox.GenerateEd25519Key(); err != nil {
				return nil, err
			}
		}

		signer, err := NewSignerEdDSA("", pemKey)
		if err != nil {
			return nil, err
		}
		if err := signer.Validate(); err != nil {
			return nil, err
		}
		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: failed to add signer to keyset: %w", err)
		}
		return &KeyManager{
			signer:    signer,
			Verifier:  NewVerifierEdDSA(keyset, verify),
			KeySet:    keyset,
			algorithm: AlgorithmEdDSA,
		}, nil

	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: HS256, EdDSA)", opts.Algorithm)
	}
}

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string { return km.algorithm }

// Sign signs claims with the active key.
func (km *KeyManager) Sign(claims Claims) (string, error) {
	return km.signer.Sign(claims)
}

// Verify checks a token with the active key. See Verifier for the error
// contract.
func (km *KeyManager) Verify(token string) (Claims, error) {
	return km.Verifier.Verify(token)
}

// IsReady reports whether the manager can sign.
func (km *KeyManager) IsReady() bool {
	return km.signer != nil && km.signer.Validate() == nil
}

// PublishesJWKS reports whether there is a public key set worth serving.
func (km *KeyManager) PublishesJWKS() bool {
	return km.KeySet.IsReady()
}
