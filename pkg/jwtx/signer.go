package jwtx

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	Validate() error
}

// PublicKeySigner is a Signer whose verification key can be published in a
// JWKS. Symmetric signers never implement it.
type PublicKeySigner interface {
	Signer
	PublicJWK() JWK
}

// NewSignerHS256 creates an HS256 signer from a shared secret.
func NewSignerHS256(kid string, secret []byte) (Signer, error) {
	return newHS256Signer(kid, secret)
}

// NewSignerEdDSA creates an EdDSA signer from PEM bytes.
// Ed25519 keys must be in PKCS8 format.
func NewSignerEdDSA(kid string, pemKey []byte) (PublicKeySigner, error) {
	return newEdDSASigner(kid, pemKey)
}
