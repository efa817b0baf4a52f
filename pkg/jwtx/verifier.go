package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
//
// Every error returned by a Verifier satisfies errors.Is against exactly one
// of ErrExpired or ErrInvalid, so callers can tell a token that needs a
// refresh apart from one that will never work.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	// ErrInvalid is the umbrella for every non-expiry failure.
	ErrInvalid = errors.New("jwtx: invalid token")

	// ErrExpired means the token was well formed and correctly signed but
	// its exp claim is in the past.
	ErrExpired = errors.New("jwtx: token expired")

	ErrMalformed    = fmt.Errorf("%w: malformed", ErrInvalid)
	ErrAlgMismatch  = fmt.Errorf("%w: algorithm mismatch", ErrInvalid)
	ErrUnknownKID   = fmt.Errorf("%w: unknown kid", ErrInvalid)
	ErrInvalidSig   = fmt.Errorf("%w: bad signature", ErrInvalid)
	ErrIssuer       = fmt.Errorf("%w: issuer mismatch", ErrInvalid)
	ErrNotYetValid  = fmt.Errorf("%w: not yet valid", ErrInvalid)
	ErrInvalidClaim = fmt.Errorf("%w: invalid claims", ErrInvalid)
)

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now overrides the clock, tests only.
	Now func() time.Time
}

func (o VerifyOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// parseWith runs the jwt parser with the method restriction and key lookup
// and then applies our own claim checks. Expiry is checked by us rather than
// the library so the leeway and clock are honoured consistently.
func parseWith(tokenStr string, method jwt.SigningMethod, opts VerifyOptions, keyFunc jwt.Keyfunc) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	token, err := parser.ParseWithClaims(tokenStr, &claims, keyFunc)
	if err != nil {
		return Claims{}, classify(err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalid
	}

	if err := claims.ValidateIssuer(opts.Issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(opts.now(), opts.Leeway); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// classify maps golang-jwt parse errors onto our two-way split.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnknownKID):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrAlgMismatch, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
}
