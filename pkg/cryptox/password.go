package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported password hashing algorithms.
const (
	PasswordArgon2id = "argon2id"
	PasswordBcrypt   = "bcrypt"
)

// Argon2id parameters. Iterations is the default work factor and can be
// raised through PasswordHasher.Cost.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("cryptox: password does not match")

// PasswordHasher hashes and verifies passwords. Hashes are self describing so
// Verify accepts both argon2id (PHC) and bcrypt encodings regardless of the
// algorithm new hashes are produced with, which lets operators switch
// algorithms without invalidating existing accounts.
type PasswordHasher struct {
	algorithm string
	cost      int
	pepper    string

	dummyOnce sync.Once
	dummy     string
}

// NewPasswordHasher builds a hasher. A cost of zero selects the algorithm
// default (argon2id: 2 iterations, bcrypt: 12).
func NewPasswordHasher(algorithm string, cost int, pepper string) (*PasswordHasher, error) {
	switch algorithm {
	case "", PasswordArgon2id:
		algorithm = PasswordArgon2id
		if cost <= 0 {
			cost = iterations
		}
	case PasswordBcrypt:
		if cost <= 0 {
			cost = 12
		}
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("cryptox: bcrypt cost %d out of range", cost)
		}
	default:
		return nil, fmt.Errorf("cryptox: unsupported password algorithm %q", algorithm)
	}
	return &PasswordHasher{algorithm: algorithm, cost: cost, pepper: pepper}, nil
}

// Algorithm returns the algorithm used for new hashes.
func (h *PasswordHasher) Algorithm() string { return h.algorithm }

// Hash returns an encoded hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.algorithm == PasswordBcrypt {
		out, err := bcrypt.GenerateFromPassword(h.bcryptInput(password), h.cost)
		if err != nil {
			return "", fmt.Errorf("cryptox: bcrypt: %w", err)
		}
		return string(out), nil
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	// #nosec G115 - cost is validated positive and small
	t := uint32(h.cost)
	hash := argon2.IDKey([]byte(password+h.pepper), salt, t, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		t,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify compares a plaintext password against an encoded hash. It returns
// ErrPasswordMismatch when the password is wrong and a descriptive error
// when the hash itself cannot be parsed.
func (h *PasswordHasher) Verify(password, encodedHash string) error {
	switch {
	case strings.HasPrefix(encodedHash, "$argon2id$"):
		return h.verifyArgon2id(password, encodedHash)
	case strings.HasPrefix(encodedHash, "$2a$"),
		strings.HasPrefix(encodedHash, "$2b$"),
		strings.HasPrefix(encodedHash, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), h.bcryptInput(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return err
	default:
		return errors.New("cryptox: unrecognised password hash format")
	}
}

// VerifyDummy burns roughly the same time as a real Verify. Call it when the
// account does not exist so login latency doesn't reveal which emails are
// registered.
func (h *PasswordHasher) VerifyDummy(password string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = h.Hash("dummy-password-for-timing")
	})
	if h.dummy != "" {
		_ = h.Verify(password, h.dummy)
	}
}

// bcryptInput pre-hashes the peppered password. bcrypt only looks at the
// first 72 bytes and x/crypto refuses longer input outright, while accepted
// passwords may be up to 128 characters.
func (h *PasswordHasher) bcryptInput(password string) []byte {
	sum := sha256.Sum256([]byte(password + h.pepper))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func (h *PasswordHasher) verifyArgon2id(password, encodedHash string) error {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return errors.New("invalid hash format: expected 6 parts")
	}
	if parts[2] != "v=19" {
		return errors.New("invalid hash format: wrong version")
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("invalid hash format: failed to parse parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("invalid hash format: failed to decode salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("invalid hash format: failed to decode hash: %w", err)
	}

	computed := argon2.IDKey(
		[]byte(password+h.pepper),
		salt,
		iters,
		mem,
		par,
		uint32(len(expected)), // #nosec G115 - If this overflows we have bigger problems
	)

	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}
