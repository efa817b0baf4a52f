package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/taskflow/pkg/cryptox"
	"github.com/aussiebroadwan/taskflow/pkg/jwtx"
)

// InitAuthKeys creates the KeyManager for the configured algorithm.
//
// Algorithms:
//   - "HS256": tokens are signed with ACCESS_TOKEN_SECRET. No keys are
//     published; only this service can verify them.
//   - "EdDSA": tokens are signed with an Ed25519 key. With
//     AUTH_SIGNING_KEY_FILE the key is loaded from (or generated into) that
//     file and survives restarts; without it the key is ephemeral and all
//     tokens die with the process. Public keys are served as JWKS.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
	}

	switch cfg.Algorithm {
	case jwtx.AlgorithmHS256:
		opts.Secret = []byte(cfg.Secret)

	case jwtx.AlgorithmEdDSA:
		if cfg.SigningKeyFile != "" {
			pemKey, err := cryptox.LoadOrCreateEd25519Key(cfg.SigningKeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load signing key: %w", err)
			}
			opts.PrivateKeyPEM = pemKey
		} else {
			logger.Warn("no AUTH_SIGNING_KEY_FILE set, using an ephemeral signing key")
		}
	}

	km, err := jwtx.NewKeyManager(opts)
	if err != nil {
		return nil, err
	}

	attrs := []any{"algorithm", km.Algorithm(), "issuer", cfg.Issuer}
	if km.PublishesJWKS() {
		if jwks := km.KeySet.PublicJWKS(); len(jwks.Keys) > 0 {
			attrs = append(attrs, "kid", jwks.Keys[0].Kid)
		}
	}
	logger.Info("signing key ready", attrs...)

	return km, nil
}
