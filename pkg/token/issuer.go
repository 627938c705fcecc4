// Package token issues the short-lived signed credentials the marketplace
// API requires on every outbound call.
//
// A credential is a compact HS256 token of three dot-separated base64url
// segments (header, payload, signature). The upstream verifier accepts it
// for five seconds from issuance and rejects replayed nonces, so a fresh
// credential is generated per request and never reused.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storebridge/market-gateway/pkg/logging"
)

// Lifetime is how long the upstream verifier accepts a credential after
// its issued-at timestamp.
const Lifetime = 5 * time.Second

// ErrSigningUnavailable indicates the credential could not be signed.
// It is distinct from upstream failures: the request never left the process.
var ErrSigningUnavailable = errors.New("credential signing unavailable")

// Config holds the credential material for an Issuer.
type Config struct {
	// AccessKey identifies the API account to the marketplace.
	AccessKey string

	// Secret is the base64-encoded HMAC signing secret.
	Secret string
}

// Claims is the payload signed into every credential.
type Claims struct {
	AccessKey string `json:"accessKey"`
	Nonce     string `json:"nonce"`
	IssuedAt  int64  `json:"iat"`
}

// Valid implements jwt.Claims. Expiry is enforced by the upstream verifier,
// not locally, so there is nothing to validate on the issuing side.
func (c Claims) Valid() error { return nil }

// Issuer produces signed marketplace credentials.
type Issuer struct {
	accessKey string
	secret    []byte
	logger    zerolog.Logger

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// New creates an Issuer from the given credential material.
// The secret is base64-decoded once here; a missing or undecodable secret
// is a configuration error and fails construction.
func New(cfg Config) (*Issuer, error) {
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("access key is required")
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}

	secret, err := base64.StdEncoding.DecodeString(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	return &Issuer{
		accessKey: cfg.AccessKey,
		secret:    secret,
		logger:    logging.NewLogger("token"),
		now:       time.Now,
	}, nil
}

// Issue returns a fresh signed credential for a single upstream call.
// Every call produces a new nonce and a new signature, even for identical
// methods within the same second. The nonce is always included regardless
// of method: the verifier treats replayed nonces as invalid, and omitting
// it for reads has no observable benefit.
func (i *Issuer) Issue(method string) (string, error) {
	claims := Claims{
		AccessKey: i.accessKey,
		Nonce:     uuid.NewString(),
		IssuedAt:  i.now().Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		i.logger.Error().Err(err).Str("method", method).Msg("Credential signing failed")
		return "", fmt.Errorf("%w: %v", ErrSigningUnavailable, err)
	}

	i.logger.Debug().Str("method", method).Msg("Issued credential")
	return signed, nil
}

// SetClock replaces the issuer's clock source (for testing).
func (i *Issuer) SetClock(now func() time.Time) {
	i.now = now
}
