package identity

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/goliatone/go-ownership/core"
)

const (
	EnvTokenIssuer    = "OWNERSHIP_TOKEN_ISSUER"
	EnvTokenAudience  = "OWNERSHIP_TOKEN_AUDIENCE"
	EnvTokenPublicKey = "OWNERSHIP_TOKEN_PUBLIC_KEY"
)

var (
	ErrPrincipalMissing  = errors.New("identity: no principal on context")
	ErrTokenMissing      = errors.New("identity: no bearer token on context")
	ErrTokenInvalid      = errors.New("identity: bearer token is invalid")
	ErrPrincipalMismatch = errors.New("identity: claimed principal does not match caller")
	ErrNotConfigured     = errors.New("identity: token verifier is not configured")
)

// VerificationError reports why a claimed principal could not be confirmed.
type VerificationError struct {
	Claimed core.Principal
	Reason  error
	Cause   error
}

func (e *VerificationError) Error() string {
	if e == nil || e.Reason == nil {
		return core.ErrUnauthenticated.Error()
	}
	if e.Cause == nil {
		return e.Reason.Error()
	}
	return e.Reason.Error() + ": " + e.Cause.Error()
}

func (e *VerificationError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Cause == nil {
		return e.Reason
	}
	return errors.Join(e.Reason, e.Cause)
}

func (e *VerificationError) ToServiceError() *goerrors.Error {
	return goerrors.New(e.Error(), goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(core.ErrorUnauthenticated)
}

func verificationFailed(claimed core.Principal, reason error, cause error) error {
	return &VerificationError{Claimed: claimed, Reason: reason, Cause: cause}
}

// ContextVerifier confirms the claimed principal against the one a transport
// placed on ctx with WithPrincipal.
type ContextVerifier struct{}

func (ContextVerifier) Verify(ctx context.Context, claimed core.Principal) error {
	caller, ok := PrincipalFromContext(ctx)
	if !ok {
		return verificationFailed(claimed, ErrPrincipalMissing, nil)
	}
	if caller != claimed {
		return verificationFailed(claimed, ErrPrincipalMismatch, nil)
	}
	return nil
}

type tokenEnv struct {
	Issuer    string `env:"OWNERSHIP_TOKEN_ISSUER"`
	Audience  string `env:"OWNERSHIP_TOKEN_AUDIENCE"`
	PublicKey string `env:"OWNERSHIP_TOKEN_PUBLIC_KEY"`
}

// TokenConfig defines how caller tokens are verified.
type TokenConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

func (c TokenConfig) Validate() error {
	if strings.TrimSpace(c.Issuer) == "" || strings.TrimSpace(c.Audience) == "" {
		return ErrNotConfigured
	}
	if len(c.Key) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: public key must be %d bytes", ErrNotConfigured, ed25519.PublicKeySize)
	}
	return nil
}

// LoadTokenConfigFromEnv reads token verification settings from the
// OWNERSHIP_TOKEN_* variables. The public key is base64, padded or raw.
func LoadTokenConfigFromEnv(now func() time.Time) (TokenConfig, error) {
	var raw tokenEnv
	if err := env.Parse(&raw); err != nil {
		return TokenConfig{}, fmt.Errorf("parse token env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return TokenConfig{}, fmt.Errorf("%s is required", EnvTokenIssuer)
	}
	if audience == "" {
		return TokenConfig{}, fmt.Errorf("%s is required", EnvTokenAudience)
	}
	if publicKey == "" {
		return TokenConfig{}, fmt.Errorf("%s is required", EnvTokenPublicKey)
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return TokenConfig{}, fmt.Errorf("decode token public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return TokenConfig{}, fmt.Errorf("token public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return TokenConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// TokenVerifier checks an EdDSA-signed JWT carried on ctx. The token must
// come from the configured issuer, name the configured audience, be
// unexpired, and carry the claimed principal as its subject.
type TokenVerifier struct {
	cfg TokenConfig
}

func NewTokenVerifier(cfg TokenConfig) (*TokenVerifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenVerifier{cfg: cfg}, nil
}

func (v *TokenVerifier) Verify(ctx context.Context, claimed core.Principal) error {
	if v == nil {
		return verificationFailed(claimed, ErrNotConfigured, nil)
	}
	token, ok := BearerTokenFromContext(ctx)
	if !ok {
		return verificationFailed(claimed, ErrTokenMissing, nil)
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.cfg.Now),
	)
	if err != nil {
		return verificationFailed(claimed, ErrTokenInvalid, err)
	}
	if strings.TrimSpace(claims.Subject) == "" || core.Principal(claims.Subject) != claimed {
		return verificationFailed(claimed, ErrPrincipalMismatch, nil)
	}
	return nil
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
