package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/auth-gateway/internal/config"
)

// TokenCodec issues and verifies HS256 signed tokens. It is the only holder
// of the signing key and carries no other state, so it is safe for
// concurrent use.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// Claims describes the token payload.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// CodecOption customizes a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTokenCodec builds a codec. A missing or short secret is a startup
// failure wrapped in config.ErrConfigInvalid.
func NewTokenCodec(secret string, opts ...CodecOption) (*TokenCodec, error) {
	if len(secret) < config.MinSecretLength {
		return nil, fmt.Errorf("%w: signing secret must be at least %d bytes", config.ErrConfigInvalid, config.MinSecretLength)
	}

	c := &TokenCodec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	return c, nil
}

// Issue signs a token for principal valid for ttl. Timestamps carry second
// precision: issuance time is truncated and the expiry is rounded up, so a
// token never lives less than ttl past its issuedAt.
func (c *TokenCodec) Issue(principal Principal, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		return "", time.Time{}, errors.New("token ttl must be positive")
	}

	issuedAt := c.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl).Add(time.Second - 1).Truncate(time.Second)
	claims := &Claims{
		Roles: principal.Roles(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.Subject(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if claims.Roles == nil {
		claims.Roles = []string{}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks the signature, then decodes and validates the claims.
// It returns ErrTokenMalformed, ErrTokenSignatureInvalid or ErrTokenExpired.
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	signingString, signature, ok := splitSignature(tokenString)
	if !ok {
		return nil, ErrTokenMalformed
	}
	sig, err := c.parser.DecodeSegment(signature)
	if err != nil {
		return nil, ErrTokenMalformed
	}
	// HMAC comparison in the jwt library is constant time.
	if err := jwt.SigningMethodHS256.Verify(signingString, sig, c.secret); err != nil {
		return nil, ErrTokenSignatureInvalid
	}

	claims := &Claims{}
	parsed, err := c.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrTokenSignatureInvalid
	default:
		return nil, ErrTokenMalformed
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// splitSignature separates "header.payload" from the signature segment.
// Tokens must have exactly three segments and a non-empty header.
func splitSignature(token string) (string, string, bool) {
	if strings.Count(token, ".") != 2 {
		return "", "", false
	}
	last := strings.LastIndexByte(token, '.')
	if strings.IndexByte(token, '.') == 0 {
		return "", "", false
	}
	return token[:last], token[last+1:], true
}
