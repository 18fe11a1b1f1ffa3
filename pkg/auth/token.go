package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenValidity is how long an issued bearer token stays valid
const DefaultTokenValidity = 7 * 24 * time.Hour

// Claims is the JWT claim set: sub and exp only
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 bearer tokens. Tokens are never
// stored server-side; they stop working only when they expire.
type TokenService struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// TokenOption configures a TokenService
type TokenOption func(*TokenService)

// WithValidity overrides DefaultTokenValidity
func WithValidity(d time.Duration) TokenOption {
	return func(s *TokenService) {
		if d > 0 {
			s.validity = d
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a token service signing with secret.
func NewTokenService(secret []byte, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	s := &TokenService{
		secret:   append([]byte(nil), secret...),
		validity: DefaultTokenValidity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for username, expiring after the configured validity
func (s *TokenService) Issue(username string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(s.now().Add(s.validity)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", Unexpected("sign token", err)
	}
	return signed, nil
}

// Validate checks the signature and expiry of token. Every failure is
// reported as ErrInvalidToken.
func (s *TokenService) Validate(token string) (*Permissions, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Permissions{Username: claims.Subject, Mode: ModeUser}, nil
}

// ValidateForUser validates token and additionally requires it to belong to
// username. A valid token for someone else yields ErrAuthorizationDenied.
func (s *TokenService) ValidateForUser(token, username string) (*Permissions, error) {
	perms, err := s.Validate(token)
	if err != nil {
		return nil, err
	}
	if !perms.CanActAs(username) {
		return nil, ErrAuthorizationDenied
	}
	return perms, nil
}
