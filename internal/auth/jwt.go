package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// TokenService issues and validates the JWT session tokens.
//
// Sessions here are stateless: the server keeps no session table. A token
// carries the username in its Subject claim, signed with an HMAC secret.
// Logout is therefore purely client-side (the cookie is cleared) — a token
// that was issued stays verifiable until it expires, which is the documented
// session model of this application.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// issuer distinguishes our tokens from any other app sharing the secret by
// accident. Validation rejects tokens with a different issuer.
const issuer = "tunebox"

// defaultTTL is the session lifetime. There is no refresh flow; after expiry
// the user logs in again.
const defaultTTL = 24 * time.Hour

// NewTokenService creates a TokenService with the given HMAC secret.
// The secret should be at least 32 bytes of randomness in production
// (e.g. JWT_SECRET=$(openssl rand -hex 32)).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: defaultTTL}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given username.
// The ID claim (jti) gets a fresh xid so individual sessions are
// distinguishable in logs even for the same user.
func (s *TokenService) Generate(username string) (string, error) {
	return s.generate(username, s.ttl)
}

// GenerateWithDuration creates a token with a custom lifetime. Used in tests.
func (s *TokenService) GenerateWithDuration(username string, d time.Duration) (string, error) {
	return s.generate(username, d)
}

func (s *TokenService) generate(username string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        xid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string, returning the username it was
// issued for. Signature, expiry, issuer, and algorithm are all checked —
// restricting the algorithm to HS256 blocks algorithm-confusion tokens.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
