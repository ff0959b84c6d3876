// Package auth issues and checks the session tokens that carry a signed-in
// principal, and holds the password and GitHub sign-in helpers.
//
// FLOW:
//  1. The user signs in with email/password or GitHub.
//  2. The server issues a JWT whose subject is the principal (account) id.
//  3. The token travels back in the "token" HttpOnly cookie, or in an
//     Authorization: Bearer header for the CLI and other API clients.
//  4. Middleware validates it and puts the Claims in the request context.
//
// JWT STRUCTURE:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Payload: {"sub":"<principal id>","email":"...","name":"...","iss":"vocapp","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/vocapp/internal/apperror"
)

const issuer = "vocapp"

// Claims identifies the principal a token was issued to.
type Claims struct {
	UserID string
	Email  string
	Name   string
}

// TokenService creates and validates HS256 tokens with a shared secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService whose tokens live for ttl.
// Example secret: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, apperror.Configuration("jwt_secret", "JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, apperror.Configuration("token_ttl", "token ttl must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// jwtClaims is the token payload: the registered claims plus the principal's
// contact details, so a token alone is enough to build an identity.Principal.
type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Generate signs a token for c that expires after the service ttl.
func (s *TokenService) Generate(c Claims) (string, error) {
	return s.GenerateWithDuration(c, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. Tests use a
// negative duration to produce expired tokens.
func (s *TokenService) GenerateWithDuration(c Claims, d time.Duration) (string, error) {
	if c.UserID == "" {
		return "", errors.New("auth: token subject must not be empty")
	}
	now := time.Now()

	payload := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
		Email: c.Email,
		Name:  c.Name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token. Every failure is an
// apperror.ErrUnauthenticated.
//
// The jwt library checks the signature, expiry and issuer. WithValidMethods
// pins HS256 so a token claiming "alg":"none" is rejected.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&jwtClaims{},
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
			return nil, apperror.Unauthenticated("session expired, sign in again")
		}
		return nil, apperror.Unauthenticated("invalid session token")
	}

	c, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid || c.Subject == "" {
		return nil, apperror.Unauthenticated("invalid session token")
	}

	return &Claims{UserID: c.Subject, Email: c.Email, Name: c.Name}, nil
}
