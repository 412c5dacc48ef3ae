// Package auth implements the admin login flow: password verification
// against a bcrypt hash and stateless HS256 session tokens.
//
// There is exactly one admin account, configured by environment. Tokens
// are self-contained JWTs so the server keeps no session state.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenTTL is how long an admin session token stays valid.
	TokenTTL = time.Hour

	// clockLeeway tolerates small clock drift between issuer and verifier.
	clockLeeway = 5 * time.Minute

	issuer   = "ciril"
	audience = "ciril-admin"
)

var (
	// ErrInvalidCredentials indicates a wrong email or password.
	// Deliberately indistinguishable between the two.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken indicates a missing, malformed, expired, or
	// otherwise unverifiable session token.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the validated contents of an admin session token.
type Claims struct {
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// sessionClaims is the internal claims type used for JWT parsing.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Authenticator verifies admin credentials and issues session tokens.
//
// Authenticator is safe for concurrent use by multiple goroutines.
type Authenticator struct {
	adminEmail   string
	passwordHash []byte
	secret       []byte
	now          func() time.Time
}

// New creates an Authenticator. passwordHash must be a bcrypt hash and
// secret the HS256 signing key.
func New(adminEmail, passwordHash, secret string) (*Authenticator, error) {
	if strings.TrimSpace(adminEmail) == "" {
		return nil, fmt.Errorf("admin email is required")
	}
	if !strings.HasPrefix(passwordHash, "$2") {
		return nil, fmt.Errorf("admin password hash is not a bcrypt hash")
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("signing secret is required")
	}
	return &Authenticator{
		adminEmail:   adminEmail,
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		now:          time.Now,
	}, nil
}

// Login verifies the email and password and returns a signed session
// token. The email comparison is constant-time and a wrong email still
// costs a bcrypt comparison, so timing does not reveal which field was
// wrong.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	emailOK := constantTimeEqual(email, a.adminEmail)
	passwordErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !emailOK || passwordErr != nil {
		return "", ErrInvalidCredentials
	}

	now := a.now().UTC()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			Subject:   a.adminEmail,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			ID:        uuid.NewString(),
		},
		Email: a.adminEmail,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// Verify parses and validates a session token, returning its claims.
func (a *Authenticator) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(token, &parsed,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockLeeway),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !constantTimeEqual(parsed.Email, a.adminEmail) {
		return nil, ErrInvalidToken
	}

	claims := &Claims{Email: parsed.Email}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time.UTC()
	}
	return claims, nil
}

// constantTimeEqual compares two strings without leaking length or
// content through timing. Inputs are hashed first so unequal lengths
// still take constant time.
func constantTimeEqual(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
