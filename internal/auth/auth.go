// Package auth verifies tokens issued by the hosted identity provider and
// carries the current user on the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// User is the signed-in identity.
type User struct {
	ID    string
	Email string
}

// Claims are the token claims the service reads.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with the provider's shared secret.
type Verifier struct {
	secret   []byte
	audience string
	leeway   time.Duration
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithAudience requires the aud claim to contain audience.
func WithAudience(audience string) VerifierOption {
	return func(v *Verifier) { v.audience = audience }
}

// WithLeeway tolerates clock skew on exp and nbf.
func WithLeeway(d time.Duration) VerifierOption {
	return func(v *Verifier) { v.leeway = d }
}

func NewVerifier(secret string, opts ...VerifierOption) *Verifier {
	v := &Verifier{secret: []byte(secret)}
	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Enabled reports whether a secret is configured. Without one every token
// is rejected and all requests are anonymous.
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Verify parses token and returns its user.
func (v *Verifier) Verify(token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	if !v.Enabled() {
		return nil, ErrInvalidToken
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, parserOpts...)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &User{ID: claims.Subject, Email: claims.Email}, nil
}

// Sign issues a token for user. Used by tests and local tooling.
func (v *Verifier) Sign(user User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

type userKey struct{}

// ContextWithUser stores user on ctx.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the signed-in user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userKey{}).(*User)
	return user, ok && user != nil
}

// UserID returns the signed-in user's id or "".
func UserID(ctx context.Context) string {
	if user, ok := UserFromContext(ctx); ok {
		return user.ID
	}

	return ""
}
