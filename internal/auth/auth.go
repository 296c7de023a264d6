// Package auth verifies bearer tokens and carries the signed-in user through
// request contexts.
//
// Tokens are HS256 JWTs. The subject claim is the user's uid; name, email
// and picture are optional profile claims.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pkordes/globe-trotter/internal/domain"
)

// Claims is the token payload.
type Claims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates and issues tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier returns a Verifier for the given HMAC secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify parses token and returns the user it identifies.
// Every failure wraps domain.ErrNotAuthenticated.
func (v *Verifier) Verify(token string) (*domain.User, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("auth.Verifier.Verify: %w: %w", domain.ErrNotAuthenticated, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("auth.Verifier.Verify: %w: missing subject", domain.ErrNotAuthenticated)
	}

	return &domain.User{
		UID:         claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
		PhotoURL:    claims.Picture,
	}, nil
}

// Issue signs a token for u that expires after ttl.
func (v *Verifier) Issue(u domain.User, ttl time.Duration) (string, error) {
	if u.UID == "" {
		return "", errors.New("auth.Verifier.Issue: user has no uid")
	}
	now := v.now()
	claims := Claims{
		Name:    u.DisplayName,
		Email:   u.Email,
		Picture: u.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth.Verifier.Issue: %w", err)
	}
	return signed, nil
}

func (v *Verifier) key(_ *jwt.Token) (any, error) {
	return v.secret, nil
}

type contextKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFromContext returns the signed-in user, or nil when the request is
// anonymous.
func UserFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(contextKey{}).(*domain.User)
	return u
}
