// Package auth turns request credentials into an actor identity.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Provider authenticates a request and returns the actor's identity.
type Provider interface {
	Authenticate(r *http.Request) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(r *http.Request) (string, error)

func (f ProviderFunc) Authenticate(r *http.Request) (string, error) { return f(r) }

// JWTProvider accepts HS256 bearer tokens whose subject is the actor.
type JWTProvider struct {
	secret []byte
	issuer string
}

// NewJWTProvider returns a provider verifying tokens signed with secret. A
// non-empty issuer must match the token's iss claim.
func NewJWTProvider(secret, issuer string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret), issuer: issuer}
}

func (p *JWTProvider) Authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrUnauthenticated
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return claims.Subject, nil
}

// Issue signs a token for subject valid for ttl. Used by tests and the
// token command.
func (p *JWTProvider) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    p.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
