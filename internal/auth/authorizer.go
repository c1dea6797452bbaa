// Package auth issues and verifies the bearer tokens that gate the API,
// and hashes account passwords.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/floodcast/floodcast-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// claims is the token payload. userId matches the claim name used by the
// web client that consumes these tokens.
type claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Authorizer signs and verifies HS256 tokens with a shared secret.
// It holds no per-request state and is safe for concurrent use.
type Authorizer struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

// NewAuthorizer creates an Authorizer. Issued tokens expire after ttl.
func NewAuthorizer(secret string, ttl time.Duration) *Authorizer {
	return &Authorizer{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clockwork.NewRealClock(),
	}
}

// Issue signs a token for subjectID.
func (a *Authorizer) Issue(subjectID string) (string, error) {
	if subjectID == "" {
		return "", errors.New("issue token: empty subject")
	}
	now := a.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authorize resolves an Authorization header value to a subject.
// A header without a bearer token yields ErrMissingToken; a token that is
// malformed, expired, or signed with another secret yields ErrInvalidToken.
func (a *Authorizer) Authorize(header string) (domain.Subject, error) {
	raw, ok := BearerToken(header)
	if !ok {
		return domain.Subject{}, domain.ErrMissingToken
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil {
		return domain.Subject{}, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if c.UserID == "" {
		return domain.Subject{}, fmt.Errorf("%w: no subject claim", domain.ErrInvalidToken)
	}
	return domain.Subject{ID: c.UserID}, nil
}

// BearerToken extracts the token from a "Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
