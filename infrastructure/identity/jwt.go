// Package identity issues and verifies bearer tokens and resolves the caller
// of an operation from its context.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pennybid/domain/entities"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "pennybid"

// Claims carries the user id as the token subject
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// JWT signs and verifies HS256 tokens
type JWT struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWT creates a token issuer signing with secret
func NewJWT(secret string, ttl time.Duration) *JWT {
	return &JWT{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue mints a token for userID
func (j *JWT) Issue(userID int64) (string, error) {
	now := j.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the user id carried by a valid token
func (j *JWT) Verify(token string) (int64, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to verify token: %w: %w", err, entities.ErrUnauthenticated)
	}
	if !parsed.Valid || claims.UserID <= 0 {
		return 0, entities.ErrUnauthenticated
	}
	return claims.UserID, nil
}

type tokenKey struct{}

// WithToken attaches a bearer token to ctx
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token attached to ctx, if any
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

// TokenProvider resolves the caller from the bearer token in the context
type TokenProvider struct {
	jwt *JWT
}

// NewTokenProvider creates an identity provider backed by j
func NewTokenProvider(j *JWT) *TokenProvider {
	return &TokenProvider{jwt: j}
}

// CurrentUserID implements interfaces.IdentityProvider
func (p *TokenProvider) CurrentUserID(ctx context.Context) (int64, error) {
	token, ok := TokenFromContext(ctx)
	if !ok {
		return 0, entities.ErrUnauthenticated
	}
	userID, err := p.jwt.Verify(token)
	if err != nil {
		if errors.Is(err, entities.ErrUnauthenticated) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", err, entities.ErrUnauthenticated)
	}
	return userID, nil
}

// Static always resolves to the same user. Zero means anonymous.
type Static int64

// CurrentUserID implements interfaces.IdentityProvider
func (s Static) CurrentUserID(ctx context.Context) (int64, error) {
	if s <= 0 {
		return 0, entities.ErrUnauthenticated
	}
	return int64(s), nil
}
