package auth

import (
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/forum-service/internal/domain"
)

const fallbackTokenTTL = 24 * time.Hour

// TokenCodec issues and verifies signed session tokens.
// It is immutable after construction and safe for concurrent use.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption customizes a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTokenCodec builds a codec signing with secret. Tokens issued without an explicit
// duration live for defaultTTL.
func NewTokenCodec(secret string, defaultTTL time.Duration, opts ...CodecOption) *TokenCodec {
	if defaultTTL <= 0 {
		defaultTTL = fallbackTokenTTL
	}
	c := &TokenCodec{secret: []byte(secret), ttl: defaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserClaim is the identity embedded in a session token.
type UserClaim struct {
	ID domain.UserID `json:"id"`
}

// Claims describes the JWT payload.
type Claims struct {
	User UserClaim `json:"user"`
	jwt.RegisteredClaims
}

// DefaultTTL returns the lifetime used when Issue is called without a duration.
func (c *TokenCodec) DefaultTTL() time.Duration {
	return c.ttl
}

// Issue signs a token for subjectID that expires after duration.
// A non-positive duration uses the default TTL. The exp claim has second precision,
// so the expiry is rounded up and the token never lives shorter than duration.
func (c *TokenCodec) Issue(subjectID domain.UserID, duration time.Duration) (string, time.Time, error) {
	if subjectID <= 0 {
		return "", time.Time{}, fmt.Errorf("issue token: invalid subject %d", subjectID)
	}
	if duration <= 0 {
		duration = c.ttl
	}

	now := c.now()
	expiresAt := ceilSecond(now.Add(duration))
	claims := &Claims{
		User: UserClaim{ID: subjectID},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// Verify checks the signature and expiry of tokenStr and returns the embedded identity.
// Every failure satisfies errors.Is(err, ErrTokenInvalid).
func (c *TokenCodec) Verify(tokenStr string) (domain.Identity, error) {
	claim, err := c.Decode(tokenStr)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{ID: claim.Subject}, nil
}

// Decode verifies tokenStr like Verify and returns the full session claim.
func (c *TokenCodec) Decode(tokenStr string) (domain.SessionClaim, error) {
	if tokenStr == "" {
		return domain.SessionClaim{}, fmt.Errorf("%w: empty token", ErrTokenInvalid)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return domain.SessionClaim{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.User.ID <= 0 {
		return domain.SessionClaim{}, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	claim := domain.SessionClaim{
		Subject:   claims.User.ID,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		claim.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return claim, nil
}

// ceilSecond rounds t up to the next whole second unless it already is one.
func ceilSecond(t time.Time) time.Time {
	truncated := t.Truncate(time.Second)
	if truncated.Before(t) {
		return truncated.Add(time.Second)
	}
	return truncated
}
