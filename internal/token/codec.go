// Package token implements the credential codec: stateless, time-boxed
// HS256 tokens asserting a principal identifier. Validity is entirely a
// function of the shared secret and the embedded expiry; nothing is stored
// and nothing can be revoked before expiry.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "fabula/pkg/domain"
)

// DefaultTTL is the fixed token lifetime.
const DefaultTTL = time.Hour

var (
	// ErrNoSecret indicates the codec was constructed without a signing
	// secret. This is a configuration fault, not a caller error.
	ErrNoSecret = errors.New("token: signing secret not configured")
	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token: expired")
	// ErrTokenMalformed indicates a token that failed parsing or whose
	// signature does not match the shared secret.
	ErrTokenMalformed = errors.New("token: malformed or tampered")
	// ErrMissingSubject indicates a verified token without a subject claim.
	ErrMissingSubject = errors.New("token: missing subject")
)

// Claims carries the registered claims plus the principal identifier.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Codec signs and verifies bearer tokens with a shared secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec builds a codec. The secret is validated here so a missing secret
// fails at startup rather than on the first request.
func NewCodec(secret string, ttl time.Duration, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Issue produces a signed token for the given principal.
func (c *Codec) Issue(userID id.UserID) (string, error) {
	if len(c.secret) == 0 {
		return "", ErrNoSecret
	}
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		UserID: userID.String(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks the signature and expiry and returns the subject identifier.
func (c *Codec) Verify(raw string) (id.UserID, error) {
	if len(c.secret) == 0 {
		return id.UserID{}, ErrNoSecret
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.UserID{}, ErrTokenExpired
		}
		return id.UserID{}, ErrTokenMalformed
	}
	if !parsed.Valid {
		return id.UserID{}, ErrTokenMalformed
	}

	subject := claims.UserID
	if subject == "" {
		subject = claims.Subject
	}
	if subject == "" {
		return id.UserID{}, ErrMissingSubject
	}
	userID, err := id.ParseUserID(subject)
	if err != nil {
		return id.UserID{}, ErrMissingSubject
	}
	return userID, nil
}
