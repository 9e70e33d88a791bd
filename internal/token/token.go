// Package token issues and verifies the signed bearer tokens that carry a
// verified identity between requests. Tokens are self-contained; nothing is
// persisted server-side and validity is decided purely by signature and
// expiry against the caller's clock.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/workpulse/workpulse/internal/shared"
)

var (
	// ErrTokenInvalid covers every verification failure.
	ErrTokenInvalid = errors.New("token: invalid")
	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrTokenInvalid)
	// ErrTokenMalformed indicates a garbled token or a bad signature.
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrTokenInvalid)
)

// Claims embeds the registered JWT claims plus the identity attributes the
// gate binds into the request context.
type Claims struct {
	EmployeeID string `json:"employee_id,omitempty"`
	OrgID      *int64 `json:"org_id,omitempty"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Authority signs and verifies bearer tokens. The verification key is a
// jwt.Keyfunc so it can be swapped (for example during a key rotation)
// without touching the issue/verify code paths.
type Authority struct {
	signingKey []byte
	keyfunc    jwt.Keyfunc
	ttl        time.Duration
	issuer     string
}

// Option customises an Authority.
type Option func(*Authority)

// WithKeyfunc replaces the verification key lookup.
func WithKeyfunc(fn jwt.Keyfunc) Option {
	return func(a *Authority) { a.keyfunc = fn }
}

// NewAuthority constructs an Authority using a shared HMAC secret.
func NewAuthority(secret string, ttl time.Duration, opts ...Option) *Authority {
	key := []byte(secret)
	a := &Authority{
		signingKey: key,
		ttl:        ttl,
		issuer:     "workpulse",
		keyfunc: func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TTL returns the configured token lifetime.
func (a *Authority) TTL() time.Duration {
	return a.ttl
}

// Subject is the identity a token is issued for.
type Subject struct {
	IdentityID int64
	EmployeeID string
	OrgID      *int64
	Role       string
}

// Issue produces a signed token for the subject with expiry now+TTL.
// It has no side effects beyond computing the signature.
func (a *Authority) Issue(sub Subject, now time.Time) (string, error) {
	claims := Claims{
		EmployeeID: sub.EmployeeID,
		OrgID:      sub.OrgID,
		Role:       sub.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   fmt.Sprintf("%d", sub.IdentityID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(a.signingKey)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry against the supplied clock and returns
// the principal the token was issued for. Expired and malformed tokens are
// distinguished, but both match ErrTokenInvalid.
func (a *Authority) Verify(raw string, now time.Time) (shared.Principal, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	var claims Claims
	parsed, err := parser.ParseWithClaims(raw, &claims, a.keyfunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return shared.Principal{}, ErrTokenExpired
		}
		return shared.Principal{}, ErrTokenMalformed
	}
	if !parsed.Valid {
		return shared.Principal{}, ErrTokenMalformed
	}

	var identityID int64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &identityID); err != nil {
		return shared.Principal{}, ErrTokenMalformed
	}

	return shared.Principal{
		IdentityID: identityID,
		EmployeeID: claims.EmployeeID,
		OrgID:      claims.OrgID,
		Role:       claims.Role,
	}, nil
}
