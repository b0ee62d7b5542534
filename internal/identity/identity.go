// Package identity turns request credentials into a caller identity.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/immxrtalbeast/codecollab/internal/domain"
)

var (
	ErrUnauthenticated = fmt.Errorf("%w: missing or invalid credentials", domain.ErrUnauthorized)
	ErrInvalidSubject  = fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
)

// Provider resolves an opaque credential, usually a bearer token.
type Provider interface {
	Authenticate(ctx context.Context, credential string) (domain.Identity, error)
}

type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// JWTProvider validates HS256 tokens whose subject is the user id and whose
// name claim carries the display name.
type JWTProvider struct {
	secret    []byte
	issuer    string
	clockSkew time.Duration
	now       func() time.Time
}

func NewJWTProvider(secret, issuer string) *JWTProvider {
	return &JWTProvider{
		secret:    []byte(secret),
		issuer:    issuer,
		clockSkew: 30 * time.Second,
		now:       time.Now,
	}
}

func (p *JWTProvider) Authenticate(ctx context.Context, credential string) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}

	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.Identity{}, ErrUnauthenticated
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		// tolerate small clock drift on exp and nbf
		if !errors.As(err, &verr) || verr.Errors&^(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 || !p.withinSkew(claims) {
			return domain.Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
	} else if !token.Valid {
		return domain.Identity{}, ErrUnauthenticated
	}

	if p.issuer != "" && !claims.VerifyIssuer(p.issuer, true) {
		return domain.Identity{}, fmt.Errorf("%w: unexpected issuer", ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return domain.Identity{}, ErrInvalidSubject
	}

	name := claims.Name
	if name == "" {
		name = claims.Subject
	}
	return domain.Identity{UserID: claims.Subject, DisplayName: name}, nil
}

func (p *JWTProvider) withinSkew(claims *Claims) bool {
	now := p.now()
	if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Add(p.clockSkew)) {
		return false
	}
	if claims.NotBefore != nil && now.Add(p.clockSkew).Before(claims.NotBefore.Time) {
		return false
	}
	return true
}

// Sign issues a token for id valid for ttl. A non-positive ttl issues a token
// without expiry.
func (p *JWTProvider) Sign(id domain.Identity, ttl time.Duration) (string, error) {
	if strings.TrimSpace(id.UserID) == "" {
		return "", ErrInvalidSubject
	}
	now := p.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id.UserID,
			Issuer:   p.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Name: id.DisplayName,
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
