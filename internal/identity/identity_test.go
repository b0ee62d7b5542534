package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/immxrtalbeast/codecollab/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTProvider_SignAndAuthenticate(t *testing.T) {
	p := NewJWTProvider("secret", "codecollab")

	token, err := p.Sign(domain.Identity{UserID: "u-1", DisplayName: "Alice"}, time.Hour)
	require.NoError(t, err)

	id, err := p.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)
	assert.Equal(t, "Alice", id.DisplayName)
}

func TestJWTProvider_DisplayNameFallsBackToSubject(t *testing.T) {
	p := NewJWTProvider("secret", "")
	token, err := p.Sign(domain.Identity{UserID: "u-2"}, 0)
	require.NoError(t, err)

	id, err := p.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-2", id.DisplayName)
}

func TestJWTProvider_Rejects(t *testing.T) {
	p := NewJWTProvider("secret", "codecollab")
	ctx := context.Background()

	other := NewJWTProvider("other-secret", "codecollab")
	foreign, err := other.Sign(domain.Identity{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)

	wrongIssuer, err := NewJWTProvider("secret", "someone-else").Sign(domain.Identity{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)

	expired := NewJWTProvider("secret", "codecollab")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := expired.Sign(domain.Identity{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", Issuer: "codecollab"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"wrong issuer", wrongIssuer},
		{"expired", stale},
		{"unsigned", none},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Authenticate(ctx, tt.token)
			assert.ErrorIs(t, err, ErrUnauthenticated)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestJWTProvider_ToleratesClockSkew(t *testing.T) {
	p := NewJWTProvider("secret", "codecollab")
	issuer := NewJWTProvider("secret", "codecollab")
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour - 10*time.Second) }
	token, err := issuer.Sign(domain.Identity{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)

	_, err = p.Authenticate(context.Background(), token)
	assert.NoError(t, err)
}

func TestJWTProvider_SignRequiresSubject(t *testing.T) {
	_, err := NewJWTProvider("secret", "").Sign(domain.Identity{}, time.Hour)
	assert.ErrorIs(t, err, ErrInvalidSubject)
}
