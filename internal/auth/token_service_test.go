package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService(testSecret)

	token, err := svc.Issue("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "user-123", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(TokenExpiry), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService(testSecret)

	claims := &Claims{
		UserID: "user-123",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_BadSignature(t *testing.T) {
	svc := NewTokenService(testSecret)

	token, err := svc.Issue("user-123")
	require.NoError(t, err)

	// re-sign the same header and payload with a different secret
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	foreignSig, err := jwt.SigningMethodHS256.Sign(parts[0]+"."+parts[1], []byte("another-secret"))
	require.NoError(t, err)
	tampered := parts[0] + "." + parts[1] + "." + foreignSig

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestTokenService_Malformed(t *testing.T) {
	svc := NewTokenService(testSecret)

	for _, token := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", token)
	}
}

func TestTokenService_RejectsNonHMAC(t *testing.T) {
	svc := NewTokenService(testSecret)

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "user-123",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.Error(t, err)
}
