package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)

	raw, err := issuer.Issue("user-1", "alice@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := issuer.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "alice@x.com", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	require.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestPayloadClaimKeys(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)

	raw, err := issuer.Issue("user-1", "alice@x.com")
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &body))
	require.Equal(t, "user-1", body["userId"])
	require.Equal(t, "alice@x.com", body["email"])
	require.NotContains(t, body, "user_id")
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)
	other := NewIssuer([]byte("other-secret"), time.Hour)

	raw, err := issuer.Issue("user-1", "alice@x.com")
	require.NoError(t, err)

	_, err = other.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), -time.Minute)

	raw, err := issuer.Issue("user-1", "alice@x.com")
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)

	for _, raw := range []string{"", "garbage", "a.b.c", "a.b"} {
		_, err := issuer.Verify(raw)
		require.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestVerifyRejectsWrongAlg(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), time.Hour)

	claims := Claims{
		UserID: "user-1",
		Email:  "alice@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeUnsafe(t *testing.T) {
	issuer := NewIssuer([]byte("test-secret"), -time.Minute)

	raw, err := issuer.Issue("user-1", "alice@x.com")
	require.NoError(t, err)

	// expired tokens still decode structurally
	claims, err := issuer.DecodeUnsafe(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.True(t, claims.ExpiresAt.Before(time.Now()))

	// a tampered signature does not matter to the structural decode
	claims, err = issuer.DecodeUnsafe(raw + "xx")
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)

	_, err = issuer.DecodeUnsafe("not-a-token")
	require.ErrorIs(t, err, ErrMalformedToken)
}
