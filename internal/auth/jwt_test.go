// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/civix-app/civix-backend/internal/config"
	"github.com/civix-app/civix-backend/internal/core"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessTokenExpire: time.Hour,
		Issuer:            "civix-backend",
		Audience:          "civix-api",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m, err := NewJWTManagerFromGenerated(testJWTConfig())
	require.NoError(t, err)

	token, err := m.CreateAccessToken(AccessTokenClaims{
		UserID: "user-42",
		Email:  "ada@example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user-42", claims.UserID)
	require.Equal(t, "ada@example.com", claims.Email)
}

func TestVerifyAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessTokenExpire = -time.Minute

	m, err := NewJWTManagerFromGenerated(cfg)
	require.NoError(t, err)

	token, err := m.CreateAccessToken(AccessTokenClaims{
		UserID: "user-42",
		Email:  "ada@example.com",
	})
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(context.Background(), token)
	require.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestVerifyAccessTokenTampered(t *testing.T) {
	m, err := NewJWTManagerFromGenerated(testJWTConfig())
	require.NoError(t, err)

	token, err := m.CreateAccessToken(AccessTokenClaims{
		UserID: "user-42",
		Email:  "ada@example.com",
	})
	require.NoError(t, err)

	tampered := []byte(token)
	last := len(tampered) - 1
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	_, err = m.VerifyAccessToken(context.Background(), string(tampered))
	require.ErrorIs(t, err, core.ErrTokenInvalid)

	_, err = m.VerifyAccessToken(context.Background(), "not.a.jwt")
	require.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyAccessTokenForeignKey(t *testing.T) {
	m1, err := NewJWTManagerFromGenerated(testJWTConfig())
	require.NoError(t, err)
	m2, err := NewJWTManagerFromGenerated(testJWTConfig())
	require.NoError(t, err)

	token, err := m1.CreateAccessToken(AccessTokenClaims{
		UserID: "user-42",
		Email:  "ada@example.com",
	})
	require.NoError(t, err)

	_, err = m2.VerifyAccessToken(context.Background(), token)
	require.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyAccessTokenWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Issuer = "someone-else"

	m, err := NewJWTManagerFromGenerated(cfg)
	require.NoError(t, err)

	token, err := m.CreateAccessToken(AccessTokenClaims{
		UserID: "user-42",
		Email:  "ada@example.com",
	})
	require.NoError(t, err)

	// Same manager accepts its own issuer.
	_, err = m.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)

	cfg.Issuer = "civix-backend"
	strict, err := newJWTManagerFromKey(m.privateKey, cfg)
	require.NoError(t, err)

	_, err = strict.VerifyAccessToken(context.Background(), token)
	require.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestJWKSHandler(t *testing.T) {
	m, err := NewJWTManagerFromGenerated(testJWTConfig())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/.well-known/jwks.json", nil)

	m.GetJWKSHandler()(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Keys, 1)
	require.Equal(t, m.GetKeyID(), body.Keys[0]["kid"])
	require.NotContains(t, body.Keys[0], "d", "private material must not leak")
}
