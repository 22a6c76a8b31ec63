package auth

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msanchezdev/taskhub-api/internal/crypto"
	"github.com/msanchezdev/taskhub-api/internal/models"
)

func TestEnsureSigningKeyIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	issuer := NewIssuer(db, testConfig())

	first, err := issuer.EnsureSigningKey()
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := issuer.EnsureSigningKey()
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.SigningKey{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSigningKeyPrivateHalfIsEncrypted(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	issuer := NewIssuer(db, cfg)

	record, err := issuer.EnsureSigningKey()
	require.NoError(t, err)

	// The stored private half must not be a readable JWK document
	assert.False(t, strings.Contains(record.PrivateKey, `"kty"`))

	decrypted, err := crypto.DecryptString(cfg.ServerSecret, record.PrivateKey)
	require.NoError(t, err)

	var privateJWK map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(decrypted), &privateJWK))
	assert.Equal(t, "EC", privateJWK["kty"])
	assert.Contains(t, privateJWK, "d")
	assert.Equal(t, record.ID, privateJWK["kid"])

	// The public half is plaintext JWK without the private component
	var publicJWK map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(record.PublicKey), &publicJWK))
	assert.NotContains(t, publicJWK, "d")
}

func TestIssuerSignClaims(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	issuer := NewIssuer(db, cfg)

	record, err := issuer.EnsureSigningKey()
	require.NoError(t, err)

	signed, err := issuer.Sign("user-1", time.Hour)
	require.NoError(t, err)

	// Inspect header and claims without verifying the signature; signature
	// verification is covered by the verifier tests.
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(signed, jwt.MapClaims{})
	require.NoError(t, err)

	assert.Equal(t, "ES256", token.Header["alg"])
	assert.Equal(t, record.ID, token.Header["kid"])

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, cfg.ServerURL, claims["iss"])
	assert.Equal(t, cfg.ServerURL, claims["aud"])
	assert.Equal(t, "user-1", claims["sub"])
	assert.NotNil(t, claims["iat"])
	assert.NotNil(t, claims["exp"])
	assert.Len(t, claims["jti"], 32)

	// Each mint gets a fresh jti
	again, err := issuer.Sign("user-1", time.Hour)
	require.NoError(t, err)
	token2, _, err := parser.ParseUnverified(again, jwt.MapClaims{})
	require.NoError(t, err)
	assert.NotEqual(t, claims["jti"], token2.Claims.(jwt.MapClaims)["jti"])
}

func TestIssuerSignWithoutKey(t *testing.T) {
	db := setupTestDB(t)
	issuer := NewIssuer(db, testConfig())

	_, err := issuer.Sign("user-1", time.Hour)
	assert.Error(t, err)
}
