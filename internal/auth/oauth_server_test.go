package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/msanchezdev/taskhub-api/internal/config"
	"github.com/msanchezdev/taskhub-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.OAuthClient{},
		&models.OAuthCode{},
		&models.OAuthToken{},
		&models.SigningKey{},
	)
	require.NoError(t, err)

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                    8080,
		Host:                    "localhost",
		ServerURL:               "http://localhost:8080",
		ServerSecret:            "test-server-secret-32-characters",
		AuthBackendURL:          "http://localhost:3000",
		CodeTTL:                 600,
		AccessTokenTTL:          3600,
		RefreshTokenTTL:         604800,
		Scopes:                  []string{"openid", "profile", "email", "offline_access"},
		ClientSecretPolicy:      config.SecretPolicyPlain,
		AllowPlainCodeChallenge: true,
	}
}

// newTestServer provisions a signing key and wires the token, JWKS and
// authorize endpoints the way cmd/main.go does. The authorize route gets a
// stub middleware standing in for session authentication.
func newTestServer(t *testing.T, db *gorm.DB, cfg *config.Config) (*OAuthServer, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	issuer := NewIssuer(db, cfg)
	_, err := issuer.EnsureSigningKey()
	require.NoError(t, err)

	server := NewOAuthServer(db, cfg, issuer)

	router := gin.New()
	router.POST("/oauth2/token", server.HandleToken)
	router.GET("/oauth2/jwks", server.HandleJWKS)
	router.GET("/oauth2/authorize", func(c *gin.Context) {
		c.Set("userID", "user-1")
	}, server.HandleAuthorize)

	return server, router
}

func createTestClient(t *testing.T, db *gorm.DB, clientID string, secret *string, clientType string) *models.OAuthClient {
	client := &models.OAuthClient{
		ID:           uuid.New().String(),
		Name:         "Test Client",
		ClientID:     clientID,
		ClientSecret: secret,
		RedirectURIs: "http://localhost:3000/callback",
		Type:         clientType,
		UserID:       "owner-1",
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

func postTokenForm(router *gin.Engine, form string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/oauth2/token", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func strPtr(s string) *string {
	return &s
}

func TestOAuthServerInitialization(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()

	server, _ := newTestServer(t, db, cfg)
	assert.NotNil(t, server)
	assert.NotNil(t, server.Secrets())
	assert.NotNil(t, server.Codes())
}

func TestJWKSEndpoint(t *testing.T) {
	db := setupTestDB(t)
	_, router := newTestServer(t, db, testConfig())

	req := httptest.NewRequest("GET", "/oauth2/jwks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var document struct {
		Keys []map[string]interface{} `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &document))
	require.Len(t, document.Keys, 1)

	key := document.Keys[0]
	assert.Equal(t, "EC", key["kty"])
	assert.Equal(t, "P-256", key["crv"])
	assert.NotEmpty(t, key["kid"])
	// The private half must never leave the database
	assert.NotContains(t, key, "d")
}
