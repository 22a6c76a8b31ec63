package auth

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msanchezdev/taskhub-api/internal/models"
)

func TestTokenEndpointUnsupportedGrantType(t *testing.T) {
	db := setupTestDB(t)
	_, router := newTestServer(t, db, testConfig())

	w := postTokenForm(router, "grant_type=password&username=u&password=p")

	require.Equal(t, http.StatusBadRequest, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, models.ErrUnsupportedGrantType, response["code"])
}

func TestTokenEndpointMissingGrantType(t *testing.T) {
	db := setupTestDB(t)
	_, router := newTestServer(t, db, testConfig())

	w := postTokenForm(router, "client_id=c&client_secret=s")

	require.Equal(t, http.StatusBadRequest, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, models.ErrUnsupportedGrantType, response["code"])
}

func TestTokenEndpointContentTypes(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	_, router := newTestServer(t, db, cfg)
	createTestClient(t, db, "client-1", strPtr("s3cret"), models.ClientTypeConfidential)

	t.Run("rejects missing content type", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/oauth2/token", strings.NewReader("grant_type=client_credentials"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, models.ErrInvalidRequest, decodeBody(t, w)["code"])
	})

	t.Run("rejects unsupported content type", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/oauth2/token", strings.NewReader("grant_type=client_credentials"))
		req.Header.Set("Content-Type", "text/plain")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, models.ErrInvalidRequest, decodeBody(t, w)["code"])
	})

	t.Run("accepts JSON body", func(t *testing.T) {
		body := `{"grant_type":"client_credentials","client_id":"client-1","client_secret":"s3cret"}`
		req := httptest.NewRequest("POST", "/oauth2/token", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decodeBody(t, w)["access_token"])
	})

	t.Run("rejects malformed JSON body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/oauth2/token", strings.NewReader("{broken"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, models.ErrInvalidRequest, decodeBody(t, w)["code"])
	})

	t.Run("accepts content type with charset parameter", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/oauth2/token",
			strings.NewReader("grant_type=client_credentials&client_id=client-1&client_secret=s3cret"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestTokenEndpointBasicAuth(t *testing.T) {
	db := setupTestDB(t)
	_, router := newTestServer(t, db, testConfig())
	createTestClient(t, db, "client-1", strPtr("s3cret"), models.ClientTypeConfidential)

	t.Run("accepts Basic credentials", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/oauth2/token", strings.NewReader("grant_type=client_credentials"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("client-1:s3cret")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decodeBody(t, w)["access_token"])
	})

	t.Run("rejects undecodable Basic header", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/oauth2/token", strings.NewReader("grant_type=client_credentials"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Basic %%%not-base64%%%")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, models.ErrInvalidRequest, decodeBody(t, w)["code"])
	})

	t.Run("rejects Basic header without colon", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/oauth2/token", strings.NewReader("grant_type=client_credentials"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("no-separator")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		response := decodeBody(t, w)
		assert.Equal(t, models.ErrInvalidRequest, response["code"])
		assert.Equal(t, "Invalid client credentials format in Authorization header", response["message"])
	})
}

func TestTokenResponsesAreUncacheable(t *testing.T) {
	db := setupTestDB(t)
	_, router := newTestServer(t, db, testConfig())
	createTestClient(t, db, "client-1", strPtr("s3cret"), models.ClientTypeConfidential)

	w := postTokenForm(router, "grant_type=client_credentials&client_id=client-1&client_secret=s3cret")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
}
