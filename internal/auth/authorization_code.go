package auth

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/msanchezdev/taskhub-api/internal/models"
)

// handleAuthorizationCode redeems an authorization code for tokens. The
// validation order matters for error precedence: client authentication
// first, then the code record, then the bindings (client, redirect URI,
// PKCE). The code row is consumed before any token is minted so a replayed
// code can never race a successful redemption.
func (o *OAuthServer) handleAuthorizationCode(c *gin.Context, body map[string]string) {
	code := body["code"]
	if code == "" {
		failTokenRequest(c, models.NewAPIError(models.ErrInvalidRequest, "Missing authorization code"))
		return
	}

	clientID, clientSecret, apiErr := extractClientCredentials(c, body)
	if apiErr != nil {
		failTokenRequest(c, apiErr)
		return
	}
	if clientID == "" {
		failTokenRequest(c, models.NewAPIError(models.ErrInvalidClient, "Client authentication required"))
		return
	}

	client, err := o.clients.GetClientByClientID(clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			failTokenRequest(c, models.NewAPIError(models.ErrInvalidClient, "Invalid client credentials"))
			return
		}
		o.failInternal(c, err, "client lookup failed")
		return
	}
	if client.Disabled {
		failTokenRequest(c, models.NewAPIError(models.ErrInvalidClient, "Invalid client credentials"))
		return
	}

	if clientSecret != "" && client.ClientSecret != nil {
		valid, err := o.secrets.Verify(*client.ClientSecret, clientSecret)
		if err != nil {
			o.failInternal(c, err, "client secret verification failed")
			return
		}
		if !valid {
			failTokenRequest(c, models.NewAPIError(models.ErrInvalidClient, "Invalid client credentials"))
			return
		}
	} else if !client.IsPublic() && clientSecret == "" {
		failTokenRequest(c, models.NewAPIError(models.ErrInvalidClient, "Client authentication required for confidential clients"))
		return
	}

	record, err := o.codes.Get(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			failTokenRequest(c, models.NewAPIError(models.ErrInvalidGrant, "Invalid authorization code"))
			return
		}
		o.failInternal(c, err, "authorization code lookup failed")
		return
	}

	now := time.Now()
	if IsExpired(record, now) {
		if err := o.codes.DeleteExpired(code); err != nil {
			o.log.WithError(err).Warn("Failed to delete expired authorization code")
		}
		failTokenRequest(c, models.NewAPIError(models.ErrInvalidGrant, "Authorization code expired"))
		return
	}

	if record.ClientID != clientID {
		failTokenRequest(c, models.NewAPIError(models.ErrInvalidGrant, "Authorization code was not issued to this client"))
		return
	}

	if redirectURI := body["redirect_uri"]; redirectURI != "" && redirectURI != record.RedirectURI {
		failTokenRequest(c, models.NewAPIError(models.ErrInvalidGrant, "Redirect URI mismatch"))
		return
	}

	if record.CodeChallenge != "" && record.CodeChallengeMethod != "" {
		verifier := body["code_verifier"]
		if verifier == "" {
			failTokenRequest(c, models.NewAPIError(models.ErrInvalidRequest, "Code verifier required for PKCE"))
			return
		}
		if record.CodeChallengeMethod == models.CodeChallengePlain && !o.cfg.AllowPlainCodeChallenge {
			failTokenRequest(c, models.NewAPIError(models.ErrInvalidGrant, "Invalid code verifier"))
			return
		}
		if !ValidateCodeChallenge(verifier, record.CodeChallenge, record.CodeChallengeMethod) {
			failTokenRequest(c, models.NewAPIError(models.ErrInvalidGrant, "Invalid code verifier"))
			return
		}
	}

	// Single use: consume the row before minting anything. Losing the
	// conditional delete means a concurrent request redeemed this code
	// first.
	if err := o.codes.Consume(code); err != nil {
		if errors.Is(err, ErrCodeConsumed) {
			failTokenRequest(c, models.NewAPIError(models.ErrInvalidGrant, "Invalid authorization code"))
			return
		}
		o.failInternal(c, err, "authorization code consume failed")
		return
	}

	accessTTL := time.Duration(o.cfg.AccessTokenTTL) * time.Second
	accessToken, err := o.issuer.Sign(record.UserID, accessTTL)
	if err != nil {
		o.failInternal(c, err, "access token generation failed")
		return
	}
	accessExpiresAt := now.Add(accessTTL)

	var refreshToken *string
	var refreshExpiresAt *time.Time
	if record.HasScope("offline_access") {
		token := randomToken(32)
		expiresAt := now.Add(time.Duration(o.cfg.RefreshTokenTTL) * time.Second)
		refreshToken = &token
		refreshExpiresAt = &expiresAt
	}

	userID := record.UserID
	tokenRecord := &models.OAuthToken{
		ClientID:              client.ClientID,
		UserID:                &userID,
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		Scopes:                record.Scopes,
		AccessTokenExpiresAt:  accessExpiresAt,
		RefreshTokenExpiresAt: refreshExpiresAt,
	}
	if err := o.tokens.Create(tokenRecord); err != nil {
		o.failInternal(c, err, "failed to persist access token")
		return
	}

	o.log.WithFields(map[string]interface{}{
		"client_id": client.ClientID,
		"user_id":   record.UserID,
	}).Info("Authorization code redeemed")

	response := gin.H{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   o.cfg.AccessTokenTTL,
	}
	if refreshToken != nil {
		response["refresh_token"] = *refreshToken
	}
	respondToken(c, response)
}
