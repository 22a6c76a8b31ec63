package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/msanchezdev/taskhub-api/internal/models"
)

// handleClientCredentials issues an access token from verified client
// credentials alone. There is no user consent and no openid context, so no
// ID token is generated for this grant.
func (o *OAuthServer) handleClientCredentials(c *gin.Context, body map[string]string) {
	clientID, clientSecret, apiErr := extractClientCredentials(c, body)
	if apiErr != nil {
		failTokenRequest(c, apiErr)
		return
	}
	if clientID == "" || clientSecret == "" {
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
	if client.Disabled || client.ClientSecret == nil {
		failTokenRequest(c, models.NewAPIError(models.ErrInvalidClient, "Invalid client credentials"))
		return
	}

	valid, err := o.secrets.Verify(*client.ClientSecret, clientSecret)
	if err != nil {
		o.failInternal(c, err, "client secret verification failed")
		return
	}
	if !valid {
		failTokenRequest(c, models.NewAPIError(models.ErrInvalidClient, "Invalid client credentials"))
		return
	}

	accessToken := randomToken(32)
	accessTTL := time.Duration(o.cfg.AccessTokenTTL) * time.Second
	accessExpiresAt := time.Now().Add(accessTTL)

	var userID *string
	if client.UserID != "" {
		userID = &client.UserID
	}

	tokenRecord := &models.OAuthToken{
		ClientID:             client.ClientID,
		UserID:               userID,
		AccessToken:          accessToken,
		Scopes:               strings.Join(o.cfg.Scopes, " "),
		AccessTokenExpiresAt: accessExpiresAt,
	}
	if err := o.tokens.Create(tokenRecord); err != nil {
		o.failInternal(c, err, "failed to persist access token")
		return
	}

	o.log.WithField("client_id", client.ClientID).Info("Client credentials grant issued")

	respondToken(c, gin.H{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   o.cfg.AccessTokenTTL,
		"id_token":     nil,
	})
}
