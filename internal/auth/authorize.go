package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/msanchezdev/taskhub-api/internal/models"
)

// HandleAuthorize issues an authorization code for an already-authenticated
// user and redirects back to the client. The consent page itself lives in
// the web frontend; by the time this endpoint runs, route middleware has
// established the session principal.
// @Summary Authorization Endpoint
// @Description Issue an authorization code for the authenticated user
// @Tags OAuth2
// @Param client_id query string true "Client ID"
// @Param redirect_uri query string false "Redirect URI"
// @Param scope query string false "Requested scopes"
// @Param state query string false "Opaque client state"
// @Param code_challenge query string false "PKCE code challenge"
// @Param code_challenge_method query string false "PKCE method: plain or S256"
// @Success 302
// @Failure 400 {object} models.APIError
// @Router /oauth2/authorize [get]
func (o *OAuthServer) HandleAuthorize(c *gin.Context) {
	clientID := c.Query("client_id")
	redirectURI := c.Query("redirect_uri")
	scope := c.Query("scope")
	state := c.Query("state")
	codeChallenge := c.Query("code_challenge")
	codeChallengeMethod := c.Query("code_challenge_method")

	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "authentication required"))
		return
	}

	client, err := o.clients.GetClientByClientID(clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrInvalidClient, "Unknown client"))
			return
		}
		o.failInternal(c, err, "client lookup failed")
		return
	}
	if client.Disabled {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrInvalidClient, "Client is disabled"))
		return
	}

	registered := client.RedirectURIList()
	if redirectURI == "" {
		if len(registered) == 0 {
			c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrInvalidRequest, "No redirect URI registered for client"))
			return
		}
		redirectURI = registered[0]
	} else if !contains(registered, redirectURI) {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrInvalidRequest, "Redirect URI not registered for client"))
		return
	}

	if codeChallenge != "" {
		switch codeChallengeMethod {
		case "":
			codeChallengeMethod = models.CodeChallengeS256
		case models.CodeChallengeS256:
		case models.CodeChallengePlain:
			if !o.cfg.AllowPlainCodeChallenge {
				c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrInvalidRequest, "Plain code challenge method is not allowed"))
				return
			}
		default:
			c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrInvalidRequest, "Unsupported code challenge method"))
			return
		}
	}

	for _, s := range strings.Fields(scope) {
		if !contains(o.cfg.Scopes, s) {
			c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrInvalidScope, "Unsupported scope: "+s))
			return
		}
	}

	code := &models.OAuthCode{
		Code:                randomToken(32),
		ClientID:            client.ClientID,
		UserID:              userID,
		Scopes:              scope,
		RedirectURI:         redirectURI,
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: codeChallengeMethod,
		ExpiresAt:           time.Now().Add(time.Duration(o.cfg.CodeTTL) * time.Second),
	}
	if err := o.codes.Create(code); err != nil {
		o.failInternal(c, err, "failed to create authorization code")
		return
	}

	location, err := url.Parse(redirectURI)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrInvalidRequest, "Invalid redirect URI"))
		return
	}
	query := location.Query()
	query.Set("code", code.Code)
	if state != "" {
		query.Set("state", state)
	}
	location.RawQuery = query.Encode()

	c.Redirect(http.StatusFound, location.String())
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
