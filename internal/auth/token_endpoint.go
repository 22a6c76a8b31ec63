package auth

import (
	"encoding/base64"
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/msanchezdev/taskhub-api/internal/models"
)

// Supported grant types.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeClientCredentials = "client_credentials"
)

// HandleToken is the token endpoint dispatcher. It parses the request body
// (form-encoded or JSON), routes on grant_type and delegates to the grant
// handler.
// @Summary Token Endpoint
// @Description Obtain an access token using the authorization_code or client_credentials grant
// @Tags OAuth2
// @Accept application/x-www-form-urlencoded
// @Accept json
// @Produce json
// @Param grant_type formData string true "Grant type: authorization_code or client_credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.APIError
// @Router /oauth2/token [post]
func (o *OAuthServer) HandleToken(c *gin.Context) {
	body, apiErr := parseTokenRequest(c)
	if apiErr != nil {
		failTokenRequest(c, apiErr)
		return
	}

	switch body["grant_type"] {
	case GrantTypeAuthorizationCode:
		o.handleAuthorizationCode(c, body)
	case GrantTypeClientCredentials:
		o.handleClientCredentials(c, body)
	default:
		failTokenRequest(c, models.NewAPIError(models.ErrUnsupportedGrantType, "unsupported grant type"))
	}
}

// parseTokenRequest reads the request body as either
// application/x-www-form-urlencoded or application/json. Any other content
// type is a hard invalid_request error.
func parseTokenRequest(c *gin.Context) (map[string]string, *models.APIError) {
	contentType := c.GetHeader("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if contentType == "" || err != nil {
		return nil, models.NewAPIError(models.ErrInvalidRequest,
			"Content-Type must be application/x-www-form-urlencoded or application/json")
	}

	body := make(map[string]string)

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := c.Request.ParseForm(); err != nil {
			return nil, models.NewAPIError(models.ErrInvalidRequest, "malformed form body")
		}
		for key, values := range c.Request.PostForm {
			if len(values) > 0 {
				body[key] = values[0]
			}
		}
	case "application/json":
		var decoded map[string]any
		if err := json.NewDecoder(c.Request.Body).Decode(&decoded); err != nil {
			return nil, models.NewAPIError(models.ErrInvalidRequest, "malformed JSON body")
		}
		for key, value := range decoded {
			if s, ok := value.(string); ok {
				body[key] = s
			}
		}
	default:
		return nil, models.NewAPIError(models.ErrInvalidRequest,
			"Content-Type must be application/x-www-form-urlencoded or application/json")
	}

	return body, nil
}

// extractClientCredentials pulls client_id/client_secret from the
// Authorization: Basic header (base64 "id:secret") or, failing that, from
// the request body.
func extractClientCredentials(c *gin.Context, body map[string]string) (string, string, *models.APIError) {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Basic ") {
		encoded := strings.TrimPrefix(authHeader, "Basic ")
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return "", "", models.NewAPIError(models.ErrInvalidRequest,
				"Invalid client credentials format in Authorization header")
		}
		parts := strings.SplitN(string(decoded), ":", 2)
		if len(parts) != 2 {
			return "", "", models.NewAPIError(models.ErrInvalidRequest,
				"Invalid client credentials format in Authorization header")
		}
		return parts[0], parts[1], nil
	}

	return body["client_id"], body["client_secret"], nil
}

// respondToken writes a successful token response. Token responses must
// never be cached by intermediaries.
func respondToken(c *gin.Context, response gin.H) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(http.StatusOK, response)
}

func failTokenRequest(c *gin.Context, apiErr *models.APIError) {
	c.JSON(http.StatusBadRequest, apiErr)
}

func (o *OAuthServer) failInternal(c *gin.Context, err error, message string) {
	o.log.WithError(err).Error(message)
	c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, message))
}
