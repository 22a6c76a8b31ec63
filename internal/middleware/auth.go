package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/msanchezdev/taskhub-api/internal/models"
	"github.com/msanchezdev/taskhub-api/internal/session"
)

// ContextKey is the gin context key under which the request's session
// validation context is stored for handlers.
const ContextKey = "sessionContext"

// SignInPath is where browser flows are sent when their session is invalid.
const SignInPath = "/sign-in"

// authCookiePattern matches every cookie this application's identity
// backend may have set.
var authCookiePattern = regexp.MustCompile(`^(__Secure-)?taskhub-auth.*$`)

// Authenticate classifies the route with the given strategy and fails the
// request closed when no principal can be established. Browser (session)
// routes clear auth cookies and redirect to sign-in with a flash message;
// API routes (bearer, apiKey) answer 401 JSON.
func Authenticate(deps session.Deps, strategy session.Strategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strategy == session.StrategyNone {
			c.Next()
			return
		}

		sc := session.NewContext(deps, c.Request)
		c.Set(ContextKey, sc)

		principal, err := sc.Principal(c.Request.Context(), strategy)
		if err != nil {
			var invalid *session.InvalidCredentialError
			if errors.As(err, &invalid) {
				if strategy == session.StrategySession {
					clearAuthCookies(c)
					sendFlashMessage(c, "Unauthorized", invalid.Message+" Please log in again.")
					c.Redirect(http.StatusSeeOther, SignInPath)
					c.Abort()
					return
				}
				c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, invalid.Message))
				return
			}
			deps.Log.WithError(err).Error("Credential validation failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "credential validation failed"))
			return
		}

		c.Set("userID", principal.UserID)
		c.Next()
	}
}

// SessionContext retrieves the request's validation context placed by
// Authenticate.
func SessionContext(c *gin.Context) *session.Context {
	value, exists := c.Get(ContextKey)
	if !exists {
		return nil
	}
	sc, ok := value.(*session.Context)
	if !ok {
		return nil
	}
	return sc
}

// clearAuthCookies expires every recognized auth cookie on the response so
// a broken session cannot loop the user through repeated failures.
func clearAuthCookies(c *gin.Context) {
	for _, cookie := range c.Request.Cookies() {
		if authCookiePattern.MatchString(cookie.Name) {
			c.SetCookie(cookie.Name, "", -1, "/", "", false, true)
		}
	}
}

// sendFlashMessage stores a transient notification for the next page load.
func sendFlashMessage(c *gin.Context, title, description string) {
	payload, err := json.Marshal(gin.H{"title": title, "description": description})
	if err != nil {
		return
	}
	c.SetCookie("taskhub-flash", url.QueryEscape(string(payload)), 10, "/", "", false, false)
}
