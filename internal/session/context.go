package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/msanchezdev/taskhub-api/internal/auth"
)

// Deps are the collaborators shared by every request's validation context.
// They are read-only after startup and safe for concurrent use.
type Deps struct {
	Backend  *IdentityClient
	Verifier *auth.Verifier
	Issuer   *auth.Issuer
	Log      *logrus.Logger
}

// Context is the request-scoped credential validator. Each strategy's
// result is computed on first access and memoized for the remaining
// lifetime of the request, so repeat calls are idempotent and hit the
// identity backend at most once. A Context must never outlive its request
// or be shared between requests.
type Context struct {
	deps Deps
	req  *http.Request

	session *Session
	bearer  *Principal
	apiKey  *Session
}

func NewContext(deps Deps, req *http.Request) *Context {
	return &Context{deps: deps, req: req}
}

// Principal resolves the identity for the given route strategy. Exactly
// one strategy runs per request; StrategyNone yields no principal and no
// error.
func (sc *Context) Principal(ctx context.Context, strategy Strategy) (*Principal, error) {
	switch strategy {
	case StrategySession:
		session, err := sc.ValidateSession(ctx)
		if err != nil {
			return nil, err
		}
		return session.Principal(), nil
	case StrategyBearer:
		return sc.ValidateBearerToken(ctx)
	case StrategyAPIKey:
		session, err := sc.ValidateAPIKey(ctx)
		if err != nil {
			return nil, err
		}
		return session.Principal(), nil
	case StrategyNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown authentication strategy: %s", strategy)
	}
}

// ValidateSession validates the caller's browser session by forwarding
// cookies to the identity backend. The backend must answer 200 with both a
// session/user payload and a JWT header; anything else is an invalid
// session.
func (sc *Context) ValidateSession(ctx context.Context) (*Session, error) {
	if sc.session != nil {
		return sc.session, nil
	}

	resp, err := sc.deps.Backend.GetSession(ctx, sc.req.Header)
	if err != nil {
		return nil, err
	}

	if resp.status != http.StatusOK {
		return nil, invalidCredential(fmt.Sprintf("Session validation failed (%d)", resp.status))
	}
	if resp.payload == nil || resp.payload.User.ID == "" || resp.jwt == "" {
		return nil, invalidCredential("Invalid session")
	}

	sc.session = &Session{
		User:      resp.payload.User,
		ExpiresAt: resp.payload.Session.ExpiresAt,
		Token:     resp.payload.Session.Token,
		JWT:       resp.jwt,
	}
	return sc.session, nil
}

// ValidateBearerToken validates an Authorization: Bearer JWT against the
// published key set. The sub claim becomes the principal's user id.
func (sc *Context) ValidateBearerToken(ctx context.Context) (*Principal, error) {
	if sc.bearer != nil {
		return sc.bearer, nil
	}

	authHeader := sc.req.Header.Get("Authorization")
	if authHeader == "" {
		return nil, invalidCredential("Authorization header missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, invalidCredential("Invalid Authorization header format")
	}
	token := parts[1]
	if strings.Count(token, ".") != 2 {
		return nil, invalidCredential("Invalid Authorization header format")
	}

	claims, err := sc.deps.Verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrJWKSFetch) {
			// Infrastructure failure, not a bad credential.
			return nil, err
		}
		if errors.Is(err, auth.ErrMissingClaim) {
			return nil, invalidCredential("Invalid token payload")
		}
		return nil, invalidCredential("Invalid or expired token")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, invalidCredential("Invalid token payload")
	}

	sc.bearer = &Principal{UserID: subject, JWT: token}
	return sc.bearer, nil
}

// ValidateAPIKey validates requests carrying an x-api-key header. The key
// value itself is checked by the identity backend; on success a fresh JWT
// is minted for the resolved user so downstream data access can carry a
// bearer credential.
func (sc *Context) ValidateAPIKey(ctx context.Context) (*Session, error) {
	if sc.apiKey != nil {
		return sc.apiKey, nil
	}

	if sc.req.Header.Get("x-api-key") == "" {
		return nil, invalidCredential("API key missing")
	}

	resp, err := sc.deps.Backend.GetSession(ctx, sc.req.Header)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK || resp.payload == nil || resp.payload.User.ID == "" {
		return nil, invalidCredential("Invalid API key")
	}

	jwt, err := sc.deps.Issuer.Sign(resp.payload.User.ID, time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to mint JWT for API key session: %w", err)
	}

	sc.apiKey = &Session{
		User:      resp.payload.User,
		ExpiresAt: resp.payload.Session.ExpiresAt,
		Token:     resp.payload.Session.Token,
		JWT:       jwt,
	}
	return sc.apiKey, nil
}

// Credential returns a function yielding the current principal's JWT for
// the given strategy. The authenticated data access gate calls it on every
// query so a long-lived handle always reflects this request's principal.
func (sc *Context) Credential(strategy Strategy) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		principal, err := sc.Principal(ctx, strategy)
		if err != nil {
			return "", err
		}
		if principal == nil {
			return "", invalidCredential("No principal for unauthenticated route")
		}
		return principal.JWT, nil
	}
}
