package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// Verifier errors. All of these describe an expected "invalid token"
// condition; only JWKS fetch failures are infrastructure errors.
var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrInvalidIssuer   = errors.New("invalid issuer")
	ErrInvalidAudience = errors.New("invalid audience")
	ErrMissingClaim    = errors.New("token missing required claim")
	ErrJWKSFetch       = errors.New("failed to fetch JWKS")
)

// Verifier validates bearer JWTs against the published JWK set. It is a
// pure function of (token, public keys, expected issuer/audience); the JWK
// set is fetched once and cached with auto-refresh, safe for unbounded
// concurrent readers.
type Verifier struct {
	jwksURL  string
	issuer   string
	audience string
	cache    *jwk.Cache

	registerMu  sync.Mutex
	registered  bool
	registerErr error
}

// NewVerifier creates a verifier fetching keys from jwksURL. serverURL is
// the expected issuer and audience of every accepted token.
func NewVerifier(ctx context.Context, jwksURL, serverURL string) (*Verifier, error) {
	cache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS cache: %w", err)
	}

	return &Verifier{
		jwksURL:  jwksURL,
		issuer:   serverURL,
		audience: serverURL,
		cache:    cache,
	}, nil
}

// ensureRegistered registers the JWKS URL with the cache on first use so
// that constructing a Verifier never requires the endpoint to be up yet.
func (v *Verifier) ensureRegistered(ctx context.Context) error {
	v.registerMu.Lock()
	defer v.registerMu.Unlock()

	if v.registered {
		return v.registerErr
	}

	registerCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := v.cache.Register(registerCtx, v.jwksURL); err != nil {
		v.registerErr = fmt.Errorf("%w: %v", ErrJWKSFetch, err)
	}
	v.registered = true
	return v.registerErr
}

// keyForToken resolves the verification key for a parsed token header:
// ES256 only, kid must name a published key.
func (v *Verifier) keyForToken(ctx context.Context, token *jwt.Token) (interface{}, error) {
	if err := v.ensureRegistered(ctx); err != nil {
		return nil, err
	}

	if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok || token.Method.Alg() != jwt.SigningMethodES256.Alg() {
		return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, token.Header["alg"])
	}

	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: token header missing kid", ErrInvalidToken)
	}

	keySet, err := v.cache.Lookup(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetch, err)
	}

	key, found := keySet.LookupKeyID(kid)
	if !found {
		return nil, fmt.Errorf("%w: key %s not found in JWKS", ErrInvalidToken, kid)
	}

	var rawKey interface{}
	if err := jwk.Export(key, &rawKey); err != nil {
		return nil, fmt.Errorf("failed to export verification key: %w", err)
	}
	return rawKey, nil
}

// Verify validates the token's signature, algorithm, issuer, audience and
// required claims (sub, iat, exp). It returns the claims on success and a
// typed error otherwise; invalid tokens are an expected result, never a
// panic.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return v.keyForToken(ctx, token)
	})
	if err != nil {
		if errors.Is(err, ErrJWKSFetch) {
			return nil, err
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if err := v.validateClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (v *Verifier) validateClaims(claims jwt.MapClaims) error {
	issuer, err := claims.GetIssuer()
	if err != nil || strings.TrimSpace(issuer) != v.issuer {
		return ErrInvalidIssuer
	}

	audiences, err := claims.GetAudience()
	if err != nil {
		return ErrInvalidAudience
	}
	found := false
	for _, aud := range audiences {
		if aud == v.audience {
			found = true
			break
		}
	}
	if !found {
		return ErrInvalidAudience
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return fmt.Errorf("%w: iat", ErrMissingClaim)
	}

	expiration, err := claims.GetExpirationTime()
	if err != nil || expiration == nil {
		return fmt.Errorf("%w: exp", ErrMissingClaim)
	}
	if expiration.Before(time.Now()) {
		return ErrTokenExpired
	}

	return nil
}
