package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// JWTHeader is the response header under which the identity backend
// delivers a bearer-usable JWT alongside the session payload.
const JWTHeader = "set-auth-jwt"

// IdentityClient talks to the external identity backend that owns sign-in,
// browser sessions and API keys. This service treats it as an opaque
// dependency: forward the caller's headers, get back either a 200 with a
// session/user payload plus a JWT header, or a non-200 on failure.
type IdentityClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewIdentityClient(baseURL string) *IdentityClient {
	return &IdentityClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// sessionPayload is the backend's get-session response body.
type sessionPayload struct {
	Session struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	} `json:"session"`
	User User `json:"user"`
}

// backendResponse carries everything a strategy needs to judge the
// backend's answer: status, parsed payload (nil unless 200 with a body)
// and the JWT header value.
type backendResponse struct {
	status  int
	payload *sessionPayload
	jwt     string
}

// GetSession forwards the caller's request headers (cookies, x-api-key) to
// the backend's session endpoint. A non-200 status is not an error here;
// the strategies decide what it means.
func (c *IdentityClient) GetSession(ctx context.Context, headers http.Header) (*backendResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/get-session", nil)
	if err != nil {
		return nil, err
	}
	req.Header = headers.Clone()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	result := &backendResponse{
		status: resp.StatusCode,
		jwt:    resp.Header.Get(JWTHeader),
	}

	if resp.StatusCode != http.StatusOK {
		return result, nil
	}

	var payload sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		// A 200 with an unreadable body is treated as no session.
		return result, nil
	}
	result.payload = &payload
	return result, nil
}
