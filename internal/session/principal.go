// Package session implements the per-request credential validation layer.
// Route middleware classifies each request as one of four strategies
// (session cookie, bearer JWT, API key, none) and a request-scoped Context
// resolves the principal for that strategy exactly once.
package session

import (
	"time"
)

// Strategy selects how a route authenticates. The set is compile-time
// known; route metadata picks one per route group.
type Strategy string

const (
	StrategyNone    Strategy = "none"
	StrategySession Strategy = "session"
	StrategyBearer  Strategy = "bearer"
	StrategyAPIKey  Strategy = "apiKey"
)

// Principal is the minimal authenticated identity every protected
// operation needs: the user and a bearer-usable credential.
type Principal struct {
	UserID string
	JWT    string
}

// Session is the validated session produced by the session-cookie and
// API-key strategies. It lives for the current request only and is never
// shared across requests.
type Session struct {
	User      User
	ExpiresAt time.Time
	Token     string
	JWT       string
}

// Principal reduces a session to the identity protected handlers consume.
func (s *Session) Principal() *Principal {
	return &Principal{UserID: s.User.ID, JWT: s.JWT}
}

// User is the identity backend's view of a user.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// InvalidCredentialError is the unified failure type for all three
// validation strategies. The message distinguishes the failure mode
// (header missing, malformed, invalid token, missing claim) without
// leaking anything a caller should not see.
type InvalidCredentialError struct {
	Message string
}

func (e *InvalidCredentialError) Error() string {
	return e.Message
}

func invalidCredential(message string) *InvalidCredentialError {
	return &InvalidCredentialError{Message: message}
}
