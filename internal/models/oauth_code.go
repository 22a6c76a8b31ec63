package models

import (
	"strings"
	"time"
)

// PKCE code challenge methods.
const (
	CodeChallengePlain = "plain"
	CodeChallengeS256  = "S256"
)

// OAuthCode is a single-use verification record binding an authorization
// code to the client, user, redirect URI, scope and PKCE challenge it was
// issued for. Rows are deleted on redemption or expiry detection.
type OAuthCode struct {
	Code                string `gorm:"primaryKey"`
	ClientID            string `gorm:"not null"`
	UserID              string `gorm:"not null"`
	Scopes              string // space-separated
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string
	ExpiresAt           time.Time `gorm:"not null"`
	CreatedAt           time.Time
}

func (OAuthCode) TableName() string {
	return "oauth_codes"
}

// ScopeList splits the space-separated scope string.
func (c *OAuthCode) ScopeList() []string {
	return strings.Fields(c.Scopes)
}

// HasScope reports whether the code was issued with the given scope.
func (c *OAuthCode) HasScope(scope string) bool {
	for _, s := range c.ScopeList() {
		if s == scope {
			return true
		}
	}
	return false
}
