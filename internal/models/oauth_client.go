package models

import (
	"strings"
	"time"
)

// Client application types. Confidential clients must authenticate with a
// secret on every token request; public clients rely on PKCE instead.
const (
	ClientTypePublic       = "public"
	ClientTypeConfidential = "confidential"
)

type OAuthClient struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	ClientID     string `gorm:"uniqueIndex;not null"`
	ClientSecret *string
	RedirectURIs string // comma-separated, ordered
	Type         string `gorm:"default:'confidential'"`
	Disabled     bool
	UserID       string // owner
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (OAuthClient) TableName() string {
	return "oauth_clients"
}

// RedirectURIList splits the stored redirect URIs, preserving order.
func (c *OAuthClient) RedirectURIList() []string {
	if c.RedirectURIs == "" {
		return nil
	}
	uris := strings.Split(c.RedirectURIs, ",")
	for i := range uris {
		uris[i] = strings.TrimSpace(uris[i])
	}
	return uris
}

// IsPublic reports whether the client may omit a secret on token requests.
func (c *OAuthClient) IsPublic() bool {
	return c.Type == ClientTypePublic
}
