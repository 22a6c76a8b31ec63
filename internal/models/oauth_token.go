package models

import (
	"time"
)

type OAuthToken struct {
	ID                    string  `gorm:"primaryKey"`
	ClientID              string  `gorm:"not null"`
	UserID                *string // nil for client_credentials grants without an associated user
	AccessToken           string  `gorm:"uniqueIndex;not null"`
	RefreshToken          *string `gorm:"uniqueIndex"`
	Scopes                string
	AccessTokenExpiresAt  time.Time `gorm:"not null"`
	RefreshTokenExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (OAuthToken) TableName() string {
	return "oauth_tokens"
}
