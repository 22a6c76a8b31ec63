package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/msanchezdev/taskhub-api/internal/models"
)

// TokenStore persists issued access token records.
type TokenStore struct {
	db *gorm.DB
}

func NewTokenStore(db *gorm.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Create persists a token record, assigning a fresh row id and timestamps.
func (s *TokenStore) Create(token *models.OAuthToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	now := time.Now()
	token.CreatedAt = now
	token.UpdatedAt = now
	return s.db.Create(token).Error
}

// GetByAccess looks up a token record by its access token value.
func (s *TokenStore) GetByAccess(accessToken string) (*models.OAuthToken, error) {
	var token models.OAuthToken
	if err := s.db.Where("access_token = ?", accessToken).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// GetByRefresh looks up a token record by its refresh token value.
func (s *TokenStore) GetByRefresh(refreshToken string) (*models.OAuthToken, error) {
	var token models.OAuthToken
	if err := s.db.Where("refresh_token = ?", refreshToken).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// RemoveByAccess deletes a token record by its access token value.
func (s *TokenStore) RemoveByAccess(accessToken string) error {
	return s.db.Where("access_token = ?", accessToken).Delete(&models.OAuthToken{}).Error
}
