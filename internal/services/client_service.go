package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/msanchezdev/taskhub-api/internal/models"
)

var ErrClientNotFound = errors.New("client_not_found")

// ClientService is the registry of OAuth2 client applications. Rows are
// owned by the user that registered them.
type ClientService interface {
	CreateClient(client *models.OAuthClient) error
	GetClientsByUserID(userID string) ([]models.OAuthClient, error)
	GetClientByClientID(clientID string) (*models.OAuthClient, error)
	GetOwnedClient(id, userID string) (*models.OAuthClient, error)
	UpdateClient(id, userID string, updates map[string]interface{}) error
	DeleteClient(id, userID string) error
}

type clientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) ClientService {
	return &clientService{db: db}
}

func (s *clientService) CreateClient(client *models.OAuthClient) error {
	return s.db.Create(client).Error
}

func (s *clientService) GetClientsByUserID(userID string) ([]models.OAuthClient, error) {
	var clients []models.OAuthClient
	if err := s.db.Where("user_id = ?", userID).Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *clientService) GetClientByClientID(clientID string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.Where("client_id = ?", clientID).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *clientService) GetOwnedClient(id, userID string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (s *clientService) UpdateClient(id, userID string, updates map[string]interface{}) error {
	result := s.db.Model(&models.OAuthClient{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (s *clientService) DeleteClient(id, userID string) error {
	result := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.OAuthClient{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrClientNotFound
	}
	return nil
}
