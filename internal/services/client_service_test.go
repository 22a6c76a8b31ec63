package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/msanchezdev/taskhub-api/internal/models"
)

// GetClientByClientID is the lookup the token and authorize endpoints use,
// keyed by the public client_id rather than the row id.
func TestGetClientByClientID(t *testing.T) {
	db := setupTestDB(t)
	service := NewClientService(db)

	client := &models.OAuthClient{
		ID:       uuid.NewString(),
		Name:     "Test App",
		ClientID: "client-abc",
		UserID:   "user-1",
	}
	require.NoError(t, service.CreateClient(client))

	found, err := service.GetClientByClientID("client-abc")
	require.NoError(t, err)
	assert.Equal(t, client.ID, found.ID)
	assert.Equal(t, "Test App", found.Name)

	_, err = service.GetClientByClientID("unknown")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
