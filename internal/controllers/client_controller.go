package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/msanchezdev/taskhub-api/internal/auth"
	"github.com/msanchezdev/taskhub-api/internal/models"
	"github.com/msanchezdev/taskhub-api/internal/services"
)

type ClientController struct {
	clientService services.ClientService
	secrets       *auth.SecretVerifier
}

func NewClientController(clientService services.ClientService, secrets *auth.SecretVerifier) *ClientController {
	return &ClientController{
		clientService: clientService,
		secrets:       secrets,
	}
}

// CreateClient godoc
// @Summary Create OAuth2 client
// @Description Register a new OAuth2 client application owned by the authenticated user
// @Tags OAuth2 Clients
// @Accept json
// @Produce json
// @Param client body object{name=string,redirect_uris=[]string,type=string} true "Client details"
// @Success 201 {object} map[string]interface{} "Client created with client_id and one-time client_secret"
// @Failure 400 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/clients [post]
func (cc *ClientController) CreateClient(c *gin.Context) {
	var req struct {
		Name         string   `json:"name" binding:"required"`
		RedirectURIs []string `json:"redirect_uris"`
		Type         string   `json:"type"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, err.Error()))
		return
	}

	clientType := req.Type
	switch clientType {
	case "":
		clientType = models.ClientTypeConfidential
	case models.ClientTypePublic, models.ClientTypeConfidential:
	default:
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "type must be public or confidential"))
		return
	}

	client := &models.OAuthClient{
		ID:           uuid.New().String(),
		Name:         req.Name,
		ClientID:     uuid.New().String(),
		RedirectURIs: strings.Join(req.RedirectURIs, ","),
		Type:         clientType,
		UserID:       c.GetString("userID"),
	}

	// Public clients authenticate with PKCE, not a secret.
	var plainSecret string
	if clientType == models.ClientTypeConfidential {
		plainSecret = uuid.New().String()
		stored, err := cc.secrets.Store(plainSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "secret_generation_failed"))
			return
		}
		client.ClientSecret = &stored
	}

	if err := cc.clientService.CreateClient(client); err != nil {
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "client_creation_failed"))
		return
	}

	response := gin.H{
		"id":            client.ID,
		"client_id":     client.ClientID,
		"name":          client.Name,
		"type":          client.Type,
		"redirect_uris": client.RedirectURIList(),
	}
	if plainSecret != "" {
		// Returned exactly once; only the stored form survives.
		response["client_secret"] = plainSecret
	}

	c.JSON(http.StatusCreated, response)
}

// ListClients godoc
// @Summary List OAuth2 clients
// @Description Get all OAuth2 clients owned by the authenticated user
// @Tags OAuth2 Clients
// @Produce json
// @Success 200 {array} object "List of clients"
// @Security BearerAuth
// @Router /api/v1/clients [get]
func (cc *ClientController) ListClients(c *gin.Context) {
	userID := c.GetString("userID")
	clients, err := cc.clientService.GetClientsByUserID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "failed_to_retrieve_clients"))
		return
	}

	response := make([]gin.H, 0, len(clients))
	for _, client := range clients {
		response = append(response, clientView(&client))
	}
	c.JSON(http.StatusOK, response)
}

// GetClient godoc
// @Summary Get OAuth2 client
// @Description Get one OAuth2 client owned by the authenticated user
// @Produce json
// @Param id path string true "Client row ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/clients/{id} [get]
func (cc *ClientController) GetClient(c *gin.Context) {
	client, err := cc.clientService.GetOwnedClient(c.Param("id"), c.GetString("userID"))
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "client_not_found"))
			return
		}
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "failed_to_retrieve_client"))
		return
	}
	c.JSON(http.StatusOK, clientView(client))
}

// UpdateClient godoc
// @Summary Update OAuth2 client
// @Description Update name, redirect URIs or disabled flag of an owned client
// @Accept json
// @Produce json
// @Param id path string true "Client row ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/clients/{id} [patch]
func (cc *ClientController) UpdateClient(c *gin.Context) {
	var req struct {
		Name         *string   `json:"name"`
		RedirectURIs *[]string `json:"redirect_uris"`
		Disabled     *bool     `json:"disabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, err.Error()))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.RedirectURIs != nil {
		updates["redirect_uris"] = strings.Join(*req.RedirectURIs, ",")
	}
	if req.Disabled != nil {
		updates["disabled"] = *req.Disabled
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "no fields to update"))
		return
	}

	id, userID := c.Param("id"), c.GetString("userID")
	if err := cc.clientService.UpdateClient(id, userID, updates); err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "client_not_found"))
			return
		}
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "client_update_failed"))
		return
	}

	client, err := cc.clientService.GetOwnedClient(id, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "failed_to_retrieve_client"))
		return
	}
	c.JSON(http.StatusOK, clientView(client))
}

// DeleteClient godoc
// @Summary Delete OAuth2 client
// @Description Delete an OAuth2 client owned by the authenticated user
// @Param id path string true "Client row ID"
// @Success 204 "Client deleted successfully"
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/clients/{id} [delete]
func (cc *ClientController) DeleteClient(c *gin.Context) {
	if err := cc.clientService.DeleteClient(c.Param("id"), c.GetString("userID")); err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "client_not_found"))
			return
		}
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "client_delete_failed"))
		return
	}
	c.Status(http.StatusNoContent)
}

// clientView hides the stored secret; it is only ever shown at creation.
func clientView(client *models.OAuthClient) gin.H {
	return gin.H{
		"id":            client.ID,
		"client_id":     client.ClientID,
		"name":          client.Name,
		"type":          client.Type,
		"redirect_uris": client.RedirectURIList(),
		"disabled":      client.Disabled,
		"created_at":    client.CreatedAt,
		"updated_at":    client.UpdatedAt,
	}
}
