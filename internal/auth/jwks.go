package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"gorm.io/gorm"

	"github.com/msanchezdev/taskhub-api/internal/models"
)

// PublicKeySet assembles the published JWK set from the signing key rows.
// Exactly the keys returned here can verify tokens minted by the Issuer.
func PublicKeySet(db *gorm.DB) (jwk.Set, error) {
	var records []models.SigningKey
	if err := db.Order("created_at").Find(&records).Error; err != nil {
		return nil, err
	}

	set := jwk.NewSet()
	for _, record := range records {
		key, err := jwk.ParseKey([]byte(record.PublicKey))
		if err != nil {
			return nil, err
		}
		if err := set.AddKey(key); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// HandleJWKS serves the public key set as a standard JWK set document.
// @Summary JSON Web Key Set
// @Description Public keys used to verify tokens issued by this server
// @Tags OAuth2
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /oauth2/jwks [get]
func (o *OAuthServer) HandleJWKS(c *gin.Context) {
	set, err := PublicKeySet(o.db)
	if err != nil {
		o.log.WithError(err).Error("Failed to load JWK set")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "failed to load key set"))
		return
	}
	c.JSON(http.StatusOK, set)
}
