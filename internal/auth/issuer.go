package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"gorm.io/gorm"

	"github.com/msanchezdev/taskhub-api/internal/config"
	"github.com/msanchezdev/taskhub-api/internal/crypto"
	"github.com/msanchezdev/taskhub-api/internal/models"
)

// Issuer mints ES256-signed JWTs for authenticated users. The signing key
// pair lives in the signing_keys table: the public half is published at the
// JWKS endpoint, the private half is symmetrically encrypted under the
// server secret and decrypted just-in-time for each mint.
type Issuer struct {
	db           *gorm.DB
	serverURL    string
	serverSecret string
}

func NewIssuer(db *gorm.DB, cfg *config.Config) *Issuer {
	return &Issuer{
		db:           db,
		serverURL:    cfg.ServerURL,
		serverSecret: cfg.ServerSecret,
	}
}

// EnsureSigningKey provisions a P-256 key pair on first boot. Subsequent
// calls return the existing active key row.
func (i *Issuer) EnsureSigningKey() (*models.SigningKey, error) {
	var existing models.SigningKey
	err := i.db.Order("created_at").First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}

	keyID := uuid.New().String()

	privateJWK, err := jwk.Import(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to import private key: %w", err)
	}
	if err := privateJWK.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, err
	}

	publicJWK, err := jwk.PublicKeyOf(privateJWK)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}

	privateJSON, err := json.Marshal(privateJWK)
	if err != nil {
		return nil, err
	}
	publicJSON, err := json.Marshal(publicJWK)
	if err != nil {
		return nil, err
	}

	encryptedPrivate, err := crypto.EncryptString(i.serverSecret, string(privateJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt private key: %w", err)
	}

	record := &models.SigningKey{
		ID:         keyID,
		PublicKey:  string(publicJSON),
		PrivateKey: encryptedPrivate,
		CreatedAt:  time.Now(),
	}
	if err := i.db.Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// activeKey loads the oldest signing key row and decrypts its private half.
func (i *Issuer) activeKey() (string, *ecdsa.PrivateKey, error) {
	var record models.SigningKey
	if err := i.db.Order("created_at").First(&record).Error; err != nil {
		return "", nil, fmt.Errorf("signing key not found: %w", err)
	}

	decrypted, err := crypto.DecryptString(i.serverSecret, record.PrivateKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decrypt private key: %w", err)
	}

	parsed, err := jwk.ParseKey([]byte(decrypted))
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	var privateKey ecdsa.PrivateKey
	if err := jwk.Export(parsed, &privateKey); err != nil {
		return "", nil, fmt.Errorf("failed to export private key: %w", err)
	}

	return record.ID, &privateKey, nil
}

// Sign mints a JWT for the given subject. Issuer and audience are the
// server's canonical URL; jti is fresh per mint.
func (i *Issuer) Sign(userID string, ttl time.Duration) (string, error) {
	keyID, privateKey, err := i.activeKey()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": i.serverURL,
		"aud": i.serverURL,
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"jti": randomToken(32),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = keyID

	signed, err := token.SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
