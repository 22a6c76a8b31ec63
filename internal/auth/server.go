package auth

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/msanchezdev/taskhub-api/internal/config"
	"github.com/msanchezdev/taskhub-api/internal/services"
)

// OAuthServer wires the token endpoint to the stores, the secret verifier
// and the JWT issuer. One instance serves all requests; the stores are safe
// for concurrent readers and only the grant handlers mutate token rows.
type OAuthServer struct {
	db      *gorm.DB
	cfg     *config.Config
	issuer  *Issuer
	secrets *SecretVerifier
	codes   *CodeStore
	tokens  *TokenStore
	clients services.ClientService
	log     *logrus.Logger
}

func NewOAuthServer(db *gorm.DB, cfg *config.Config, issuer *Issuer) *OAuthServer {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	return &OAuthServer{
		db:      db,
		cfg:     cfg,
		issuer:  issuer,
		secrets: NewSecretVerifier(cfg),
		codes:   NewCodeStore(db),
		tokens:  NewTokenStore(db),
		clients: services.NewClientService(db),
		log:     log,
	}
}

// Secrets exposes the active secret verifier so client registration can
// store new secrets under the same policy the token endpoint verifies with.
func (o *OAuthServer) Secrets() *SecretVerifier {
	return o.secrets
}

// Codes exposes the authorization code store for the authorize endpoint.
func (o *OAuthServer) Codes() *CodeStore {
	return o.codes
}
