package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/msanchezdev/taskhub-api/internal/auth"
	"github.com/msanchezdev/taskhub-api/internal/authdb"
	"github.com/msanchezdev/taskhub-api/internal/config"
	"github.com/msanchezdev/taskhub-api/internal/controllers"
	"github.com/msanchezdev/taskhub-api/internal/database"
	"github.com/msanchezdev/taskhub-api/internal/middleware"
	"github.com/msanchezdev/taskhub-api/internal/models"
	"github.com/msanchezdev/taskhub-api/internal/services"
	"github.com/msanchezdev/taskhub-api/internal/session"
)

var (
	db               *gorm.DB
	configuration    *config.Config
	oauthServer      *auth.OAuthServer
	clientController *controllers.ClientController
	sessionDeps      session.Deps
)

func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()

	// Initialize database connection
	setupDatabase(configuration)

	// Provision the signing key and wire the OAuth2 core
	issuer := auth.NewIssuer(db, configuration)
	if _, err := issuer.EnsureSigningKey(); err != nil {
		panic(fmt.Errorf("failed to provision signing key: %w", err))
	}

	verifier, err := auth.NewVerifier(context.Background(), configuration.ServerURL+"/oauth2/jwks", configuration.ServerURL)
	checkPanicErr(err)

	oauthServer = auth.NewOAuthServer(db, configuration, issuer)

	sessionDeps = session.Deps{
		Backend:  session.NewIdentityClient(configuration.AuthBackendURL),
		Verifier: verifier,
		Issuer:   issuer,
		Log:      log.StandardLogger(),
	}

	// Initialize services and controllers
	clientService := services.NewClientService(db)
	clientController = controllers.NewClientController(clientService, oauthServer.Secrets())

	// Initialize Gin router
	var router *gin.Engine = setupRouter()

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	router.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase initializes the database connection and migrates the schema
func setupDatabase(conf *config.Config) *gorm.DB {
	var err error
	db, err = database.InitDatabase(database.DatabaseConfig{
		Driver:   conf.DatabaseDriver,
		URL:      conf.DatabaseURL,
		Host:     config.GetEnvWithDefault("DB_HOST", "localhost"),
		Port:     config.GetEnvWithDefault("DB_PORT", "5432"),
		User:     conf.DBUser,
		Password: conf.DBPassword,
		Name:     conf.DBName,
		SSLMode:  config.GetEnvWithDefault("DB_SSLMODE", "disable"),
		Path:     config.GetEnvWithDefault("DB_PATH", "taskhub.sqlite"),
	})
	checkPanicErr(err)

	err = db.AutoMigrate(
		&models.User{},
		&models.OAuthClient{},
		&models.OAuthCode{},
		&models.OAuthToken{},
		&models.SigningKey{},
	)
	checkPanicErr(err)

	return db
}

// setupRouter initializes the Gin router and sets up the routes
// It returns the configured router
func setupRouter() *gin.Engine {
	router := gin.Default()

	setupRoutes(router)

	return router
}

// setupRoutes defines the routes for the Gin router. Route classification
// (which credential strategy applies) is decided here, per group.
func setupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", healthCheckHandler)

	// OAuth2 endpoints
	oauth2 := router.Group("/oauth2")
	{
		oauth2.GET("/jwks", oauthServer.HandleJWKS)
		oauth2.POST("/token", oauthServer.HandleToken)
		oauth2.GET("/authorize",
			middleware.Authenticate(sessionDeps, session.StrategySession),
			oauthServer.HandleAuthorize)
	}

	v1 := router.Group("/api/v1")
	{
		// Client registry, for first-party API consumers with a bearer JWT
		clients := v1.Group("/clients")
		clients.Use(middleware.Authenticate(sessionDeps, session.StrategyBearer))
		{
			clients.POST("", clientController.CreateClient)
			clients.GET("", clientController.ListClients)
			clients.GET("/:id", clientController.GetClient)
			clients.PATCH("/:id", clientController.UpdateClient)
			clients.DELETE("/:id", clientController.DeleteClient)
		}

		// Machine access via API key
		ext := v1.Group("/ext")
		ext.Use(middleware.Authenticate(sessionDeps, session.StrategyAPIKey))
		{
			ext.GET("/me", meHandler)
		}
	}
}

// meHandler returns the authenticated user's profile through the
// credential-scoped data access gate, so the lookup is subject to the
// store's row-level checks.
func meHandler(c *gin.Context) {
	sc := middleware.SessionContext(c)
	if sc == nil {
		c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "no session context"))
		return
	}

	gate := authdb.NewGate(db, authdb.CredentialFunc(sc.Credential(session.StrategyAPIKey)))

	var user *models.User
	err := gate.Query(c.Request.Context(), func(tx *gorm.DB) error {
		var err error
		user, err = services.NewUserService(tx).GetUserByID(c.GetString("userID"))
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "user not found"))
			return
		}
		log.WithError(err).Error("Failed to load user profile")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "failed to load user"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	})
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "taskhub-api",
	})
}
