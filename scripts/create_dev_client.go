package main

import (
	"crypto/sha256"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type OAuthClient struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	ClientID     string `gorm:"uniqueIndex;not null"`
	ClientSecret *string
	RedirectURIs string
	Type         string `gorm:"default:'confidential'"`
	Disabled     bool
	UserID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (OAuthClient) TableName() string {
	return "oauth_clients"
}

type User struct {
	ID        string `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;not null"`
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func main() {
	// Parse command line flags
	clientType := flag.String("type", "confidential", "Client type (confidential or public)")
	policy := flag.String("policy", "plain", "Secret storage policy (plain or hashed), must match CLIENT_SECRET_POLICY")
	flag.Parse()

	db, err := gorm.Open(sqlite.Open("taskhub.sqlite"), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	clientID := "dev-client"
	clientSecret := "dev-secret-123"
	if *clientType == "public" {
		clientID = "dev-public-client"
		clientSecret = ""
	}

	// Check if client already exists
	var existing OAuthClient
	if err := db.Where("client_id = ?", clientID).First(&existing).Error; err == nil {
		fmt.Printf("Development client already exists for type '%s'!\n", *clientType)
		fmt.Printf("Client ID: %s\n", clientID)
		if clientSecret != "" {
			fmt.Printf("Client Secret: %s\n", clientSecret)
		}
		return
	}

	userID := getOrCreateDevUser(db)
	if userID == "" {
		log.Fatal("Failed to get development user")
	}

	client := OAuthClient{
		ID:           uuid.New().String(),
		Name:         fmt.Sprintf("Development %s Client", *clientType),
		ClientID:     clientID,
		RedirectURIs: "http://localhost:3000/callback",
		Type:         *clientType,
		UserID:       userID,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if clientSecret != "" {
		stored := clientSecret
		if *policy == "hashed" {
			sum := sha256.Sum256([]byte(clientSecret))
			stored = base64.RawURLEncoding.EncodeToString(sum[:])
		}
		client.ClientSecret = &stored
	}

	if err := db.Create(&client).Error; err != nil {
		log.Fatal("Failed to create client:", err)
	}

	fmt.Printf("✓ Development OAuth client created (type '%s')!\n", *clientType)
	fmt.Printf("Client ID: %s\n", clientID)
	if clientSecret != "" {
		fmt.Printf("Client Secret: %s\n", clientSecret)
	}
	fmt.Printf("User ID: %s\n", userID)
	fmt.Println("\nUse these credentials for testing:")
	fmt.Printf("curl -X POST http://localhost:8080/oauth2/token \\\n")
	fmt.Printf("  -d 'grant_type=client_credentials' \\\n")
	fmt.Printf("  -d 'client_id=%s' \\\n", clientID)
	if clientSecret != "" {
		fmt.Printf("  -d 'client_secret=%s'\n", clientSecret)
	}
}

// getOrCreateDevUser gets or creates the local development user
func getOrCreateDevUser(db *gorm.DB) string {
	var user User
	email := "dev@taskhub.local"

	// Try to find existing user
	if err := db.Where("email = ?", email).First(&user).Error; err == nil {
		fmt.Printf("Found existing user: %s (ID: %s)\n", user.Email, user.ID)
		return user.ID
	}

	// Create new user
	user = User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      "Development User",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := db.Create(&user).Error; err != nil {
		log.Printf("Failed to create user: %v", err)
		return ""
	}

	fmt.Printf("Created new user: %s (ID: %s)\n", user.Email, user.ID)
	return user.ID
}
