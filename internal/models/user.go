package models

import (
	"time"
)

// User mirrors the identity backend's user table. This service never
// creates users; sign-up and sign-in live in the identity backend.
type User struct {
	ID        string `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;not null"`
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
