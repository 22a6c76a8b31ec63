package models

import (
	"time"
)

// SigningKey is a JWKS key pair row. PublicKey is a JWK JSON document as
// published at the JWKS endpoint; PrivateKey is a JWK JSON document
// symmetrically encrypted under the server secret. The row id doubles as
// the kid in minted JWT headers.
type SigningKey struct {
	ID         string `gorm:"primaryKey"`
	PublicKey  string `gorm:"not null"`
	PrivateKey string `gorm:"not null"`
	CreatedAt  time.Time
}

func (SigningKey) TableName() string {
	return "signing_keys"
}
