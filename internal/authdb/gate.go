// Package authdb wraps the relational store with the validated principal's
// credential so row-level authorization is enforced by the store itself.
package authdb

import (
	"context"

	"gorm.io/gorm"
)

// CredentialKey is the gorm instance setting under which the per-request
// JWT travels on dialects without row-level security support.
const CredentialKey = "taskhub:auth_jwt"

// CredentialFunc yields the current request's JWT. The gate calls it on
// every query rather than caching the token, so a single long-lived Gate
// always reflects the current principal.
type CredentialFunc func(ctx context.Context) (string, error)

// Gate is a data-access handle that attaches the request's JWT to every
// query as ambient authorization context. On Postgres the token is exposed
// to row-level security policies via a transaction-local setting.
type Gate struct {
	db         *gorm.DB
	credential CredentialFunc
}

func NewGate(db *gorm.DB, credential CredentialFunc) *Gate {
	return &Gate{db: db, credential: credential}
}

// Query runs fn with a credential-scoped handle. The JWT is re-fetched on
// every call; failing to resolve it fails the query closed.
func (g *Gate) Query(ctx context.Context, fn func(tx *gorm.DB) error) error {
	token, err := g.credential(ctx)
	if err != nil {
		return err
	}

	tx := g.db.WithContext(ctx).Set(CredentialKey, token)

	if tx.Dialector.Name() == "postgres" {
		return tx.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec("SELECT set_config('request.jwt', ?, true)", token).Error; err != nil {
				return err
			}
			return fn(tx)
		})
	}

	return fn(tx)
}

// Admin is the unauthenticated handle used only by trusted server-side
// code paths that intentionally bypass row-level checks (migrations, key
// provisioning, grant handlers). Keep it distinct from Gate so a handler
// cannot reach it by accident.
type Admin struct {
	db *gorm.DB
}

func NewAdmin(db *gorm.DB) *Admin {
	return &Admin{db: db}
}

// DB returns the raw handle.
func (a *Admin) DB() *gorm.DB {
	return a.db
}
