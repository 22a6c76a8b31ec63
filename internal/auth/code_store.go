package auth

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/msanchezdev/taskhub-api/internal/models"
)

// ErrCodeConsumed is returned by Consume when the row was already deleted,
// i.e. a concurrent request redeemed the code first.
var ErrCodeConsumed = errors.New("authorization code already consumed")

// CodeStore manages short-lived, single-use authorization code records.
type CodeStore struct {
	db *gorm.DB
}

func NewCodeStore(db *gorm.DB) *CodeStore {
	return &CodeStore{db: db}
}

// Create persists a new authorization code record.
func (s *CodeStore) Create(code *models.OAuthCode) error {
	return s.db.Create(code).Error
}

// Get looks up a code record by its value. Returns gorm.ErrRecordNotFound
// for unknown codes.
func (s *CodeStore) Get(code string) (*models.OAuthCode, error) {
	var record models.OAuthCode
	if err := s.db.Where("code = ?", code).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Consume deletes the code row and reports whether this caller won the
// delete. The conditional delete is the commit point of redemption: of two
// concurrent requests presenting the same code, exactly one sees the row
// removed and may proceed to mint tokens; the other gets ErrCodeConsumed.
func (s *CodeStore) Consume(code string) error {
	result := s.db.Where("code = ?", code).Delete(&models.OAuthCode{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCodeConsumed
	}
	return nil
}

// DeleteExpired removes a code record detected to be past its expiry.
// Deleting an already-removed row is not an error.
func (s *CodeStore) DeleteExpired(code string) error {
	return s.db.Where("code = ?", code).Delete(&models.OAuthCode{}).Error
}

// IsExpired reports whether the record is past its expiry at the given time.
func IsExpired(record *models.OAuthCode, now time.Time) bool {
	return !now.Before(record.ExpiresAt)
}
