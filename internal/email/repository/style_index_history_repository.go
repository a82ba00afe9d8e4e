package repository

import (
	"time"

	"outreach-backend/internal/email/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type styleIndexHistoryRepository struct {
	db *gorm.DB
}

func NewStyleIndexHistoryRepository(db *gorm.DB) StyleIndexHistoryRepository {
	return &styleIndexHistoryRepository{db: db}
}

// EnsureIndexed checks and records in one query
func (r *styleIndexHistoryRepository) EnsureIndexed(suggestedEmailID, template string) (bool, error) {
	var history domain.StyleIndexHistory
	now := time.Now()

	result := r.db.Where("suggested_email_id = ?", suggestedEmailID).FirstOrCreate(&history, domain.StyleIndexHistory{
		ID:               uuid.New().String(),
		SuggestedEmailID: suggestedEmailID,
		Template:         template,
		IndexedAt:        now,
		CreatedAt:        now,
	})
	if result.Error != nil {
		return false, result.Error
	}

	// a fresh row means it was not indexed before
	return result.RowsAffected == 0, nil
}

func (r *styleIndexHistoryRepository) Forget(suggestedEmailID string) error {
	return r.db.Where("suggested_email_id = ?", suggestedEmailID).Delete(&domain.StyleIndexHistory{}).Error
}

func (r *styleIndexHistoryRepository) ListIndexedIDs() ([]string, error) {
	var ids []string
	err := r.db.Model(&domain.StyleIndexHistory{}).Pluck("suggested_email_id", &ids).Error
	return ids, err
}
