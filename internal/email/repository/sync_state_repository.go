package repository

import (
	"errors"
	"time"

	"outreach-backend/internal/email/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type syncStateRepository struct {
	db *gorm.DB
}

func NewSyncStateRepository(db *gorm.DB) SyncStateRepository {
	return &syncStateRepository{db: db}
}

func (r *syncStateRepository) Get(accountEmail string) (*domain.GmailSyncState, error) {
	var state domain.GmailSyncState
	err := r.db.Where("account_email = ?", accountEmail).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (r *syncStateRepository) Ensure(accountEmail string) (*domain.GmailSyncState, error) {
	var state domain.GmailSyncState
	now := time.Now()
	err := r.db.Where("account_email = ?", accountEmail).FirstOrCreate(&state, domain.GmailSyncState{
		ID:           uuid.New().String(),
		AccountEmail: accountEmail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *syncStateRepository) AdvanceCursor(accountEmail string, expectedVersion int64, historyID uint64, at time.Time) error {
	result := r.db.Model(&domain.GmailSyncState{}).
		Where("account_email = ? AND version = ?", accountEmail, expectedVersion).
		Updates(map[string]interface{}{
			"last_history_id":          historyID,
			"last_incremental_sync_at": at,
			"version":                  gorm.Expr("version + 1"),
			"updated_at":               time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrSyncStateConflict
	}
	return nil
}

func (r *syncStateRepository) MarkFullSync(accountEmail string, at time.Time, seedHistoryID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var state domain.GmailSyncState
		if err := tx.Where("account_email = ?", accountEmail).First(&state).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"last_full_sync_at": at,
			"version":           gorm.Expr("version + 1"),
			"updated_at":        time.Now(),
		}
		if state.LastHistoryID == 0 && seedHistoryID > 0 {
			updates["last_history_id"] = seedHistoryID
		}
		return tx.Model(&domain.GmailSyncState{}).
			Where("id = ?", state.ID).
			Updates(updates).Error
	})
}
