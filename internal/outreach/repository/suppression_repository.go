package repository

import (
	"time"

	"outreach-backend/internal/outreach/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type suppressionRepository struct {
	db *gorm.DB
}

func NewSuppressionRepository(db *gorm.DB) SuppressionRepository {
	return &suppressionRepository{db: db}
}

func (r *suppressionRepository) Create(entry *domain.SuppressionLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now()
	return r.db.Create(entry).Error
}

func (r *suppressionRepository) List(brokerID, reason string, limit, offset int) ([]*domain.SuppressionLog, int64, error) {
	var entries []*domain.SuppressionLog
	var total int64

	query := r.db.Model(&domain.SuppressionLog{})
	if brokerID != "" {
		query = query.Where("broker_id = ?", brokerID)
	}
	if reason != "" {
		query = query.Where("reason = ?", reason)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entries).Error
	return entries, total, err
}
