package repository

import (
	"errors"
	"time"

	"outreach-backend/internal/outreach/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sentEmailLogRepository struct {
	db *gorm.DB
}

func NewSentEmailLogRepository(db *gorm.DB) SentEmailLogRepository {
	return &sentEmailLogRepository{db: db}
}

func (r *sentEmailLogRepository) Create(log *domain.SentEmailLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.SentAt.IsZero() {
		log.SentAt = time.Now()
	}
	return r.db.Create(log).Error
}

func (r *sentEmailLogRepository) LastSentAt(brokerID string) (*time.Time, error) {
	var log domain.SentEmailLog
	err := r.db.Where("broker_id = ? AND send_status = ?", brokerID, domain.SendStatusSent).
		Order("sent_at DESC").
		First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log.SentAt, nil
}

func (r *sentEmailLogRepository) List(brokerID string, status *domain.SendStatus, limit, offset int) ([]*domain.SentEmailLog, int64, error) {
	var logs []*domain.SentEmailLog
	var total int64

	query := r.db.Model(&domain.SentEmailLog{})
	if brokerID != "" {
		query = query.Where("broker_id = ?", brokerID)
	}
	if status != nil {
		query = query.Where("send_status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("sent_at DESC").Limit(limit).Offset(offset).Find(&logs).Error
	return logs, total, err
}
