package repository

import (
	"errors"
	"time"

	"outreach-backend/internal/email/domain"

	"gorm.io/gorm"
)

type emailThreadRepository struct {
	db *gorm.DB
}

func NewEmailThreadRepository(db *gorm.DB) EmailThreadRepository {
	return &emailThreadRepository{db: db}
}

func (r *emailThreadRepository) FindByID(id string) (*domain.EmailThread, error) {
	var thread domain.EmailThread
	err := r.db.Where("id = ?", id).First(&thread).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

func (r *emailThreadRepository) FindByGmailID(gmailThreadID string) (*domain.EmailThread, error) {
	var thread domain.EmailThread
	err := r.db.Where("gmail_thread_id = ?", gmailThreadID).First(&thread).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

func (r *emailThreadRepository) ListByBroker(brokerID string) ([]*domain.EmailThread, error) {
	var threads []*domain.EmailThread
	err := r.db.Where("broker_id = ?", brokerID).
		Order("last_message_at DESC").
		Find(&threads).Error
	return threads, err
}

func (r *emailThreadRepository) List(status *domain.ThreadStatus, brokerID string, limit, offset int) ([]*domain.EmailThread, int64, error) {
	var threads []*domain.EmailThread
	var total int64

	query := r.db.Model(&domain.EmailThread{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if brokerID != "" {
		query = query.Where("broker_id = ?", brokerID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("last_message_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&threads).Error; err != nil {
		return nil, 0, err
	}
	return threads, total, nil
}

func (r *emailThreadRepository) UpdateStatus(id string, status domain.ThreadStatus) error {
	return r.db.Model(&domain.EmailThread{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}
