package repository

import (
	"errors"
	"time"

	"outreach-backend/internal/outreach/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type suggestedEmailRepository struct {
	db *gorm.DB
}

func NewSuggestedEmailRepository(db *gorm.DB) SuggestedEmailRepository {
	return &suggestedEmailRepository{db: db}
}

func (r *suggestedEmailRepository) Create(email *domain.SuggestedEmail) error {
	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	if email.Status == "" {
		email.Status = domain.StatusDraft
	}
	if email.NewListingIDs == nil {
		email.NewListingIDs = domain.StringArray{}
	}
	email.CreatedAt = time.Now()
	email.UpdatedAt = time.Now()
	return r.db.Create(email).Error
}

func (r *suggestedEmailRepository) FindByID(id string) (*domain.SuggestedEmail, error) {
	var email domain.SuggestedEmail
	err := r.db.Where("id = ?", id).First(&email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

func (r *suggestedEmailRepository) List(status *domain.SuggestedEmailStatus, brokerID string, limit, offset int) ([]*domain.SuggestedEmail, int64, error) {
	var emails []*domain.SuggestedEmail
	var total int64

	query := r.db.Model(&domain.SuggestedEmail{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if brokerID != "" {
		query = query.Where("broker_id = ?", brokerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&emails).Error
	return emails, total, err
}

func (r *suggestedEmailRepository) UpdateContent(id, subject, body string, statuses []domain.SuggestedEmailStatus) error {
	result := r.db.Model(&domain.SuggestedEmail{}).
		Where("id = ? AND status IN ?", id, statuses).
		Updates(map[string]interface{}{
			"subject":      subject,
			"body_content": body,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotEditable
	}
	return nil
}

func (r *suggestedEmailRepository) Transition(id string, from, to domain.SuggestedEmailStatus, extra map[string]interface{}) error {
	if !domain.CanTransition(from, to) {
		return domain.ErrInvalidTransition
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.Model(&domain.SuggestedEmail{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *suggestedEmailRepository) MarkSendFailed(id, lastError string) error {
	return r.db.Model(&domain.SuggestedEmail{}).
		Where("id = ? AND status = ?", id, domain.StatusApproved).
		Updates(map[string]interface{}{
			"send_status": domain.SendStatusFailed,
			"last_error":  lastError,
			"updated_at":  time.Now(),
		}).Error
}

func (r *suggestedEmailRepository) UsedListingIDs(brokerID string) (map[string]struct{}, error) {
	var rows []domain.StringArray
	err := r.db.Model(&domain.SuggestedEmail{}).
		Where("broker_id = ?", brokerID).
		Pluck("new_listing_ids", &rows).Error
	if err != nil {
		return nil, err
	}

	used := make(map[string]struct{})
	for _, ids := range rows {
		for _, id := range ids {
			used[id] = struct{}{}
		}
	}
	return used, nil
}

func (r *suggestedEmailRepository) HasPendingDraft(brokerID string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.SuggestedEmail{}).
		Where("broker_id = ? AND status = ?", brokerID, domain.StatusDraft).
		Count(&count).Error
	return count > 0, err
}

func (r *suggestedEmailRepository) ListDueForSend(limit int) ([]*domain.SuggestedEmail, error) {
	var emails []*domain.SuggestedEmail
	query := r.db.Where("status = ? AND (send_status IS NULL OR send_status <> ?)", domain.StatusApproved, domain.SendStatusFailed).
		Order("approved_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&emails).Error
	return emails, err
}
