package repository

import (
	"errors"
	"time"

	"outreach-backend/internal/email/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type emailMessageRepository struct {
	db *gorm.DB
}

func NewEmailMessageRepository(db *gorm.DB) EmailMessageRepository {
	return &emailMessageRepository{db: db}
}

func (r *emailMessageRepository) Ingest(msg *domain.EmailMessage) (bool, error) {
	inserted := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if msg.ID == "" {
			msg.ID = uuid.New().String()
		}
		msg.CreatedAt = time.Now()

		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "gmail_message_id"}},
			DoNothing: true,
		}).Create(msg)
		if result.Error != nil {
			return result.Error
		}
		// already imported: the rollup has seen it
		if result.RowsAffected == 0 {
			return nil
		}
		inserted = true

		var thread domain.EmailThread
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("gmail_thread_id = ?", msg.GmailThreadID).
			First(&thread).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			thread = domain.EmailThread{
				ID:            uuid.New().String(),
				GmailThreadID: msg.GmailThreadID,
				Status:        domain.ThreadStatusActive,
			}
			thread.Apply(msg)
			return tx.Create(&thread).Error
		}

		thread.Apply(msg)
		return tx.Save(&thread).Error
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *emailMessageRepository) FindByGmailID(gmailMessageID string) (*domain.EmailMessage, error) {
	var msg domain.EmailMessage
	err := r.db.Where("gmail_message_id = ?", gmailMessageID).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *emailMessageRepository) LinkSuggestedEmail(gmailMessageID, suggestedEmailID string) error {
	return r.db.Model(&domain.EmailMessage{}).
		Where("gmail_message_id = ? AND suggested_email_id IS NULL", gmailMessageID).
		Update("suggested_email_id", suggestedEmailID).Error
}

func (r *emailMessageRepository) ListByBroker(brokerID string, limit int) ([]*domain.EmailMessage, error) {
	var messages []*domain.EmailMessage
	query := r.db.Where("broker_id = ?", brokerID).Order("sent_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&messages).Error
	return messages, err
}

func (r *emailMessageRepository) ListByThread(gmailThreadID string) ([]*domain.EmailMessage, error) {
	var messages []*domain.EmailMessage
	err := r.db.Where("gmail_thread_id = ?", gmailThreadID).Order("sent_at ASC").Find(&messages).Error
	return messages, err
}

func (r *emailMessageRepository) CountByBroker(brokerID string) (int64, int64, error) {
	type row struct {
		Direction domain.Direction
		Count     int64
	}
	var rows []row
	err := r.db.Model(&domain.EmailMessage{}).
		Select("direction, COUNT(*) AS count").
		Where("broker_id = ?", brokerID).
		Group("direction").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}

	var outbound, inbound int64
	for _, rc := range rows {
		switch rc.Direction {
		case domain.DirectionOutbound:
			outbound = rc.Count
		case domain.DirectionInbound:
			inbound = rc.Count
		}
	}
	return outbound, inbound, nil
}

func (r *emailMessageRepository) LastOutboundAt(brokerID string) (*time.Time, error) {
	var msg domain.EmailMessage
	err := r.db.Where("broker_id = ? AND direction = ?", brokerID, domain.DirectionOutbound).
		Order("sent_at DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg.SentAt, nil
}
