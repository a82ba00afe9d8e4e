package repository

import (
	"errors"
	"fmt"
	"time"

	"outreach-backend/internal/broker/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type brokerRepository struct {
	db *gorm.DB
}

func NewBrokerRepository(db *gorm.DB) BrokerRepository {
	return &brokerRepository{db: db}
}

func (r *brokerRepository) Create(broker *domain.Broker) error {
	if broker.ID == "" {
		broker.ID = uuid.New().String()
	}
	now := time.Now()
	broker.CreatedAt = now
	broker.UpdatedAt = now
	return r.db.Omit("Emails").Create(broker).Error
}

func (r *brokerRepository) Update(broker *domain.Broker) error {
	broker.UpdatedAt = time.Now()
	return r.db.Omit("Emails").Save(broker).Error
}

func (r *brokerRepository) FindByID(id string) (*domain.Broker, error) {
	var broker domain.Broker
	err := r.db.Preload("Emails").Where("id = ?", id).First(&broker).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &broker, nil
}

func (r *brokerRepository) FindByLicense(licenseNumber string) (*domain.Broker, error) {
	var broker domain.Broker
	err := r.db.Preload("Emails").Where("license_number = ?", licenseNumber).First(&broker).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &broker, nil
}

func (r *brokerRepository) FindByEmail(email string) (*domain.Broker, error) {
	var be domain.BrokerEmail
	err := r.db.Where("email = ?", email).First(&be).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.FindByID(be.BrokerID)
}

func (r *brokerRepository) FindByIDs(ids []string) ([]*domain.Broker, error) {
	var brokers []*domain.Broker
	if len(ids) == 0 {
		return brokers, nil
	}
	err := r.db.Preload("Emails").Where("id IN ?", ids).Find(&brokers).Error
	return brokers, err
}

func (r *brokerRepository) List(limit, offset int) ([]*domain.Broker, int64, error) {
	var brokers []*domain.Broker
	var total int64

	if err := r.db.Model(&domain.Broker{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Preload("Emails").Order("name ASC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&brokers).Error; err != nil {
		return nil, 0, err
	}
	return brokers, total, nil
}

func (r *brokerRepository) ListAll() ([]*domain.Broker, error) {
	var brokers []*domain.Broker
	err := r.db.Preload("Emails").Find(&brokers).Error
	return brokers, err
}

const (
	lastSuppressedSQL = "(SELECT MAX(s.created_at) FROM outreach_suppression_logs s WHERE s.broker_id = brokers.id)"
	lastDraftedSQL    = "(SELECT MAX(d.created_at) FROM suggested_emails d WHERE d.broker_id = brokers.id)"
	lastLinkedSQL     = "(SELECT MAX(bl.created_at) FROM broker_listings bl WHERE bl.broker_id = brokers.id)"
)

// lastEvaluatedSQL is the later of the newest suppression and the newest draft.
var lastEvaluatedSQL = fmt.Sprintf(
	"(CASE WHEN %[1]s IS NULL THEN %[2]s WHEN %[2]s IS NULL OR %[1]s > %[2]s THEN %[1]s ELSE %[2]s END)",
	lastSuppressedSQL, lastDraftedSQL,
)

func (r *brokerRepository) ListForOutreach(limit int, contactedSince time.Time) ([]*domain.Broker, error) {
	query := r.db.Model(&domain.Broker{}).
		Select("brokers.id").
		Where("EXISTS (SELECT 1 FROM broker_listings bl WHERE bl.broker_id = brokers.id)")

	if !contactedSince.IsZero() {
		since := contactedSince.UTC()
		query = query.
			Where("NOT EXISTS (SELECT 1 FROM sent_email_logs sl WHERE sl.broker_id = brokers.id AND sl.send_status = ? AND sl.sent_at >= ?)", "sent", since).
			Where("NOT EXISTS (SELECT 1 FROM email_messages m WHERE m.broker_id = brokers.id AND m.direction = ? AND m.sent_at >= ?)", "outbound", since)
	}

	// never evaluated first, then least recently evaluated, then newest link
	query = query.
		Order(lastEvaluatedSQL + " IS NULL DESC").
		Order(lastEvaluatedSQL + " ASC").
		Order(lastLinkedSQL + " DESC").
		Order("brokers.id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var ids []string
	if err := query.Pluck("brokers.id", &ids).Error; err != nil {
		return nil, err
	}

	brokers, err := r.FindByIDs(ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Broker, len(brokers))
	for _, b := range brokers {
		byID[b.ID] = b
	}
	ordered := make([]*domain.Broker, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			ordered = append(ordered, b)
		}
	}
	return ordered, nil
}

func (r *brokerRepository) ListWithEmails() ([]*domain.Broker, error) {
	var brokers []*domain.Broker
	err := r.db.Preload("Emails").
		Where("id IN (?)", r.db.Model(&domain.BrokerEmail{}).Select("broker_id")).
		Find(&brokers).Error
	return brokers, err
}

func (r *brokerRepository) MarkGmailSynced(id string, at time.Time) error {
	return r.db.Model(&domain.Broker{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"gmail_synced_at": at,
			"updated_at":      time.Now(),
		}).Error
}

func (r *brokerRepository) FindEmail(email string) (*domain.BrokerEmail, error) {
	var be domain.BrokerEmail
	err := r.db.Where("email = ?", email).First(&be).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &be, nil
}

func (r *brokerRepository) UpsertEmail(email *domain.BrokerEmail) error {
	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	now := time.Now()
	if email.FirstSeenAt.IsZero() {
		email.FirstSeenAt = now
	}
	email.LastSeenAt = now

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"broker_id", "is_primary", "source_listing_id", "last_seen_at"}),
	}).Create(email).Error
}

func (r *brokerRepository) CountEmails(brokerID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.BrokerEmail{}).Where("broker_id = ?", brokerID).Count(&count).Error
	return count, err
}
