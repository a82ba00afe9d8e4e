package repository

import (
	"time"

	"outreach-backend/internal/broker/domain"
)

// BrokerRepository defines the interface for broker and broker email persistence
type BrokerRepository interface {
	Create(broker *domain.Broker) error
	Update(broker *domain.Broker) error

	// FindByID returns the broker with its emails, or nil when absent
	FindByID(id string) (*domain.Broker, error)
	FindByLicense(licenseNumber string) (*domain.Broker, error)
	// FindByEmail resolves a contact address to the broker that owns it
	FindByEmail(email string) (*domain.Broker, error)
	FindByIDs(ids []string) ([]*domain.Broker, error)

	List(limit, offset int) ([]*domain.Broker, int64, error)
	ListAll() ([]*domain.Broker, error)
	// ListForOutreach returns brokers linked to at least one listing, least
	// recently evaluated first. A non-zero contactedSince leaves out brokers
	// mailed at or after it.
	ListForOutreach(limit int, contactedSince time.Time) ([]*domain.Broker, error)
	// ListWithEmails returns every broker that has a contact address
	ListWithEmails() ([]*domain.Broker, error)
	MarkGmailSynced(id string, at time.Time) error

	FindEmail(email string) (*domain.BrokerEmail, error)
	// UpsertEmail inserts the address or moves it to email.BrokerID
	UpsertEmail(email *domain.BrokerEmail) error
	CountEmails(brokerID string) (int64, error)
}
