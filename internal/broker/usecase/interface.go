package usecase

import (
	"errors"
	"time"

	"outreach-backend/internal/broker/domain"
	"outreach-backend/pkg/search"
)

var (
	ErrBrokerNotFound = errors.New("broker not found")
	ErrInvalidEmail   = errors.New("invalid email address")
)

// BrokerUsecase is the broker registry.
type BrokerUsecase interface {
	// UpsertBroker creates or updates the broker keyed by license number.
	// A candidate email is attached as well.
	UpsertBroker(candidate *domain.BrokerCandidate, sourceListingID *string) (*domain.Broker, error)
	AttachEmail(brokerID, email string, sourceListingID *string) (*domain.BrokerEmail, error)

	GetBroker(id string) (*domain.Broker, error)
	FindByEmail(email string) (*domain.Broker, error)
	ListBrokers(limit, offset int) ([]*domain.Broker, int64, error)
	SearchBrokers(query string, limit int) ([]*domain.Broker, error)
	// ListForOutreach returns the brokers a pipeline run evaluates. A non-empty
	// brokerID restricts the run to that broker; otherwise brokers contacted at
	// or after contactedSince are left out.
	ListForOutreach(limit int, brokerID string, contactedSince time.Time) ([]*domain.Broker, error)
	ListWithEmails() ([]*domain.Broker, error)
	MarkGmailSynced(id string, at time.Time) error

	// ReindexSearch pushes every broker to the search index
	ReindexSearch() error
	SetSearchIndex(index SearchIndex)
}

// SearchIndex is the full-text broker index.
type SearchIndex interface {
	IndexBrokers(docs []search.BrokerDocument) error
	SearchBrokers(query string, limit int64) ([]string, error)
}
