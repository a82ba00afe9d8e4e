package repository

import (
	"time"

	"outreach-backend/internal/email/domain"
)

// EmailMessageRepository stores imported messages and keeps their thread rollups
type EmailMessageRepository interface {
	// Ingest inserts the message and folds it into its thread in one
	// transaction. A message ID that is already stored is a no-op and
	// returns inserted=false.
	Ingest(msg *domain.EmailMessage) (inserted bool, err error)
	FindByGmailID(gmailMessageID string) (*domain.EmailMessage, error)
	// LinkSuggestedEmail ties an already imported message to the draft that produced it
	LinkSuggestedEmail(gmailMessageID, suggestedEmailID string) error

	// ListByBroker returns the broker's messages, newest first
	ListByBroker(brokerID string, limit int) ([]*domain.EmailMessage, error)
	ListByThread(gmailThreadID string) ([]*domain.EmailMessage, error)
	CountByBroker(brokerID string) (outbound, inbound int64, err error)
	LastOutboundAt(brokerID string) (*time.Time, error)
}

// EmailThreadRepository reads thread rollups
type EmailThreadRepository interface {
	FindByID(id string) (*domain.EmailThread, error)
	FindByGmailID(gmailThreadID string) (*domain.EmailThread, error)
	// ListByBroker returns the broker's threads, most recent activity first
	ListByBroker(brokerID string) ([]*domain.EmailThread, error)
	List(status *domain.ThreadStatus, brokerID string, limit, offset int) ([]*domain.EmailThread, int64, error)
	UpdateStatus(id string, status domain.ThreadStatus) error
}
