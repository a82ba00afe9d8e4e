package repository

import (
	"time"

	"outreach-backend/internal/outreach/domain"
)

// SuggestedEmailRepository stores outreach drafts and their lifecycle
type SuggestedEmailRepository interface {
	Create(email *domain.SuggestedEmail) error
	FindByID(id string) (*domain.SuggestedEmail, error)
	List(status *domain.SuggestedEmailStatus, brokerID string, limit, offset int) ([]*domain.SuggestedEmail, int64, error)

	// UpdateContent rewrites subject and body while the row is still in one of statuses
	UpdateContent(id, subject, body string, statuses []domain.SuggestedEmailStatus) error
	// Transition moves the row from -> to in one conditional write and
	// applies extra column updates with it. It returns
	// domain.ErrInvalidTransition when the row is no longer in from.
	Transition(id string, from, to domain.SuggestedEmailStatus, extra map[string]interface{}) error
	// MarkSendFailed records a failed delivery without leaving approved
	MarkSendFailed(id, lastError string) error

	// UsedListingIDs is the union of new_listing_ids over every row of the
	// broker, whatever its status
	UsedListingIDs(brokerID string) (map[string]struct{}, error)
	HasPendingDraft(brokerID string) (bool, error)
	// ListDueForSend returns approved rows whose last delivery did not fail, oldest approval first
	ListDueForSend(limit int) ([]*domain.SuggestedEmail, error)
}

// SentEmailLogRepository is the append-only delivery log
type SentEmailLogRepository interface {
	Create(log *domain.SentEmailLog) error
	// LastSentAt is the latest successful delivery to the broker
	LastSentAt(brokerID string) (*time.Time, error)
	List(brokerID string, status *domain.SendStatus, limit, offset int) ([]*domain.SentEmailLog, int64, error)
}

// SuppressionRepository is the append-only suppression audit log
type SuppressionRepository interface {
	Create(entry *domain.SuppressionLog) error
	List(brokerID, reason string, limit, offset int) ([]*domain.SuppressionLog, int64, error)
}
