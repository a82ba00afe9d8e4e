package repository

import (
	"time"

	"outreach-backend/internal/email/domain"
)

// SyncStateRepository keeps the per-mailbox sync checkpoint
type SyncStateRepository interface {
	Get(accountEmail string) (*domain.GmailSyncState, error)
	// Ensure returns the account's row, creating an empty one when missing
	Ensure(accountEmail string) (*domain.GmailSyncState, error)
	// AdvanceCursor moves the history cursor forward only if the row is still
	// at expectedVersion; otherwise it returns domain.ErrSyncStateConflict
	AdvanceCursor(accountEmail string, expectedVersion int64, historyID uint64, at time.Time) error
	// MarkFullSync stamps a finished bootstrap and seeds the cursor when it is unset
	MarkFullSync(accountEmail string, at time.Time, seedHistoryID uint64) error
}

// StyleIndexHistoryRepository tracks which sent emails are in the style index
type StyleIndexHistoryRepository interface {
	// EnsureIndexed records the email, returning true if it was already recorded
	EnsureIndexed(suggestedEmailID, template string) (bool, error)
	Forget(suggestedEmailID string) error
	ListIndexedIDs() ([]string, error)
}
