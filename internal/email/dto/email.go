package dto

import (
	"time"

	emaildomain "outreach-backend/internal/email/domain"
)

type ThreadsResponse struct {
	Threads []*emaildomain.EmailThread `json:"threads"`
	Limit   int                        `json:"limit"`
	Offset  int                        `json:"offset"`
	Total   int64                      `json:"total"`
}

type ThreadDetailResponse struct {
	Thread   *emaildomain.EmailThread    `json:"thread"`
	Messages []*emaildomain.EmailMessage `json:"messages"`
}

// SyncResult reports one bootstrap or incremental sync pass.
type SyncResult struct {
	Mode           string                      `json:"mode"`
	Fetched        int                         `json:"fetched"`
	Imported       int                         `json:"imported"`
	Duplicates     int                         `json:"duplicates"`
	Failed         int                         `json:"failed"`
	BrokersSynced  int                         `json:"brokers_synced,omitempty"`
	HistoryID      uint64                      `json:"history_id"`
	CursorAdvanced bool                        `json:"cursor_advanced"`
	Replies        []*emaildomain.EmailMessage `json:"replies,omitempty"`
	StartedAt      time.Time                   `json:"started_at"`
	FinishedAt     time.Time                   `json:"finished_at"`
}

type WatchResponse struct {
	HistoryID  uint64    `json:"history_id"`
	Expiration time.Time `json:"expiration"`
}
