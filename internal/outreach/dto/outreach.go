package dto

import "outreach-backend/internal/outreach/domain"

// RunRequest starts a pipeline run. A zero Limit uses the configured batch size.
type RunRequest struct {
	Limit    int    `json:"limit" validate:"min=0"`
	BrokerID string `json:"broker_id"`
	DryRun   bool   `json:"dry_run"`
}

type EditRequest struct {
	Subject *string `json:"subject"`
	Body    *string `json:"body"`
}

type SkipRequest struct {
	Reason string `json:"reason"`
}

type QueueResponse struct {
	Emails []*domain.SuggestedEmail `json:"emails"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
	Total  int64                    `json:"total"`
}

type SuppressionsResponse struct {
	Suppressions []*domain.SuppressionLog `json:"suppressions"`
	Limit        int                      `json:"limit"`
	Offset       int                      `json:"offset"`
	Total        int64                    `json:"total"`
}

type SentLogsResponse struct {
	Logs   []*domain.SentEmailLog `json:"logs"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Total  int64                  `json:"total"`
}

// SendDueResult reports one pass of the send loop.
type SendDueResult struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}
