package dto

import "outreach-backend/internal/listing/domain"

// ImportRequest is a batch from the enrichment feed
type ImportRequest struct {
	Listings []domain.ListingCandidate `json:"listings" binding:"required"`
}

// ImportResult counts what a batch changed. Failed rows are reported in
// Errors and do not stop the batch.
type ImportResult struct {
	Listings int      `json:"listings"`
	Brokers  int      `json:"brokers"`
	Links    int      `json:"links"`
	Alerts   int      `json:"alerts,omitempty"`
	Errors   []string `json:"errors"`
}
