package usecase

import (
	"context"
	"errors"
	"time"

	brokerdomain "outreach-backend/internal/broker/domain"
	"outreach-backend/internal/listing/domain"
	"outreach-backend/internal/listing/dto"
	"outreach-backend/pkg/imap"
)

var ErrListingNotFound = errors.New("listing not found")

// ListingUsecase is the listing store.
type ListingUsecase interface {
	// UpsertListing creates the listing or refreshes its mutable attributes
	UpsertListing(candidate *domain.ListingCandidate) (*domain.Listing, error)
	LinkBroker(brokerID, listingID string, role domain.Role) error
	ImportCandidates(candidates []domain.ListingCandidate) *dto.ImportResult
	// IngestAlerts reads unseen listing alert emails and stores their listings
	IngestAlerts(ctx context.Context, since time.Time) (*dto.ImportResult, error)

	GetListing(id string) (*domain.Listing, error)
	ListListings(status string, limit, offset int) ([]*domain.Listing, int64, error)
	GetListingsByIDs(ids []string) ([]*domain.Listing, error)
	GetBrokerListings(brokerID string) ([]*domain.BrokerListing, error)

	SetAlertFetcher(fetcher AlertFetcher)
}

// BrokerRegistry is the part of the broker registry the listing import needs.
type BrokerRegistry interface {
	UpsertBroker(candidate *brokerdomain.BrokerCandidate, sourceListingID *string) (*brokerdomain.Broker, error)
	FindByEmail(email string) (*brokerdomain.Broker, error)
}

// AlertFetcher reads listing alert emails.
type AlertFetcher interface {
	Configured() bool
	FetchUnseen(ctx context.Context, since time.Time) ([]imap.AlertEmail, error)
}
