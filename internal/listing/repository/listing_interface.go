package repository

import "outreach-backend/internal/listing/domain"

// ListingRepository defines the interface for listing and broker link persistence
type ListingRepository interface {
	Create(listing *domain.Listing) error
	Update(listing *domain.Listing) error
	FindByID(id string) (*domain.Listing, error)
	FindBySourceURL(sourceURL string) (*domain.Listing, error)
	FindByIDs(ids []string) ([]*domain.Listing, error)
	List(status *domain.ListingStatus, limit, offset int) ([]*domain.Listing, int64, error)

	// LinkBroker records the (broker, listing, role) link once
	LinkBroker(link *domain.BrokerListing) error
	// FindBrokerListings returns every link of a broker with its listing loaded
	FindBrokerListings(brokerID string) ([]*domain.BrokerListing, error)
}
