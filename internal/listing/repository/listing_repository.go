package repository

import (
	"errors"
	"time"

	"outreach-backend/internal/listing/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// Create inserts the listing unless its source URL is already stored; either
// way listing ends up holding the stored row.
func (r *listingRepository) Create(listing *domain.Listing) error {
	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	now := time.Now()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_url"}},
		DoNothing: true,
	}).Create(listing)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.db.Where("source_url = ?", listing.SourceURL).First(listing).Error
	}
	return nil
}

func (r *listingRepository) Update(listing *domain.Listing) error {
	listing.UpdatedAt = time.Now()
	return r.db.Save(listing).Error
}

func (r *listingRepository) FindByID(id string) (*domain.Listing, error) {
	var listing domain.Listing
	err := r.db.Where("id = ?", id).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) FindBySourceURL(sourceURL string) (*domain.Listing, error) {
	var listing domain.Listing
	err := r.db.Where("source_url = ?", sourceURL).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) FindByIDs(ids []string) ([]*domain.Listing, error) {
	var listings []*domain.Listing
	if len(ids) == 0 {
		return listings, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&listings).Error
	return listings, err
}

func (r *listingRepository) List(status *domain.ListingStatus, limit, offset int) ([]*domain.Listing, int64, error) {
	var listings []*domain.Listing
	var total int64

	query := r.db.Model(&domain.Listing{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("updated_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&listings).Error; err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (r *listingRepository) LinkBroker(link *domain.BrokerListing) error {
	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	link.CreatedAt = time.Now()

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "broker_id"}, {Name: "listing_id"}, {Name: "role"}},
		DoNothing: true,
	}).Omit("Listing").Create(link).Error
}

func (r *listingRepository) FindBrokerListings(brokerID string) ([]*domain.BrokerListing, error) {
	var links []*domain.BrokerListing
	err := r.db.Preload("Listing").
		Where("broker_id = ?", brokerID).
		Order("created_at ASC").
		Find(&links).Error
	return links, err
}
