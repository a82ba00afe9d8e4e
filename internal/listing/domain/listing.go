package domain

import (
	"strings"
	"time"
)

type ListingStatus string

const (
	ListingStatusActive  ListingStatus = "active"
	ListingStatusPending ListingStatus = "pending"
	ListingStatusSold    ListingStatus = "sold"
)

// Role is the side a broker represented on a listing.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Listing is a property observed on a listing platform, unique by source URL.
type Listing struct {
	ID             string        `json:"id" gorm:"primaryKey"`
	SourceURL      string        `json:"source_url" gorm:"uniqueIndex;not null"`
	Address        string        `json:"address"`
	City           string        `json:"city"`
	State          string        `json:"state"`
	Zipcode        string        `json:"zipcode" gorm:"index"`
	Price          *float64      `json:"price,omitempty"`
	Beds           string        `json:"beds,omitempty"`
	Baths          string        `json:"baths,omitempty"`
	Sqft           *int          `json:"sqft,omitempty"`
	Status         ListingStatus `json:"status" gorm:"index;default:active"`
	ListingDate    *time.Time    `json:"listing_date,omitempty"`
	SaleDate       *time.Time    `json:"sale_date,omitempty"`
	SourcePlatform string        `json:"source_platform"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (Listing) TableName() string {
	return "listings"
}

// BrokerListing links a broker to a listing under one role.
type BrokerListing struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	BrokerID  string    `json:"broker_id" gorm:"uniqueIndex:idx_broker_listing_role;not null"`
	ListingID string    `json:"listing_id" gorm:"uniqueIndex:idx_broker_listing_role;index;not null"`
	Role      Role      `json:"role" gorm:"uniqueIndex:idx_broker_listing_role;not null"`
	Listing   *Listing  `json:"listing,omitempty" gorm:"foreignKey:ListingID"`
	CreatedAt time.Time `json:"created_at"`
}

func (BrokerListing) TableName() string {
	return "broker_listings"
}

// NormalizeStatus maps the free-form status strings of listing sites onto
// active, pending and sold.
func NormalizeStatus(raw string) ListingStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "sold" || s == "closed" || strings.HasPrefix(s, "sold "):
		return ListingStatusSold
	case s == "pending" || s == "contingent" || strings.Contains(s, "under contract"):
		return ListingStatusPending
	default:
		return ListingStatusActive
	}
}

// NormalizeRole defaults anything that is not the buyer side to seller.
func NormalizeRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleBuyer)) {
		return RoleBuyer
	}
	return RoleSeller
}

// AgentCandidate is one agent attached to a scraped listing.
type AgentCandidate struct {
	Name          string `json:"name"`
	LicenseNumber string `json:"license_number"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	BrokerageName string `json:"brokerage_name"`
	Role          string `json:"role" validate:"omitempty,oneof=buyer seller"`
}

// ListingCandidate is the enrichment feed's view of a listing and its agents.
type ListingCandidate struct {
	SourceURL      string           `json:"source_url" validate:"required"`
	Address        string           `json:"address"`
	City           string           `json:"city"`
	State          string           `json:"state"`
	Zipcode        string           `json:"zipcode"`
	Price          *float64         `json:"price"`
	Beds           string           `json:"beds"`
	Baths          string           `json:"baths"`
	Sqft           *int             `json:"sqft"`
	Status         string           `json:"status"`
	ListingDate    *time.Time       `json:"listing_date"`
	SaleDate       *time.Time       `json:"sale_date"`
	SourcePlatform string           `json:"source_platform"`
	Agents         []AgentCandidate `json:"agents" validate:"dive"`
}
