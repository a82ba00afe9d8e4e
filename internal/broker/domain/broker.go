package domain

import "time"

// Source tags where a broker record came from. A DRE import carries the
// canonical licensee name.
const (
	SourceDRE     = "dre"
	SourceScrape  = "scrape"
	SourceManual  = "manual"
	SourceUnknown = ""
)

// Broker is a licensed real-estate professional, keyed by license number.
type Broker struct {
	ID            string        `json:"id" gorm:"primaryKey"`
	LicenseNumber string        `json:"license_number" gorm:"uniqueIndex;not null"`
	Name          string        `json:"name"`
	BrokerageName string        `json:"brokerage_name"`
	LicenseState  string        `json:"license_state" gorm:"default:'CA'"`
	Phone         string        `json:"phone,omitempty"`
	GmailSyncedAt *time.Time    `json:"gmail_synced_at,omitempty"`
	Emails        []BrokerEmail `json:"emails,omitempty" gorm:"foreignKey:BrokerID"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (Broker) TableName() string {
	return "brokers"
}

// BrokerEmail is one contact address observed for a broker. An address
// belongs to at most one broker at a time.
type BrokerEmail struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	BrokerID        string    `json:"broker_id" gorm:"index;not null"`
	Email           string    `json:"email" gorm:"uniqueIndex;not null"`
	IsPrimary       bool      `json:"is_primary" gorm:"default:false"`
	SourceListingID *string   `json:"source_listing_id,omitempty"`
	FirstSeenAt     time.Time `json:"first_seen_at"`
	LastSeenAt      time.Time `json:"last_seen_at"`
}

func (BrokerEmail) TableName() string {
	return "broker_emails"
}

// PrimaryEmail returns the primary address, or the most recently seen one.
func (b *Broker) PrimaryEmail() string {
	var best *BrokerEmail
	for i := range b.Emails {
		e := &b.Emails[i]
		if e.IsPrimary {
			return e.Email
		}
		if best == nil || e.LastSeenAt.After(best.LastSeenAt) {
			best = e
		}
	}
	if best == nil {
		return ""
	}
	return best.Email
}

// BrokerCandidate is a broker as reported by a scrape or a licence import.
type BrokerCandidate struct {
	LicenseNumber string `json:"license_number" validate:"required"`
	Name          string `json:"name"`
	BrokerageName string `json:"brokerage_name"`
	LicenseState  string `json:"license_state"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Source        string `json:"source"`
}
