package domain

import "time"

// Pipeline suppression reasons. A skip decided by the delegate stores the
// delegate's own wording instead.
const (
	ReasonNoEmail       = "no_email"
	ReasonNoNewListings = "no_new_listings"
	ReasonTooRecent     = "too_recent"
	ReasonPendingDraft  = "pending_draft"
	ReasonDelegateError = "delegate_error"
)

type SuppressionSource string

const (
	SuppressionSourcePipeline SuppressionSource = "pipeline"
	SuppressionSourceDelegate SuppressionSource = "delegate"
)

// SuppressionLog is an append-only audit row explaining why a broker was not
// emailed on one evaluation pass.
type SuppressionLog struct {
	ID                   string            `json:"id" gorm:"primaryKey"`
	BrokerID             string            `json:"broker_id" gorm:"index;not null"`
	Reason               string            `json:"reason" gorm:"type:text;not null"`
	Source               SuppressionSource `json:"source" gorm:"not null"`
	DaysSinceLastContact *int              `json:"days_since_last_contact,omitempty"`
	NewListingCount      *int              `json:"new_listing_count,omitempty"`
	CreatedAt            time.Time         `json:"created_at" gorm:"index"`
}

func (SuppressionLog) TableName() string {
	return "outreach_suppression_logs"
}
