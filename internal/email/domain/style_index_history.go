package domain

import "time"

// StyleIndexHistory records which sent outreach emails have been embedded
// into the style index, so a resend or resync does not embed them twice.
type StyleIndexHistory struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	SuggestedEmailID string    `json:"suggested_email_id" gorm:"uniqueIndex;not null"`
	Template         string    `json:"template" gorm:"index"`
	IndexedAt        time.Time `json:"indexed_at"`
	CreatedAt        time.Time `json:"created_at"`
}

func (StyleIndexHistory) TableName() string {
	return "style_index_history"
}
