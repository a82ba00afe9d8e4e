package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray is a custom type to handle JSON array in GORM
type StringArray []string

// Value implements driver.Valuer
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = []string{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	if len(bytes) == 0 {
		*a = []string{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

type SuggestedEmailStatus string

const (
	StatusDraft    SuggestedEmailStatus = "draft"
	StatusApproved SuggestedEmailStatus = "approved"
	StatusSent     SuggestedEmailStatus = "sent"
	StatusSkipped  SuggestedEmailStatus = "skipped"
)

type SendStatus string

const (
	SendStatusNone   SendStatus = ""
	SendStatusSent   SendStatus = "sent"
	SendStatusFailed SendStatus = "failed"
)

var (
	ErrInvalidTransition      = errors.New("invalid suggested email status transition")
	ErrSuggestedEmailNotFound = errors.New("suggested email not found")
	ErrNotEditable            = errors.New("suggested email can no longer be edited")
	ErrEmptyContent           = errors.New("suggested email subject and body must not be empty")
)

// transitions lists every permitted move of the draft state machine.
var transitions = map[SuggestedEmailStatus][]SuggestedEmailStatus{
	StatusDraft:    {StatusApproved, StatusSkipped},
	StatusApproved: {StatusSent, StatusSkipped},
}

// CanTransition reports whether from -> to is a permitted move.
func CanTransition(from, to SuggestedEmailStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SuggestedEmail is an outreach draft awaiting human review. NewListingIDs
// marks those listings as used for the broker no matter the final status.
type SuggestedEmail struct {
	ID              string               `json:"id" gorm:"primaryKey"`
	BrokerID        string               `json:"broker_id" gorm:"index;not null"`
	ToEmail         string               `json:"to_email"`
	NewListingIDs   StringArray          `json:"new_listing_ids" gorm:"type:text"`
	Subject         string               `json:"subject"`
	BodyContent     string               `json:"body_content" gorm:"type:text"`
	IsFirstContact  bool                 `json:"is_first_contact"`
	ReplyToThreadID *string              `json:"reply_to_thread_id,omitempty"`
	Tone            Tone                 `json:"tone"`
	Template        Template             `json:"template"`
	DecisionReason  string               `json:"decision_reason,omitempty"`
	Status          SuggestedEmailStatus `json:"status" gorm:"index;not null;default:draft"`
	SendStatus      SendStatus           `json:"send_status,omitempty"`
	LastError       string               `json:"last_error,omitempty"`
	ApprovedAt      *time.Time           `json:"approved_at,omitempty"`
	SentAt          *time.Time           `json:"sent_at,omitempty"`
	SkippedAt       *time.Time           `json:"skipped_at,omitempty"`
	SkipReason      string               `json:"skip_reason,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func (SuggestedEmail) TableName() string {
	return "suggested_emails"
}

// SentEmailLog records every delivery attempt, successful or not.
type SentEmailLog struct {
	ID               string     `json:"id" gorm:"primaryKey"`
	SuggestedEmailID *string    `json:"suggested_email_id,omitempty" gorm:"index"`
	BrokerID         string     `json:"broker_id" gorm:"index;not null"`
	ToEmail          string     `json:"to_email"`
	Subject          string     `json:"subject"`
	GmailMessageID   string     `json:"gmail_message_id,omitempty"`
	GmailThreadID    string     `json:"gmail_thread_id,omitempty"`
	SendStatus       SendStatus `json:"send_status" gorm:"index;not null"`
	ErrorMessage     string     `json:"error_message,omitempty" gorm:"type:text"`
	SentAt           time.Time  `json:"sent_at" gorm:"index"`
}

func (SentEmailLog) TableName() string {
	return "sent_email_logs"
}
