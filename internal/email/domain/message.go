package domain

import "time"

type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// EmailMessage is one imported mailbox message. Rows are never updated.
type EmailMessage struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	GmailMessageID   string    `json:"gmail_message_id" gorm:"uniqueIndex;not null"`
	GmailThreadID    string    `json:"gmail_thread_id" gorm:"index;not null"`
	BrokerID         *string   `json:"broker_id,omitempty" gorm:"index"`
	Direction        Direction `json:"direction" gorm:"not null"`
	FromEmail        string    `json:"from_email"`
	ToEmail          string    `json:"to_email"`
	Subject          string    `json:"subject"`
	BodyText         string    `json:"body_text,omitempty" gorm:"type:text"`
	BodyHTML         string    `json:"body_html,omitempty" gorm:"type:text"`
	SentAt           time.Time `json:"sent_at" gorm:"index"`
	HeaderMessageID  string    `json:"header_message_id,omitempty"`
	InReplyTo        string    `json:"in_reply_to,omitempty"`
	SuggestedEmailID *string   `json:"suggested_email_id,omitempty" gorm:"index"`
	CreatedAt        time.Time `json:"created_at"`
}

func (EmailMessage) TableName() string {
	return "email_messages"
}

// GmailSyncState is the per-mailbox sync checkpoint. Version guards the
// history cursor against concurrent writers.
type GmailSyncState struct {
	ID                    string     `json:"id" gorm:"primaryKey"`
	AccountEmail          string     `json:"account_email" gorm:"uniqueIndex;not null"`
	LastHistoryID         uint64     `json:"last_history_id"`
	LastFullSyncAt        *time.Time `json:"last_full_sync_at,omitempty"`
	LastIncrementalSyncAt *time.Time `json:"last_incremental_sync_at,omitempty"`
	Version               int64      `json:"version" gorm:"not null;default:0"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (GmailSyncState) TableName() string {
	return "gmail_sync_state"
}

// ConversationSummary is the per-broker rollup handed to the outreach engine.
type ConversationSummary struct {
	ThreadCount     int             `json:"thread_count"`
	SentCount       int             `json:"sent_count"`
	ReceivedCount   int             `json:"received_count"`
	LastInteraction *time.Time      `json:"last_interaction,omitempty"`
	LastOutboundAt  *time.Time      `json:"last_outbound_at,omitempty"`
	HasReplied      bool            `json:"has_replied"`
	LatestThread    *EmailThread    `json:"latest_thread,omitempty"`
	RecentMessages  []*EmailMessage `json:"recent_messages,omitempty"`
}
