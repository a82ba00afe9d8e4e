package domain

import "time"

type ThreadStatus string

const (
	ThreadStatusActive        ThreadStatus = "active"
	ThreadStatusAwaitingReply ThreadStatus = "awaiting_reply"
	ThreadStatusReplied       ThreadStatus = "replied"
	ThreadStatusClosed        ThreadStatus = "closed"
)

// EmailThread is the rollup of every message imported under one mailbox thread.
type EmailThread struct {
	ID             string       `json:"id" gorm:"primaryKey"`
	GmailThreadID  string       `json:"gmail_thread_id" gorm:"uniqueIndex;not null"`
	BrokerID       *string      `json:"broker_id,omitempty" gorm:"index"`
	Subject        string       `json:"subject"`
	MessageCount   int          `json:"message_count" gorm:"not null;default:0"`
	OutboundCount  int          `json:"outbound_count" gorm:"not null;default:0"`
	InboundCount   int          `json:"inbound_count" gorm:"not null;default:0"`
	FirstMessageAt *time.Time   `json:"first_message_at,omitempty"`
	LastMessageAt  *time.Time   `json:"last_message_at,omitempty" gorm:"index"`
	LastInboundAt  *time.Time   `json:"last_inbound_at,omitempty"`
	LastOutboundAt *time.Time   `json:"last_outbound_at,omitempty"`
	LastDirection  Direction    `json:"last_direction,omitempty"`
	Status         ThreadStatus `json:"status" gorm:"index;default:active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (EmailThread) TableName() string {
	return "email_threads"
}

// Apply folds one newly imported message into the rollup. Callers must make
// sure the message has not been applied before.
func (t *EmailThread) Apply(m *EmailMessage) {
	t.MessageCount++
	at := m.SentAt.UTC()
	switch m.Direction {
	case DirectionOutbound:
		t.OutboundCount++
		if t.LastOutboundAt == nil || at.After(*t.LastOutboundAt) {
			t.LastOutboundAt = &at
		}
	case DirectionInbound:
		t.InboundCount++
		if t.LastInboundAt == nil || at.After(*t.LastInboundAt) {
			t.LastInboundAt = &at
		}
	}
	if t.FirstMessageAt == nil || at.Before(*t.FirstMessageAt) {
		t.FirstMessageAt = &at
	}
	if t.LastMessageAt == nil || !at.Before(*t.LastMessageAt) {
		t.LastMessageAt = &at
		t.LastDirection = m.Direction
		if m.Subject != "" {
			t.Subject = m.Subject
		}
	}
	if t.Subject == "" {
		t.Subject = m.Subject
	}
	if t.BrokerID == nil && m.BrokerID != nil {
		id := *m.BrokerID
		t.BrokerID = &id
	}
	t.Status = t.deriveStatus()
}

// deriveStatus never reopens a closed thread; closing is a manual action.
func (t *EmailThread) deriveStatus() ThreadStatus {
	if t.Status == ThreadStatusClosed {
		return ThreadStatusClosed
	}
	if t.OutboundCount == 0 || t.LastOutboundAt == nil {
		return ThreadStatusActive
	}
	if t.LastInboundAt != nil && t.LastInboundAt.After(*t.LastOutboundAt) {
		return ThreadStatusReplied
	}
	return ThreadStatusAwaitingReply
}

// IsOpen reports whether a new draft should continue this thread.
func (t *EmailThread) IsOpen() bool {
	return t.Status == ThreadStatusActive || t.Status == ThreadStatusAwaitingReply
}
