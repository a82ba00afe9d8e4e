package usecase

import (
	"context"
	"time"

	brokerdomain "outreach-backend/internal/broker/domain"
	emaildomain "outreach-backend/internal/email/domain"
	emaildto "outreach-backend/internal/email/dto"
	"outreach-backend/pkg/gmail"
)

// EmailUsecase is the email history store and its mailbox sync
type EmailUsecase interface {
	// IngestMessage imports one mailbox message. Re-importing a known message
	// ID changes nothing and returns inserted=false.
	IngestMessage(msg *gmail.Message, suggestedEmailID *string) (stored *emaildomain.EmailMessage, inserted bool, err error)
	BootstrapSync(ctx context.Context) (*emaildto.SyncResult, error)
	IncrementalSync(ctx context.Context) (*emaildto.SyncResult, error)
	WatchMailbox(ctx context.Context) (*emaildto.WatchResponse, error)
	GetSyncState() (*emaildomain.GmailSyncState, error)

	GetThread(id string) (*emaildomain.EmailThread, []*emaildomain.EmailMessage, error)
	ListThreads(status, brokerID string, limit, offset int) ([]*emaildomain.EmailThread, int64, error)
	CloseThread(id string) (*emaildomain.EmailThread, error)
	// GetThreadMessages returns a mailbox thread's messages, oldest first
	GetThreadMessages(gmailThreadID string) ([]*emaildomain.EmailMessage, error)

	// GetConversationSummary rolls up every thread with the broker and keeps
	// the last messageLimit messages
	GetConversationSummary(brokerID string, messageLimit int) (*emaildomain.ConversationSummary, error)

	SetReplyHandler(handler ReplyHandler)
}

// ReplyHandler is told about inbound broker messages imported by a sync.
type ReplyHandler func(ctx context.Context, replies []*emaildomain.EmailMessage)

// Mailbox is the mailbox API the history store syncs from.
type Mailbox interface {
	Account() string
	Search(ctx context.Context, query string, delay time.Duration) ([]*gmail.Message, error)
	ListHistory(ctx context.Context, since uint64, delay time.Duration) ([]*gmail.Message, uint64, error)
	Profile(ctx context.Context) (string, uint64, error)
	Watch(ctx context.Context, topicName string) (uint64, time.Time, error)
}

// BrokerDirectory resolves mailbox addresses to brokers.
type BrokerDirectory interface {
	FindByEmail(email string) (*brokerdomain.Broker, error)
	ListWithEmails() ([]*brokerdomain.Broker, error)
	MarkGmailSynced(id string, at time.Time) error
}
