package usecase

import (
	"context"
	"errors"
	"time"

	brokerdomain "outreach-backend/internal/broker/domain"
	emaildomain "outreach-backend/internal/email/domain"
	emailusecase "outreach-backend/internal/email/usecase"
	listingdomain "outreach-backend/internal/listing/domain"
	"outreach-backend/internal/outreach/domain"
	"outreach-backend/internal/outreach/dto"
	"outreach-backend/pkg/ai"
	"outreach-backend/pkg/fcm"
	"outreach-backend/pkg/gmail"
)

var (
	// ErrRunInProgress means another pipeline run holds the run lock.
	ErrRunInProgress = errors.New("an outreach run is already in progress")
	ErrNoDelegate    = errors.New("no outreach delegate configured")
	ErrSendFailed    = errors.New("failed to send suggested email")
)

// OutreachUsecase is the eligibility engine, the suggested email queue and
// its executor.
type OutreachUsecase interface {
	// EvaluateBroker runs the full decision for one broker. A dry run
	// stops before the delegate and writes nothing.
	EvaluateBroker(ctx context.Context, brokerID string, dryRun bool) (*domain.Evaluation, error)
	// RunBatch evaluates brokers one after another. A broker that fails is
	// counted and the batch moves on.
	RunBatch(ctx context.Context, req dto.RunRequest) (*domain.BatchResult, error)

	ListSuggestedEmails(status, brokerID string, limit, offset int) ([]*domain.SuggestedEmail, int64, error)
	GetSuggestedEmail(id string) (*domain.SuggestedEmail, error)
	EditSuggestedEmail(id string, req dto.EditRequest) (*domain.SuggestedEmail, error)
	ApproveSuggestedEmail(id string) (*domain.SuggestedEmail, error)
	SkipSuggestedEmail(id, reason string) (*domain.SuggestedEmail, error)

	// SendApproved delivers one approved email. Failed deliveries stay
	// approved with send_status=failed so they can be retried by hand.
	SendApproved(ctx context.Context, id string) (*domain.SuggestedEmail, error)
	// SendDue delivers approved emails whose last attempt did not fail
	SendDue(ctx context.Context, limit int) (*dto.SendDueResult, error)

	ListSuppressions(brokerID, reason string, limit, offset int) ([]*domain.SuppressionLog, int64, error)
	ListSentLogs(brokerID, status string, limit, offset int) ([]*domain.SentEmailLog, int64, error)

	SetDecider(decider ai.Decider)
	SetNotifier(notifier Notifier)
	SetStyleIndex(style StyleIndex)
	SetRunLocker(locker RunLocker)
}

// BrokerSource is the broker registry as the engine sees it.
type BrokerSource interface {
	GetBroker(id string) (*brokerdomain.Broker, error)
	ListForOutreach(limit int, brokerID string, contactedSince time.Time) ([]*brokerdomain.Broker, error)
}

// ListingSource returns a broker's role-tagged listings.
type ListingSource interface {
	GetBrokerListings(brokerID string) ([]*listingdomain.BrokerListing, error)
}

// HistorySource is the email history store.
type HistorySource interface {
	GetConversationSummary(brokerID string, messageLimit int) (*emaildomain.ConversationSummary, error)
	GetThreadMessages(gmailThreadID string) ([]*emaildomain.EmailMessage, error)
	IngestMessage(msg *gmail.Message, suggestedEmailID *string) (*emaildomain.EmailMessage, bool, error)
}

// MailSender delivers outreach email.
type MailSender interface {
	Account() string
	Send(ctx context.Context, out gmail.OutgoingMessage) (*gmail.SentMessage, error)
}

// Notifier pushes a notification to every operator device.
type Notifier interface {
	NotifyOperators(ctx context.Context, n fcm.NotificationData)
}

// StyleIndex remembers sent emails and finds similar ones.
type StyleIndex interface {
	QueueJob(job emailusecase.StyleJob) bool
	SimilarEmailIDs(ctx context.Context, template, query string, limit int) []string
}

// RunLocker guards against overlapping pipeline runs.
type RunLocker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error)
}
