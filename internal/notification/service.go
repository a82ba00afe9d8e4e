package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	emaildomain "outreach-backend/internal/email/domain"
	emaildto "outreach-backend/internal/email/dto"

	"cloud.google.com/go/pubsub"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const syncTimeout = 2 * time.Minute

// GmailNotification is the payload Gmail publishes for a mailbox watch.
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Syncer runs an incremental mailbox sync.
type Syncer interface {
	IncrementalSync(ctx context.Context) (*emaildto.SyncResult, error)
}

// Service listens on the Gmail watch subscription and pulls new mailbox
// history whenever the outreach account changes.
type Service struct {
	pubsubClient *pubsub.Client
	syncer       Syncer
	account      string
	topicName    string
	subName      string

	mu            sync.Mutex
	lastHistoryID uint64
	log           *logrus.Entry
}

func NewService(projectID, topicName, account string, syncer Syncer, credentialsFile string) (*Service, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(context.Background(), projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	s := newService(syncer, account)
	s.pubsubClient = client
	s.topicName = ShortTopicName(topicName)
	s.subName = s.topicName + "-sub"
	return s, nil
}

func newService(syncer Syncer, account string) *Service {
	return &Service{
		syncer:  syncer,
		account: strings.ToLower(account),
		log:     logrus.WithField("component", "pubsub"),
	}
}

// ShortTopicName strips the "projects/<id>/topics/" prefix.
func ShortTopicName(topic string) string {
	if parts := strings.Split(topic, "/"); len(parts) > 1 {
		topic = parts[len(parts)-1]
	}
	if topic == "" {
		return "gmail-updates"
	}
	return topic
}

// Start blocks receiving messages until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	sub, err := s.ensureSubscription(ctx)
	if err != nil {
		return err
	}

	s.log.WithField("subscription", s.subName).Info("Listening for mailbox notifications")
	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if s.handleNotification(ctx, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

func (s *Service) Close() error {
	if s.pubsubClient == nil {
		return nil
	}
	return s.pubsubClient.Close()
}

func (s *Service) ensureSubscription(ctx context.Context) (*pubsub.Subscription, error) {
	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check subscription %s: %w", s.subName, err)
	}
	if exists {
		return sub, nil
	}

	topic := s.pubsubClient.Topic(s.topicName)
	topicExists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check topic %s: %w", s.topicName, err)
	}
	if !topicExists {
		return nil, fmt.Errorf("topic %s does not exist", s.topicName)
	}

	sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: 60 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription %s: %w", s.subName, err)
	}
	s.log.WithField("subscription", s.subName).Info("Created subscription")
	return sub, nil
}

// handleNotification reports whether the message can be acked. A failed
// sync is nacked so Pub/Sub redelivers it.
func (s *Service) handleNotification(ctx context.Context, data []byte) bool {
	var n GmailNotification
	if err := json.Unmarshal(data, &n); err != nil {
		s.log.WithError(err).Warn("Dropping malformed mailbox notification")
		return true
	}

	if s.account != "" && strings.ToLower(n.EmailAddress) != s.account {
		s.log.WithField("email", n.EmailAddress).Debug("Notification for another mailbox")
		return true
	}

	s.mu.Lock()
	if n.HistoryID != 0 && n.HistoryID <= s.lastHistoryID {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	syncCtx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	result, err := s.syncer.IncrementalSync(syncCtx)
	if err != nil {
		if errors.Is(err, emaildomain.ErrBootstrapRequired) {
			s.log.Warn("Mailbox notification ignored, bootstrap sync required")
			return true
		}
		s.log.WithError(err).WithField("history_id", n.HistoryID).Error("Incremental sync from notification failed")
		return false
	}

	s.mu.Lock()
	if n.HistoryID > s.lastHistoryID {
		s.lastHistoryID = n.HistoryID
	}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"history_id": n.HistoryID,
		"imported":   result.Imported,
	}).Debug("Mailbox notification handled")
	return true
}
