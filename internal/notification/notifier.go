package notification

import (
	"context"
	"fmt"

	emaildomain "outreach-backend/internal/email/domain"
	"outreach-backend/pkg/fcm"

	"github.com/sirupsen/logrus"
)

const maxSubjectChars = 100

// Pusher sends a push notification and returns the tokens that failed.
type Pusher interface {
	SendToDevices(ctx context.Context, tokens []string, n fcm.NotificationData) ([]string, error)
}

type TokenStore interface {
	ListAllTokens() ([]string, error)
	DeleteToken(token string) error
}

// OperatorNotifier pushes to every registered operator device.
type OperatorNotifier struct {
	pusher Pusher
	tokens TokenStore
	log    *logrus.Entry
}

func NewOperatorNotifier(pusher Pusher, tokens TokenStore) *OperatorNotifier {
	return &OperatorNotifier{
		pusher: pusher,
		tokens: tokens,
		log:    logrus.WithField("component", "fcm"),
	}
}

func (n *OperatorNotifier) NotifyOperators(ctx context.Context, data fcm.NotificationData) {
	tokens, err := n.tokens.ListAllTokens()
	if err != nil {
		n.log.WithError(err).Error("Failed to list operator device tokens")
		return
	}
	if len(tokens) == 0 {
		return
	}

	failed, err := n.pusher.SendToDevices(ctx, tokens, data)
	if err != nil {
		n.log.WithError(err).Error("Failed to send push notification")
		return
	}

	for _, token := range failed {
		if err := n.tokens.DeleteToken(token); err != nil {
			n.log.WithError(err).Warn("Failed to delete stale device token")
		}
	}
	n.log.WithFields(logrus.Fields{
		"type":    data.Data["type"],
		"devices": len(tokens) - len(failed),
		"stale":   len(failed),
	}).Debug("Push notification sent")
}

// NotifyReplies tells operators about inbound broker replies found by a sync.
func (n *OperatorNotifier) NotifyReplies(ctx context.Context, replies []*emaildomain.EmailMessage) {
	for _, reply := range replies {
		subject := reply.Subject
		if len(subject) > maxSubjectChars {
			subject = subject[:maxSubjectChars-3] + "..."
		}
		if subject == "" {
			subject = "(no subject)"
		}

		data := map[string]string{
			"type":            "broker_reply",
			"gmail_thread_id": reply.GmailThreadID,
			"click_action":    "/threads",
		}
		if reply.BrokerID != nil {
			data["broker_id"] = *reply.BrokerID
			data["click_action"] = fmt.Sprintf("/brokers/%s", *reply.BrokerID)
		}

		n.NotifyOperators(ctx, fcm.NotificationData{
			Title: fmt.Sprintf("Reply from %s", reply.FromEmail),
			Body:  subject,
			Data:  data,
		})
	}
}
