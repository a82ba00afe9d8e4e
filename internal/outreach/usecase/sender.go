package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	emailusecase "outreach-backend/internal/email/usecase"
	"outreach-backend/internal/outreach/domain"
	"outreach-backend/internal/outreach/dto"
	"outreach-backend/pkg/gmail"
	"outreach-backend/pkg/logger"

	"github.com/sirupsen/logrus"
)

func (u *outreachUsecase) SendApproved(ctx context.Context, id string) (*domain.SuggestedEmail, error) {
	u.sendMu.Lock()
	defer u.sendMu.Unlock()

	email, err := u.GetSuggestedEmail(id)
	if err != nil {
		return nil, err
	}
	if email.Status != domain.StatusApproved {
		return nil, domain.ErrInvalidTransition
	}

	out := gmail.OutgoingMessage{
		From:     u.sender.Account(),
		FromName: u.rules.Profile.SenderName,
		To:       email.ToEmail,
		Subject:  email.Subject,
		Body:     email.BodyContent,
	}
	if email.ReplyToThreadID != nil {
		out.ThreadID = *email.ReplyToThreadID
		out.InReplyTo = u.lastHeaderMessageID(*email.ReplyToThreadID)
	}

	log := u.log.WithFields(logrus.Fields{
		"suggested_email_id": email.ID,
		"broker_id":          email.BrokerID,
	})

	sent, sendErr := u.sender.Send(ctx, out)
	if sendErr != nil {
		u.recordFailedSend(email, sendErr)
		return u.reload(email), fmt.Errorf("%w: %v", ErrSendFailed, sendErr)
	}

	now := u.now().UTC()
	err = u.suggestedRepo.Transition(email.ID, domain.StatusApproved, domain.StatusSent, map[string]interface{}{
		"sent_at":     now,
		"send_status": domain.SendStatusSent,
		"last_error":  "",
	})
	if err != nil {
		// the mail is out, so the sent log is still written
		log.WithError(err).Error("Sent email but failed to mark it sent")
	}

	if err := u.sentRepo.Create(&domain.SentEmailLog{
		SuggestedEmailID: &email.ID,
		BrokerID:         email.BrokerID,
		ToEmail:          email.ToEmail,
		Subject:          email.Subject,
		GmailMessageID:   sent.MessageID,
		GmailThreadID:    sent.ThreadID,
		SendStatus:       domain.SendStatusSent,
		SentAt:           now,
	}); err != nil {
		log.WithError(err).Error("Failed to write sent email log")
	}

	u.recordInHistory(email, sent, out, now)
	u.rememberStyle(email)

	log.WithField("gmail_message_id", sent.MessageID).Info("Outreach email sent")
	return u.reload(email), nil
}

// lastHeaderMessageID is the RFC 5322 Message-ID of the newest message in
// the thread, or empty when history does not have one.
func (u *outreachUsecase) lastHeaderMessageID(gmailThreadID string) string {
	messages, err := u.history.GetThreadMessages(gmailThreadID)
	if err != nil {
		u.log.WithError(err).WithField("gmail_thread_id", gmailThreadID).Warn("Failed to load thread for reply headers")
		return ""
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].HeaderMessageID != "" {
			return messages[i].HeaderMessageID
		}
	}
	return ""
}

func (u *outreachUsecase) recordFailedSend(email *domain.SuggestedEmail, sendErr error) {
	logger.LogError("outreach_send", sendErr, map[string]interface{}{
		"suggested_email_id": email.ID,
		"broker_id":          email.BrokerID,
	})

	if err := u.sentRepo.Create(&domain.SentEmailLog{
		SuggestedEmailID: &email.ID,
		BrokerID:         email.BrokerID,
		ToEmail:          email.ToEmail,
		Subject:          email.Subject,
		SendStatus:       domain.SendStatusFailed,
		ErrorMessage:     sendErr.Error(),
		SentAt:           u.now().UTC(),
	}); err != nil {
		u.log.WithError(err).Error("Failed to write failed send log")
	}
	if err := u.suggestedRepo.MarkSendFailed(email.ID, sendErr.Error()); err != nil {
		u.log.WithError(err).Error("Failed to mark suggested email send failure")
	}
}

// recordInHistory imports the sent message right away so cool-down and
// thread state see it before the next mailbox sync.
func (u *outreachUsecase) recordInHistory(email *domain.SuggestedEmail, sent *gmail.SentMessage, out gmail.OutgoingMessage, at time.Time) {
	msg := &gmail.Message{
		ID:           sent.MessageID,
		ThreadID:     sent.ThreadID,
		From:         out.From,
		To:           out.To,
		Subject:      out.Subject,
		BodyText:     out.Body,
		InReplyTo:    out.InReplyTo,
		InternalDate: at,
	}
	if _, _, err := u.history.IngestMessage(msg, &email.ID); err != nil {
		u.log.WithError(err).WithField("gmail_message_id", sent.MessageID).Warn("Failed to record sent email in history")
	}
}

func (u *outreachUsecase) rememberStyle(email *domain.SuggestedEmail) {
	if u.style == nil {
		return
	}
	queued := u.style.QueueJob(emailusecase.StyleJob{
		SuggestedEmailID: email.ID,
		BrokerID:         email.BrokerID,
		Template:         string(email.Template),
		Tone:             string(email.Tone),
		Subject:          email.Subject,
		Body:             email.BodyContent,
	})
	if !queued {
		u.log.WithField("suggested_email_id", email.ID).Debug("Style index queue unavailable")
	}
}

func (u *outreachUsecase) reload(email *domain.SuggestedEmail) *domain.SuggestedEmail {
	fresh, err := u.suggestedRepo.FindByID(email.ID)
	if err != nil || fresh == nil {
		return email
	}
	return fresh
}

func (u *outreachUsecase) SendDue(ctx context.Context, limit int) (*dto.SendDueResult, error) {
	due, err := u.suggestedRepo.ListDueForSend(limit)
	if err != nil {
		return nil, err
	}

	result := &dto.SendDueResult{}
	for i, email := range due {
		if i > 0 {
			if err := u.sleep(ctx, u.rules.Sender.GetDelayBetweenSends()); err != nil {
				return result, err
			}
		}

		result.Attempted++
		if _, err := u.SendApproved(ctx, email.ID); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				// approved row was skipped or sent since the list was read
				result.Attempted--
				continue
			}
			result.Failed++
			continue
		}
		result.Sent++
	}

	if result.Attempted > 0 {
		u.log.WithFields(logrus.Fields{
			"sent":   result.Sent,
			"failed": result.Failed,
		}).Info("Send loop finished")
	}
	return result, nil
}
