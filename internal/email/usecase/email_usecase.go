package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	emaildomain "outreach-backend/internal/email/domain"
	emaildto "outreach-backend/internal/email/dto"
	"outreach-backend/internal/email/repository"
	"outreach-backend/pkg/config"
	"outreach-backend/pkg/gmail"
	"outreach-backend/pkg/logger"

	"github.com/sirupsen/logrus"
)

type emailUsecase struct {
	messageRepo   repository.EmailMessageRepository
	threadRepo    repository.EmailThreadRepository
	syncStateRepo repository.SyncStateRepository
	brokers       BrokerDirectory
	mailbox       Mailbox
	syncRules     config.SyncRules
	topicName     string
	replyHandler  ReplyHandler
	log           *logrus.Entry
}

func NewEmailUsecase(
	messageRepo repository.EmailMessageRepository,
	threadRepo repository.EmailThreadRepository,
	syncStateRepo repository.SyncStateRepository,
	brokers BrokerDirectory,
	mailbox Mailbox,
	syncRules config.SyncRules,
	topicName string,
) EmailUsecase {
	return &emailUsecase{
		messageRepo:   messageRepo,
		threadRepo:    threadRepo,
		syncStateRepo: syncStateRepo,
		brokers:       brokers,
		mailbox:       mailbox,
		syncRules:     syncRules,
		topicName:     topicName,
		log:           logrus.WithField("component", "email_sync"),
	}
}

func (u *emailUsecase) SetReplyHandler(handler ReplyHandler) {
	u.replyHandler = handler
}

func (u *emailUsecase) account() string {
	return strings.ToLower(u.mailbox.Account())
}

func (u *emailUsecase) IngestMessage(msg *gmail.Message, suggestedEmailID *string) (*emaildomain.EmailMessage, bool, error) {
	if msg.ID == "" || msg.ThreadID == "" {
		return nil, false, fmt.Errorf("message is missing its mailbox ids")
	}

	direction := emaildomain.DirectionInbound
	if msg.FromAddress() == u.account() {
		direction = emaildomain.DirectionOutbound
	}

	brokerID, err := u.resolveBroker(msg, direction)
	if err != nil {
		return nil, false, err
	}

	body := msg.BodyText
	if body == "" && msg.BodyHTML != "" {
		body = gmail.HTMLToText(msg.BodyHTML)
	}

	stored := &emaildomain.EmailMessage{
		GmailMessageID:   msg.ID,
		GmailThreadID:    msg.ThreadID,
		BrokerID:         brokerID,
		Direction:        direction,
		FromEmail:        msg.FromAddress(),
		ToEmail:          strings.Join(msg.ToAddresses(), ", "),
		Subject:          msg.Subject,
		BodyText:         body,
		BodyHTML:         msg.BodyHTML,
		SentAt:           msg.InternalDate.UTC(),
		HeaderMessageID:  msg.HeaderMessageID,
		InReplyTo:        msg.InReplyTo,
		SuggestedEmailID: suggestedEmailID,
	}

	inserted, err := u.messageRepo.Ingest(stored)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ingest message %s: %w", msg.ID, err)
	}

	if !inserted && suggestedEmailID != nil {
		if err := u.messageRepo.LinkSuggestedEmail(msg.ID, *suggestedEmailID); err != nil {
			return nil, false, err
		}
	}

	return stored, inserted, nil
}

// resolveBroker finds the broker on the other side of the message: the
// sender for inbound mail, the first known recipient for outbound mail.
func (u *emailUsecase) resolveBroker(msg *gmail.Message, direction emaildomain.Direction) (*string, error) {
	candidates := []string{msg.FromAddress()}
	if direction == emaildomain.DirectionOutbound {
		candidates = msg.ToAddresses()
	}

	for _, addr := range candidates {
		if addr == "" {
			continue
		}
		broker, err := u.brokers.FindByEmail(addr)
		if err != nil {
			return nil, err
		}
		if broker != nil {
			id := broker.ID
			return &id, nil
		}
	}
	return nil, nil
}

func (u *emailUsecase) BootstrapSync(ctx context.Context) (*emaildto.SyncResult, error) {
	result := &emaildto.SyncResult{Mode: "bootstrap", StartedAt: time.Now().UTC()}
	account := u.account()

	// Taken before searching so nothing that arrives mid-bootstrap is skipped
	_, historyID, err := u.mailbox.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read mailbox profile: %w", err)
	}
	result.HistoryID = historyID

	if _, err := u.syncStateRepo.Ensure(account); err != nil {
		return nil, err
	}

	brokers, err := u.brokers.ListWithEmails()
	if err != nil {
		return nil, err
	}

	for _, broker := range brokers {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		brokerFailed := false
		for _, e := range broker.Emails {
			query := fmt.Sprintf("to:%s OR from:%s", e.Email, e.Email)
			messages, err := u.mailbox.Search(ctx, query, u.syncRules.GetFetchDelay())
			if err != nil {
				brokerFailed = true
				logger.LogError("gmail_bootstrap_search", err, map[string]interface{}{
					"broker_id": broker.ID,
					"email":     e.Email,
				})
				continue
			}
			u.ingestAll(messages, result)
		}

		if !brokerFailed {
			if err := u.brokers.MarkGmailSynced(broker.ID, time.Now().UTC()); err != nil {
				u.log.WithError(err).WithField("broker_id", broker.ID).Warn("Failed to stamp broker sync time")
			}
			result.BrokersSynced++
		}
	}

	if err := u.syncStateRepo.MarkFullSync(account, time.Now().UTC(), historyID); err != nil {
		return result, fmt.Errorf("failed to record bootstrap: %w", err)
	}
	result.CursorAdvanced = true
	result.FinishedAt = time.Now().UTC()

	logger.LogEvent("gmail_bootstrap_sync", map[string]interface{}{
		"brokers":  result.BrokersSynced,
		"fetched":  result.Fetched,
		"imported": result.Imported,
		"failed":   result.Failed,
	})
	return result, nil
}

func (u *emailUsecase) IncrementalSync(ctx context.Context) (*emaildto.SyncResult, error) {
	result := &emaildto.SyncResult{Mode: "incremental", StartedAt: time.Now().UTC()}
	account := u.account()

	state, err := u.syncStateRepo.Get(account)
	if err != nil {
		return nil, err
	}
	if state == nil || state.LastHistoryID == 0 {
		return nil, emaildomain.ErrBootstrapRequired
	}

	messages, latest, err := u.mailbox.ListHistory(ctx, state.LastHistoryID, u.syncRules.GetFetchDelay())
	if err != nil {
		if errors.Is(err, gmail.ErrHistoryExpired) {
			return nil, emaildomain.ErrBootstrapRequired
		}
		return nil, fmt.Errorf("failed to list mailbox history: %w", err)
	}
	result.HistoryID = state.LastHistoryID

	replies := u.ingestAll(messages, result)
	result.Replies = replies

	// the cursor only moves once every message of the batch is stored
	if result.Failed == 0 {
		if err := u.syncStateRepo.AdvanceCursor(account, state.Version, latest, time.Now().UTC()); err != nil {
			return result, err
		}
		result.HistoryID = latest
		result.CursorAdvanced = true
	} else {
		u.log.WithFields(logrus.Fields{
			"failed":     result.Failed,
			"history_id": state.LastHistoryID,
		}).Warn("Incremental sync incomplete, cursor not advanced")
	}
	result.FinishedAt = time.Now().UTC()

	if len(replies) > 0 && u.replyHandler != nil {
		u.replyHandler(ctx, replies)
	}

	u.log.WithFields(logrus.Fields{
		"fetched":  result.Fetched,
		"imported": result.Imported,
		"replies":  len(replies),
	}).Info("Incremental sync finished")

	return result, nil
}

// ingestAll imports messages and returns the newly stored inbound broker replies.
func (u *emailUsecase) ingestAll(messages []*gmail.Message, result *emaildto.SyncResult) []*emaildomain.EmailMessage {
	var replies []*emaildomain.EmailMessage
	for _, m := range messages {
		result.Fetched++
		stored, inserted, err := u.IngestMessage(m, nil)
		if err != nil {
			result.Failed++
			logger.LogError("gmail_ingest", err, map[string]interface{}{
				"gmail_message_id": m.ID,
			})
			continue
		}
		if !inserted {
			result.Duplicates++
			continue
		}
		result.Imported++
		if stored.Direction == emaildomain.DirectionInbound && stored.BrokerID != nil {
			replies = append(replies, stored)
		}
	}
	return replies
}

func (u *emailUsecase) WatchMailbox(ctx context.Context) (*emaildto.WatchResponse, error) {
	if u.topicName == "" {
		return nil, fmt.Errorf("GOOGLE_PUBSUB_TOPIC is not configured")
	}
	historyID, expiration, err := u.mailbox.Watch(ctx, u.topicName)
	if err != nil {
		return nil, err
	}
	return &emaildto.WatchResponse{HistoryID: historyID, Expiration: expiration}, nil
}

func (u *emailUsecase) GetSyncState() (*emaildomain.GmailSyncState, error) {
	return u.syncStateRepo.Get(u.account())
}

func (u *emailUsecase) GetThread(id string) (*emaildomain.EmailThread, []*emaildomain.EmailMessage, error) {
	thread, err := u.threadRepo.FindByID(id)
	if err != nil {
		return nil, nil, err
	}
	if thread == nil {
		return nil, nil, emaildomain.ErrThreadNotFound
	}
	messages, err := u.messageRepo.ListByThread(thread.GmailThreadID)
	if err != nil {
		return nil, nil, err
	}
	return thread, messages, nil
}

func (u *emailUsecase) ListThreads(status, brokerID string, limit, offset int) ([]*emaildomain.EmailThread, int64, error) {
	if status == "" {
		return u.threadRepo.List(nil, brokerID, limit, offset)
	}
	s := emaildomain.ThreadStatus(status)
	return u.threadRepo.List(&s, brokerID, limit, offset)
}

func (u *emailUsecase) GetThreadMessages(gmailThreadID string) ([]*emaildomain.EmailMessage, error) {
	return u.messageRepo.ListByThread(gmailThreadID)
}

func (u *emailUsecase) CloseThread(id string) (*emaildomain.EmailThread, error) {
	thread, err := u.threadRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, emaildomain.ErrThreadNotFound
	}
	if thread.Status == emaildomain.ThreadStatusClosed {
		return thread, nil
	}
	if err := u.threadRepo.UpdateStatus(id, emaildomain.ThreadStatusClosed); err != nil {
		return nil, err
	}
	thread.Status = emaildomain.ThreadStatusClosed
	return thread, nil
}

func (u *emailUsecase) GetConversationSummary(brokerID string, messageLimit int) (*emaildomain.ConversationSummary, error) {
	threads, err := u.threadRepo.ListByBroker(brokerID)
	if err != nil {
		return nil, err
	}
	outbound, inbound, err := u.messageRepo.CountByBroker(brokerID)
	if err != nil {
		return nil, err
	}
	lastOutbound, err := u.messageRepo.LastOutboundAt(brokerID)
	if err != nil {
		return nil, err
	}
	recent, err := u.messageRepo.ListByBroker(brokerID, messageLimit)
	if err != nil {
		return nil, err
	}

	summary := &emaildomain.ConversationSummary{
		ThreadCount:    len(threads),
		SentCount:      int(outbound),
		ReceivedCount:  int(inbound),
		LastOutboundAt: lastOutbound,
		HasReplied:     inbound > 0,
		RecentMessages: recent,
	}
	for _, t := range threads {
		if t.LastMessageAt == nil {
			continue
		}
		if summary.LastInteraction == nil || t.LastMessageAt.After(*summary.LastInteraction) {
			at := *t.LastMessageAt
			summary.LastInteraction = &at
			summary.LatestThread = t
		}
	}
	return summary, nil
}
