package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	brokerdomain "outreach-backend/internal/broker/domain"
	"outreach-backend/internal/outreach/domain"
	"outreach-backend/internal/outreach/dto"
	"outreach-backend/pkg/gmail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []gmail.OutgoingMessage
	err  error
}

func (f *fakeSender) Account() string { return account }

func (f *fakeSender) Send(ctx context.Context, out gmail.OutgoingMessage) (*gmail.SentMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, out)
	n := len(f.sent)
	threadID := out.ThreadID
	if threadID == "" {
		threadID = fmt.Sprintf("thread-%d", n)
	}
	return &gmail.SentMessage{MessageID: fmt.Sprintf("sent-%d", n), ThreadID: threadID}, nil
}

func (f *fixture) addDraft(t *testing.T, broker *brokerdomain.Broker, subject string) *domain.SuggestedEmail {
	t.Helper()
	draft := &domain.SuggestedEmail{
		BrokerID:    broker.ID,
		ToEmail:     broker.PrimaryEmail(),
		Subject:     subject,
		BodyContent: "Hi " + broker.Name,
		Tone:        domain.ToneCold,
		Template:    domain.TemplateSaleListing,
	}
	require.NoError(t, f.suggested.Create(draft))
	return draft
}

func TestSuggestedEmail_StateMachine(t *testing.T) {
	f := setup(t)
	mia := f.addBroker(t, "01111111", "Mia Torres", "mia@compass.com")
	draft := f.addDraft(t, mia, "383 Westbourne")

	_, err := f.uc.SendApproved(context.Background(), draft.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "drafts must be approved before sending")

	approved, err := f.uc.ApproveSuggestedEmail(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	assert.NotNil(t, approved.ApprovedAt)

	_, err = f.uc.ApproveSuggestedEmail(draft.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	sent, err := f.uc.SendApproved(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, sent.Status)
	assert.Equal(t, domain.SendStatusSent, sent.SendStatus)

	_, err = f.uc.SkipSuggestedEmail(draft.ID, "changed my mind")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.uc.ApproveSuggestedEmail(draft.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	subject := "new subject"
	_, err = f.uc.EditSuggestedEmail(draft.ID, dto.EditRequest{Subject: &subject})
	assert.ErrorIs(t, err, domain.ErrNotEditable)
}

func TestSuggestedEmail_SkipFromApproved(t *testing.T) {
	f := setup(t)
	mia := f.addBroker(t, "01111111", "Mia Torres", "mia@compass.com")
	draft := f.addDraft(t, mia, "383 Westbourne")

	_, err := f.uc.ApproveSuggestedEmail(draft.ID)
	require.NoError(t, err)
	skipped, err := f.uc.SkipSuggestedEmail(draft.ID, "duplicate")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSkipped, skipped.Status)
	assert.Equal(t, "duplicate", skipped.SkipReason)
	assert.NotNil(t, skipped.SkippedAt)

	_, err = f.uc.SendApproved(context.Background(), draft.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestEditSuggestedEmail(t *testing.T) {
	f := setup(t)
	mia := f.addBroker(t, "01111111", "Mia Torres", "mia@compass.com")
	draft := f.addDraft(t, mia, "383 Westbourne")

	body := "Hi Mia,\n\nShort and sweet."
	edited, err := f.uc.EditSuggestedEmail(draft.ID, dto.EditRequest{Body: &body})
	require.NoError(t, err)
	assert.Equal(t, "383 Westbourne", edited.Subject)
	assert.Equal(t, body, edited.BodyContent)

	_, err = f.uc.EditSuggestedEmail("missing", dto.EditRequest{Body: &body})
	assert.ErrorIs(t, err, domain.ErrSuggestedEmailNotFound)
}

func TestEditSuggestedEmail_RejectsBlankContent(t *testing.T) {
	f := setup(t)
	mia := f.addBroker(t, "01111111", "Mia Torres", "mia@compass.com")
	draft := f.addDraft(t, mia, "383 Westbourne")
	_, err := f.uc.ApproveSuggestedEmail(draft.ID)
	require.NoError(t, err)

	blank := " \n\t "
	_, err = f.uc.EditSuggestedEmail(draft.ID, dto.EditRequest{Subject: &blank})
	assert.ErrorIs(t, err, domain.ErrEmptyContent)
	_, err = f.uc.EditSuggestedEmail(draft.ID, dto.EditRequest{Body: &blank})
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	stored, err := f.uc.GetSuggestedEmail(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "383 Westbourne", stored.Subject)
	assert.Equal(t, "Hi Mia Torres", stored.BodyContent)
	assert.Equal(t, domain.StatusApproved, stored.Status)
}

func TestSendApproved_RecordsLogAndHistory(t *testing.T) {
	f := setup(t)
	mia := f.addBroker(t, "01111111", "Mia Torres", "mia@compass.com")
	draft := f.addDraft(t, mia, "383 Westbourne")
	_, err := f.uc.ApproveSuggestedEmail(draft.ID)
	require.NoError(t, err)

	_, err = f.uc.SendApproved(context.Background(), draft.ID)
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "mia@compass.com", f.sender.sent[0].To)
	assert.Equal(t, f.rules.Profile.SenderName, f.sender.sent[0].FromName)

	logs, total, err := f.uc.ListSentLogs(mia.ID, "sent", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "sent-1", logs[0].GmailMessageID)

	summary, err := f.email.GetConversationSummary(mia.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SentCount)
	require.Len(t, summary.RecentMessages, 1)
	require.NotNil(t, summary.RecentMessages[0].SuggestedEmailID)
	assert.Equal(t, draft.ID, *summary.RecentMessages[0].SuggestedEmailID)

	// the fresh send starts the cool-down
	f.addListing(t, mia.ID, "7 Next St", "Active", "seller")
	eval, err := f.uc.EvaluateBroker(context.Background(), mia.ID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonTooRecent, eval.Reason)
	assert.Equal(t, 0, *eval.DaysSinceLastContact)
}

func TestSendApproved_RepliesInThread(t *testing.T) {
	f := setup(t)
	mia := f.addBroker(t, "01111111", "Mia Torres", "mia@compass.com")
	f.ingest(t, &gmail.Message{
		ID:              "m1",
		ThreadID:        "t-old",
		From:            account,
		To:              "mia@compass.com",
		HeaderMessageID: "<m1@mail.gmail.com>",
		InternalDate:    time.Now().Add(-40 * 24 * time.Hour),
	})

	draft := f.addDraft(t, mia, "Re: Financing")
	threadID := "t-old"
	draft.ReplyToThreadID = &threadID
	require.NoError(t, f.db.Save(draft).Error)
	_, err := f.uc.ApproveSuggestedEmail(draft.ID)
	require.NoError(t, err)

	_, err = f.uc.SendApproved(context.Background(), draft.ID)
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "t-old", f.sender.sent[0].ThreadID)
	assert.Equal(t, "<m1@mail.gmail.com>", f.sender.sent[0].InReplyTo)
}

func TestSendApproved_FailureStaysApproved(t *testing.T) {
	f := setup(t)
	mia := f.addBroker(t, "01111111", "Mia Torres", "mia@compass.com")
	draft := f.addDraft(t, mia, "383 Westbourne")
	_, err := f.uc.ApproveSuggestedEmail(draft.ID)
	require.NoError(t, err)

	f.sender.err = errors.New("gmail: 429 rate limit")
	failed, err := f.uc.SendApproved(context.Background(), draft.ID)
	assert.ErrorIs(t, err, ErrSendFailed)
	require.NotNil(t, failed)
	assert.Equal(t, domain.StatusApproved, failed.Status)
	assert.Equal(t, domain.SendStatusFailed, failed.SendStatus)
	assert.Contains(t, failed.LastError, "rate limit")

	logs, _, err := f.uc.ListSentLogs(mia.ID, "failed", 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].ErrorMessage, "rate limit")

	// the send loop leaves failed rows for a manual retry
	result, err := f.uc.SendDue(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Attempted)

	f.sender.err = nil
	sent, err := f.uc.SendApproved(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, sent.Status)
	assert.Empty(t, sent.LastError)
}

func TestSendDue_PacesSends(t *testing.T) {
	f := setup(t)
	mia := f.addBroker(t, "01111111", "Mia Torres", "mia@compass.com")
	pat := f.addBroker(t, "03333333", "Pat Lee", "pat@sothebys.com")
	for _, b := range []*brokerdomain.Broker{mia, pat} {
		d := f.addDraft(t, b, "Hello")
		_, err := f.uc.ApproveSuggestedEmail(d.ID)
		require.NoError(t, err)
	}
	f.addDraft(t, mia, "still a draft")

	result, err := f.uc.SendDue(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 2, result.Sent)
	assert.Len(t, f.sender.sent, 2)
	assert.Equal(t, []time.Duration{f.rules.Sender.GetDelayBetweenSends()}, f.sleeps)
}
