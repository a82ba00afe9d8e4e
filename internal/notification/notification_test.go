package notification

import (
	"context"
	"errors"
	"testing"

	emaildomain "outreach-backend/internal/email/domain"
	emaildto "outreach-backend/internal/email/dto"
	"outreach-backend/pkg/fcm"

	"github.com/stretchr/testify/assert"
)

type fakeSyncer struct {
	calls int
	err   error
}

func (f *fakeSyncer) IncrementalSync(ctx context.Context) (*emaildto.SyncResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &emaildto.SyncResult{Mode: "incremental"}, nil
}

type fakePusher struct {
	sent   []fcm.NotificationData
	tokens [][]string
	failed []string
}

func (f *fakePusher) SendToDevices(ctx context.Context, tokens []string, n fcm.NotificationData) ([]string, error) {
	f.sent = append(f.sent, n)
	f.tokens = append(f.tokens, tokens)
	return f.failed, nil
}

type fakeTokens struct {
	tokens  []string
	deleted []string
}

func (f *fakeTokens) ListAllTokens() ([]string, error) { return f.tokens, nil }

func (f *fakeTokens) DeleteToken(token string) error {
	f.deleted = append(f.deleted, token)
	return nil
}

func TestShortTopicName(t *testing.T) {
	assert.Equal(t, "gmail-updates", ShortTopicName("projects/outreach/topics/gmail-updates"))
	assert.Equal(t, "inbox", ShortTopicName("inbox"))
	assert.Equal(t, "gmail-updates", ShortTopicName(""))
}

func TestHandleNotification(t *testing.T) {
	syncer := &fakeSyncer{}
	s := newService(syncer, "Dan@TrinityMortgage.com")
	ctx := context.Background()

	assert.True(t, s.handleNotification(ctx, []byte(`{"emailAddress":"dan@trinitymortgage.com","historyId":10}`)))
	assert.Equal(t, 1, syncer.calls)

	// stale and duplicate history IDs skip the sync
	assert.True(t, s.handleNotification(ctx, []byte(`{"emailAddress":"dan@trinitymortgage.com","historyId":10}`)))
	assert.True(t, s.handleNotification(ctx, []byte(`{"emailAddress":"dan@trinitymortgage.com","historyId":7}`)))
	assert.Equal(t, 1, syncer.calls)

	assert.True(t, s.handleNotification(ctx, []byte(`{"emailAddress":"someone@else.com","historyId":99}`)))
	assert.True(t, s.handleNotification(ctx, []byte(`not json`)))
	assert.Equal(t, 1, syncer.calls)
}

func TestHandleNotification_FailureIsRedelivered(t *testing.T) {
	syncer := &fakeSyncer{err: errors.New("gmail unavailable")}
	s := newService(syncer, "dan@trinitymortgage.com")
	payload := []byte(`{"emailAddress":"dan@trinitymortgage.com","historyId":10}`)

	assert.False(t, s.handleNotification(context.Background(), payload))

	syncer.err = nil
	assert.True(t, s.handleNotification(context.Background(), payload))
	assert.Equal(t, 2, syncer.calls)
}

func TestHandleNotification_BootstrapRequiredIsAcked(t *testing.T) {
	syncer := &fakeSyncer{err: emaildomain.ErrBootstrapRequired}
	s := newService(syncer, "dan@trinitymortgage.com")

	assert.True(t, s.handleNotification(context.Background(), []byte(`{"emailAddress":"dan@trinitymortgage.com","historyId":10}`)))
}

func TestNotifyOperators_DropsStaleTokens(t *testing.T) {
	pusher := &fakePusher{failed: []string{"stale"}}
	tokens := &fakeTokens{tokens: []string{"tok-1", "stale"}}
	n := NewOperatorNotifier(pusher, tokens)

	n.NotifyOperators(context.Background(), fcm.NotificationData{Title: "New draft"})

	assert.Len(t, pusher.sent, 1)
	assert.Equal(t, []string{"tok-1", "stale"}, pusher.tokens[0])
	assert.Equal(t, []string{"stale"}, tokens.deleted)
}

func TestNotifyOperators_NoDevices(t *testing.T) {
	pusher := &fakePusher{}
	n := NewOperatorNotifier(pusher, &fakeTokens{})

	n.NotifyOperators(context.Background(), fcm.NotificationData{Title: "New draft"})
	assert.Empty(t, pusher.sent)
}

func TestNotifyReplies(t *testing.T) {
	pusher := &fakePusher{}
	n := NewOperatorNotifier(pusher, &fakeTokens{tokens: []string{"tok-1"}})
	brokerID := "broker-1"

	n.NotifyReplies(context.Background(), []*emaildomain.EmailMessage{
		{GmailThreadID: "t1", BrokerID: &brokerID, FromEmail: "mia@compass.com", Subject: "Re: 12 Oak St"},
		{GmailThreadID: "t2", FromEmail: "x@y.com"},
	})

	if assert.Len(t, pusher.sent, 2) {
		assert.Equal(t, "Reply from mia@compass.com", pusher.sent[0].Title)
		assert.Equal(t, "Re: 12 Oak St", pusher.sent[0].Body)
		assert.Equal(t, "/brokers/broker-1", pusher.sent[0].Data["click_action"])
		assert.Equal(t, "(no subject)", pusher.sent[1].Body)
		assert.Equal(t, "/threads", pusher.sent[1].Data["click_action"])
	}
}
