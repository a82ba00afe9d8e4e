package gmail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const user = "me"

var (
	// ErrHistoryExpired means the stored history cursor is older than Gmail keeps;
	// the mailbox has to be bootstrapped again.
	ErrHistoryExpired = errors.New("gmail history id is no longer valid")
	ErrNotConfigured  = errors.New("gmail account is not configured")
)

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc func(token *oauth2.Token) error

// Service talks to the single Gmail account outreach is sent from.
type Service struct {
	clientID       string
	clientSecret   string
	refreshToken   string
	account        string
	onTokenRefresh TokenUpdateFunc

	mu  sync.Mutex
	srv *gmail.Service
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			logrus.WithError(err).Warn("Failed to persist refreshed gmail token")
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret, refreshToken, account string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		account:      account,
	}
}

// SetTokenRefreshCallback registers a hook called whenever the access token rotates.
func (s *Service) SetTokenRefreshCallback(fn TokenUpdateFunc) {
	s.onTokenRefresh = fn
}

// Account returns the mailbox address.
func (s *Service) Account() string {
	return s.account
}

// Configured reports whether credentials are present.
func (s *Service) Configured() bool {
	return s.clientID != "" && s.clientSecret != "" && s.refreshToken != ""
}

// GetGmailService lazily builds the API client from the stored refresh token.
func (s *Service) GetGmailService(ctx context.Context) (*gmail.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return s.srv, nil
	}
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	token := &oauth2.Token{
		RefreshToken: s.refreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now(),
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailModifyScope},
	}

	wrappedSource := &notifyTokenSource{
		src:      config.TokenSource(context.Background(), token),
		current:  token,
		callback: s.onTokenRefresh,
	}

	client := oauth2.NewClient(context.Background(), wrappedSource)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}

	s.srv = srv
	return srv, nil
}

// Send delivers one plain-text message. When ThreadID is set the message
// joins that thread.
func (s *Service) Send(ctx context.Context, out OutgoingMessage) (*SentMessage, error) {
	srv, err := s.GetGmailService(ctx)
	if err != nil {
		return nil, err
	}

	if out.From == "" {
		out.From = s.account
	}

	msg := &gmail.Message{
		Raw:      encodeRaw(buildRawMessage(out)),
		ThreadId: out.ThreadID,
	}

	sent, err := srv.Users.Messages.Send(user, msg).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to send message: %w", err)
	}

	return &SentMessage{MessageID: sent.Id, ThreadID: sent.ThreadId}, nil
}

// GetMessage fetches one message in full format.
func (s *Service) GetMessage(ctx context.Context, id string) (*Message, error) {
	srv, err := s.GetGmailService(ctx)
	if err != nil {
		return nil, err
	}

	full, err := srv.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve message %s: %w", id, err)
	}

	return convertGmailMessage(full), nil
}

// Search returns every message matching a Gmail query, pausing delay between
// message fetches.
func (s *Service) Search(ctx context.Context, query string, delay time.Duration) ([]*Message, error) {
	srv, err := s.GetGmailService(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	call := srv.Users.Messages.List(user).Q(query).MaxResults(500)
	err = call.Pages(ctx, func(resp *gmail.ListMessagesResponse) error {
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to search messages: %w", err)
	}

	messages := make([]*Message, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			if err := pause(ctx, delay); err != nil {
				return messages, err
			}
		}
		msg, err := s.GetMessage(ctx, id)
		if err != nil {
			return messages, err
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// pause waits between message fetches; a cancelled context ends it early.
func pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ListHistory returns messages added since the cursor along with the newest
// history id. The cursor is exclusive. delay is slept between message fetches.
func (s *Service) ListHistory(ctx context.Context, since uint64, delay time.Duration) ([]*Message, uint64, error) {
	srv, err := s.GetGmailService(ctx)
	if err != nil {
		return nil, 0, err
	}

	latest := since
	seen := make(map[string]bool)
	var ids []string

	call := srv.Users.History.List(user).StartHistoryId(since).HistoryTypes("messageAdded")
	err = call.Pages(ctx, func(resp *gmail.ListHistoryResponse) error {
		if resp.HistoryId > latest {
			latest = resp.HistoryId
		}
		for _, h := range resp.History {
			for _, added := range h.MessagesAdded {
				if added.Message == nil || seen[added.Message.Id] {
					continue
				}
				seen[added.Message.Id] = true
				ids = append(ids, added.Message.Id)
			}
		}
		return nil
	})
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, since, ErrHistoryExpired
		}
		return nil, since, fmt.Errorf("unable to list history: %w", err)
	}

	messages := make([]*Message, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			if err := pause(ctx, delay); err != nil {
				return nil, since, err
			}
		}
		msg, err := s.GetMessage(ctx, id)
		if err != nil {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
				// deleted between the history entry and the fetch
				continue
			}
			return nil, since, err
		}
		messages = append(messages, msg)
	}

	return messages, latest, nil
}

// Profile returns the mailbox address and its current history id.
func (s *Service) Profile(ctx context.Context) (string, uint64, error) {
	srv, err := s.GetGmailService(ctx)
	if err != nil {
		return "", 0, err
	}

	profile, err := srv.Users.GetProfile(user).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("unable to get profile: %w", err)
	}

	return profile.EmailAddress, profile.HistoryId, nil
}

// Watch (re)starts push notifications for the inbox on a Pub/Sub topic.
func (s *Service) Watch(ctx context.Context, topicName string) (uint64, time.Time, error) {
	srv, err := s.GetGmailService(ctx)
	if err != nil {
		return 0, time.Time{}, err
	}

	// Only one push client is allowed per mailbox
	_ = srv.Users.Stop(user).Context(ctx).Do()

	req := &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{"INBOX"},
	}

	resp, err := srv.Users.Watch(user, req).Context(ctx).Do()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("unable to watch mailbox: %w", err)
	}

	expiration := time.UnixMilli(resp.Expiration).UTC()
	logrus.WithFields(logrus.Fields{
		"component":  "gmail",
		"topic":      topicName,
		"history_id": resp.HistoryId,
		"expires_at": expiration,
	}).Info("Gmail watch started")

	return resp.HistoryId, expiration, nil
}

// Stop ends push notifications for the mailbox.
func (s *Service) Stop(ctx context.Context) error {
	srv, err := s.GetGmailService(ctx)
	if err != nil {
		return err
	}
	return srv.Users.Stop(user).Context(ctx).Do()
}
