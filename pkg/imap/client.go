package imap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"
)

var ErrNotConfigured = errors.New("imap alert mailbox is not configured")

// Config is the mailbox that receives listing alert emails.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Folder   string
	// Sender filters on the From header, e.g. "redfin.com"
	Sender string
}

// AlertEmail is one unread alert with its HTML body.
type AlertEmail struct {
	UID     uint32
	Subject string
	From    string
	Date    time.Time
	HTML    string
}

// AlertFetcher reads listing alerts over IMAP.
type AlertFetcher struct {
	cfg Config
}

func NewAlertFetcher(cfg Config) *AlertFetcher {
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	if cfg.Port == 0 {
		cfg.Port = 993
	}
	return &AlertFetcher{cfg: cfg}
}

func (f *AlertFetcher) Configured() bool {
	return f.cfg.Host != "" && f.cfg.Username != "" && f.cfg.Password != ""
}

// FetchUnseen returns unread alert emails since the given time and marks them
// seen once their bodies were read.
func (f *AlertFetcher) FetchUnseen(ctx context.Context, since time.Time) ([]AlertEmail, error) {
	if !f.Configured() {
		return nil, ErrNotConfigured
	}

	addr := fmt.Sprintf("%s:%d", f.cfg.Host, f.cfg.Port)
	c, err := client.DialTLS(addr, &tls.Config{ServerName: f.cfg.Host})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	defer c.Logout()

	if err := c.Login(f.cfg.Username, f.cfg.Password); err != nil {
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	if _, err := c.Select(f.cfg.Folder, false); err != nil {
		return nil, fmt.Errorf("failed to select mailbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	if !since.IsZero() {
		criteria.Since = since
	}
	if f.cfg.Sender != "" {
		criteria.Header.Add("From", f.cfg.Sender)
	}

	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, messages)
	}()

	var alerts []AlertEmail
	read := new(imap.SeqSet)
	for msg := range messages {
		if ctx.Err() != nil {
			continue
		}
		alert, err := readAlert(msg, section)
		if err != nil {
			logrus.WithFields(logrus.Fields{"component": "imap", "uid": msg.Uid}).WithError(err).Warn("Skipping unreadable alert")
			continue
		}
		alerts = append(alerts, *alert)
		read.AddNum(msg.Uid)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("error during fetch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !read.Empty() {
		flags := []interface{}{imap.SeenFlag}
		if err := c.UidStore(read, imap.FormatFlagsOp(imap.AddFlags, true), flags, nil); err != nil {
			logrus.WithField("component", "imap").WithError(err).Warn("Failed to mark alerts as seen")
		}
	}

	return alerts, nil
}

func readAlert(msg *imap.Message, section *imap.BodySectionName) (*AlertEmail, error) {
	literal := msg.GetBody(section)
	if literal == nil {
		return nil, fmt.Errorf("message body not found")
	}

	mr, err := mail.CreateReader(literal)
	if err != nil {
		return nil, fmt.Errorf("failed to create message reader: %w", err)
	}

	alert := &AlertEmail{UID: msg.Uid}
	if msg.Envelope != nil {
		alert.Subject = msg.Envelope.Subject
		alert.Date = msg.Envelope.Date.UTC()
		if len(msg.Envelope.From) > 0 {
			alert.From = msg.Envelope.From[0].Address()
		}
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to read next part: %w", err)
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if !strings.Contains(contentType, "text/html") {
			continue
		}
		b, err := io.ReadAll(p.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		alert.HTML = string(b)
		break
	}

	if alert.HTML == "" {
		return nil, fmt.Errorf("no html part")
	}
	return alert, nil
}
