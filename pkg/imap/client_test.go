package imap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawAlert = "From: Redfin <listings@redfin.com>\r\n" +
	"To: dan@fund.com\r\n" +
	"Subject: New listing in 92037\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"plain version\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<a href=\"https://www.redfin.com/CA/San-Diego/1-A-St-92037/home/1\">1 A St</a>\r\n" +
	"--b1--\r\n"

func TestReadAlert(t *testing.T) {
	section := &imap.BodySectionName{Peek: true}
	date := time.Date(2026, 10, 1, 7, 0, 0, 0, time.UTC)
	msg := &imap.Message{
		Uid: 42,
		Envelope: &imap.Envelope{
			Subject: "New listing in 92037",
			Date:    date,
			From:    []*imap.Address{{MailboxName: "listings", HostName: "redfin.com"}},
		},
		Body: map[*imap.BodySectionName]imap.Literal{
			{}: bytes.NewBufferString(rawAlert),
		},
	}

	alert, err := readAlert(msg, section)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), alert.UID)
	assert.Equal(t, "listings@redfin.com", alert.From)
	assert.Equal(t, date, alert.Date)
	assert.True(t, strings.Contains(alert.HTML, "redfin.com/CA/San-Diego"))
	assert.NotContains(t, alert.HTML, "plain version")
}

func TestReadAlert_NoHTML(t *testing.T) {
	raw := "From: a@b.com\r\nSubject: x\r\nContent-Type: text/plain\r\n\r\nhello\r\n"
	msg := &imap.Message{
		Uid:  1,
		Body: map[*imap.BodySectionName]imap.Literal{{}: bytes.NewBufferString(raw)},
	}

	_, err := readAlert(msg, &imap.BodySectionName{Peek: true})
	assert.Error(t, err)
}

func TestFetchUnseen_NotConfigured(t *testing.T) {
	_, err := NewAlertFetcher(Config{}).FetchUnseen(context.Background(), time.Time{})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}
