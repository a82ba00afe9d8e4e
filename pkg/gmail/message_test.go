package gmail

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractAddress(t *testing.T) {
	assert.Equal(t, "mia@example.com", ExtractAddress(`"Mia Torres" <Mia@Example.com>`))
	assert.Equal(t, "mia@example.com", ExtractAddress("MIA@example.com"))
	assert.Equal(t, "odd@example.com", ExtractAddress("Odd, Name <odd@example.com>"))
	assert.Equal(t, "", ExtractAddress("  "))
}

func TestExtractAddresses(t *testing.T) {
	got := ExtractAddresses(`A <a@x.com>, b@y.com`)
	assert.Equal(t, []string{"a@x.com", "b@y.com"}, got)
	assert.Nil(t, ExtractAddresses(""))
}

func TestBuildRawMessage_Reply(t *testing.T) {
	raw := string(buildRawMessage(OutgoingMessage{
		From:      "dan@fund.com",
		FromName:  "Dan",
		To:        "mia@example.com",
		Subject:   "Congrats on 383 Westbourne",
		Body:      "Hi Mia,\nNice work.",
		InReplyTo: "<abc@mail.gmail.com>",
	}))

	assert.Contains(t, raw, "From: Dan <dan@fund.com>\r\n")
	assert.Contains(t, raw, "Subject: Congrats on 383 Westbourne\r\n")
	assert.Contains(t, raw, "In-Reply-To: <abc@mail.gmail.com>\r\n")
	assert.Contains(t, raw, "References: <abc@mail.gmail.com>\r\n")
	assert.True(t, strings.HasSuffix(raw, "Hi Mia,\r\nNice work.\r\n"))
}

func TestBuildRawMessage_EncodesNonASCIISubject(t *testing.T) {
	raw := string(buildRawMessage(OutgoingMessage{To: "a@b.com", Subject: "Félicitations"}))
	assert.Contains(t, raw, "Subject: =?utf-8?B?")
	assert.NotContains(t, raw, "In-Reply-To")
}

func TestConvertGmailMessage(t *testing.T) {
	msg := &gmail.Message{
		Id:           "m1",
		ThreadId:     "t1",
		InternalDate: 1760000000000,
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Mia <mia@example.com>"},
				{Name: "To", Value: "dan@fund.com"},
				{Name: "Subject", Value: "Re: hello"},
				{Name: "Message-ID", Value: "<id1@example.com>"},
				{Name: "In-Reply-To", Value: "<id0@fund.com>"},
			},
			Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("thanks!")}},
				{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<p>thanks!</p>")}},
			},
		},
	}

	m := convertGmailMessage(msg)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "t1", m.ThreadID)
	assert.Equal(t, "mia@example.com", m.FromAddress())
	assert.Equal(t, []string{"dan@fund.com"}, m.ToAddresses())
	assert.Equal(t, "thanks!", m.BodyText)
	assert.Equal(t, "<p>thanks!</p>", m.BodyHTML)
	assert.Equal(t, "<id1@example.com>", m.HeaderMessageID)
	assert.Equal(t, "<id0@fund.com>", m.InReplyTo)
	assert.Equal(t, int64(1760000000000), m.InternalDate.UnixMilli())
}

func TestConvertGmailMessage_HTMLOnly(t *testing.T) {
	msg := &gmail.Message{
		Id: "m2",
		Payload: &gmail.MessagePart{
			MimeType: "text/html",
			Body:     &gmail.MessagePartBody{Data: b64("<div>Hello<br>there</div><style>p{}</style>")},
		},
	}

	m := convertGmailMessage(msg)
	require.NotEmpty(t, m.BodyHTML)
	assert.Equal(t, "Hello\nthere", m.BodyText)
}

func TestPause(t *testing.T) {
	start := time.Now()
	require.NoError(t, pause(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	require.NoError(t, pause(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start = time.Now()
	assert.ErrorIs(t, pause(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
