package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func msgAt(direction Direction, at time.Time, subject string) *EmailMessage {
	return &EmailMessage{Direction: direction, SentAt: at, Subject: subject}
}

func TestEmailThread_Apply(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		messages []*EmailMessage
		want     ThreadStatus
	}{
		{
			name:     "inbound only",
			messages: []*EmailMessage{msgAt(DirectionInbound, base, "Hi")},
			want:     ThreadStatusActive,
		},
		{
			name:     "outbound only",
			messages: []*EmailMessage{msgAt(DirectionOutbound, base, "Listings")},
			want:     ThreadStatusAwaitingReply,
		},
		{
			name: "reply after outbound",
			messages: []*EmailMessage{
				msgAt(DirectionOutbound, base, "Listings"),
				msgAt(DirectionInbound, base.Add(time.Hour), "Re: Listings"),
			},
			want: ThreadStatusReplied,
		},
		{
			name: "follow up after reply",
			messages: []*EmailMessage{
				msgAt(DirectionOutbound, base, "Listings"),
				msgAt(DirectionInbound, base.Add(time.Hour), "Re: Listings"),
				msgAt(DirectionOutbound, base.Add(2*time.Hour), "Re: Listings"),
			},
			want: ThreadStatusAwaitingReply,
		},
		{
			name: "late import of an older message",
			messages: []*EmailMessage{
				msgAt(DirectionInbound, base.Add(time.Hour), "Re: Listings"),
				msgAt(DirectionOutbound, base, "Listings"),
			},
			want: ThreadStatusReplied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thread := &EmailThread{Status: ThreadStatusActive}
			for _, m := range tt.messages {
				thread.Apply(m)
			}
			assert.Equal(t, tt.want, thread.Status)
			assert.Equal(t, len(tt.messages), thread.MessageCount)
		})
	}
}

func TestEmailThread_ApplyTracksBounds(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	thread := &EmailThread{}

	thread.Apply(msgAt(DirectionOutbound, base.Add(time.Hour), "Re: Listings"))
	thread.Apply(msgAt(DirectionOutbound, base, "Listings"))

	assert.Equal(t, base, *thread.FirstMessageAt)
	assert.Equal(t, base.Add(time.Hour), *thread.LastMessageAt)
	assert.Equal(t, "Re: Listings", thread.Subject)
	assert.Equal(t, 2, thread.OutboundCount)
	assert.Equal(t, DirectionOutbound, thread.LastDirection)
}

func TestEmailThread_ClosedStaysClosed(t *testing.T) {
	thread := &EmailThread{Status: ThreadStatusClosed}
	thread.Apply(msgAt(DirectionInbound, time.Now(), "Re: Listings"))

	assert.Equal(t, ThreadStatusClosed, thread.Status)
	assert.False(t, thread.IsOpen())
}

func TestEmailThread_IsOpen(t *testing.T) {
	assert.True(t, (&EmailThread{Status: ThreadStatusActive}).IsOpen())
	assert.True(t, (&EmailThread{Status: ThreadStatusAwaitingReply}).IsOpen())
	assert.False(t, (&EmailThread{Status: ThreadStatusReplied}).IsOpen())
}
