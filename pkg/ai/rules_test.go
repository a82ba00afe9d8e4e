package ai

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSender = SenderProfile{
	Name:      "Dan",
	Company:   "Trinity Mortgage Fund",
	Signature: "Dan\nTrinity Mortgage Fund",
}

func TestRulesDecider_ColdPending(t *testing.T) {
	dc := &DecisionContext{
		BrokerName:  "Mia Torres",
		NewListings: []ListingSummary{{ID: "l1", Address: "383 Westbourne", Status: "pending", Role: "seller"}},
		Tone:        "cold",
		Template:    "sale-pending",
		Sender:      testSender,
	}

	d, err := NewRulesDecider().Decide(context.Background(), dc)
	require.NoError(t, err)
	assert.True(t, d.IsSend())
	assert.Equal(t, "Congrats on 383 Westbourne", d.Email.Subject)
	assert.Contains(t, d.Email.Body, "Hi Mia,")
	assert.Contains(t, d.Email.Body, "I'm Dan with Trinity Mortgage Fund.")
	assert.True(t, strings.HasSuffix(d.Email.Body, "Dan\nTrinity Mortgage Fund"))
}

func TestRulesDecider_ClientIsMinimal(t *testing.T) {
	dc := &DecisionContext{
		BrokerName:  "Sam",
		NewListings: []ListingSummary{{Address: "1 Main St"}},
		Tone:        "client",
		Template:    "buyer-closed",
		Sender:      testSender,
	}

	d, err := NewRulesDecider().Decide(context.Background(), dc)
	require.NoError(t, err)
	assert.Equal(t, "Congrats on closing 1 Main St", d.Email.Subject)
	assert.NotContains(t, d.Email.Body, "introduce myself")
}

func TestRulesDecider_SkipsWithoutNewListings(t *testing.T) {
	d, err := NewRulesDecider().Decide(context.Background(), &DecisionContext{})
	require.NoError(t, err)
	assert.False(t, d.IsSend())
	assert.NotEmpty(t, d.Reason)
}

func TestBuildPrompt_IncludesContext(t *testing.T) {
	price := 1250000.0
	last := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	dc := &DecisionContext{
		BrokerName:   "Mia Torres",
		BrokerEmail:  "mia@example.com",
		NewListings:  []ListingSummary{{Address: "383 Westbourne", Price: &price, Status: "pending", Role: "seller"}},
		UsedListings: []ListingSummary{{Address: "9 Old Rd", Status: "sold", Role: "buyer"}},
		Messages: []MessageSummary{
			{Direction: "inbound", Subject: "Re: hi", Body: "thanks!", SentAt: last},
		},
		Conversation:  ConversationStats{ThreadCount: 1, SentCount: 1, ReceivedCount: 1, LastInteraction: &last, HasReplied: true},
		Tone:          "engaged",
		Template:      "sale-pending",
		StyleExamples: []string{"Hi Bob, saw 12 Elm went pending."},
		Sender:        testSender,
	}

	p := BuildPrompt(dc)
	assert.Contains(t, p, "- 383 Westbourne | $1,250,000 | pending | seller agent")
	assert.Contains(t, p, "PREVIOUS LISTINGS")
	assert.Contains(t, p, "9 Old Rd")
	assert.Contains(t, p, "They have replied to us.")
	assert.Contains(t, p, "Last interaction: 2026-09-01")
	assert.Contains(t, p, "BROKER REPLIED")
	assert.Contains(t, p, "Relationship (engaged)")
	assert.Contains(t, p, "Hi Bob, saw 12 Elm went pending.")
}

func TestFormatThousands(t *testing.T) {
	assert.Equal(t, "999", formatThousands(999))
	assert.Equal(t, "1,000", formatThousands(1000))
	assert.Equal(t, "12,345,678", formatThousands(12345678))
}
