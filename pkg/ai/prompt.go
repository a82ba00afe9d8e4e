package ai

import (
	"fmt"
	"strings"
)

var toneGuidance = map[string]string{
	"cold":          "Cold contact: introduce yourself and the company, mention the listing.",
	"outbound_only": "Previous outreach, no reply: do not re-introduce. Use the new activity as the reason to reconnect.",
	"engaged":       "Engaged (they have replied before): casual and warm, reference your history.",
	"client":        "Active client (heavy back-and-forth): super minimal, a quick \"saw this, nice\" note. 1-2 sentences max.",
}

var templateGuidance = map[string]string{
	"buyer-closed": "They represented the buyer on a deal that just closed. Congratulate them on the closing.",
	"sale-pending": "One of their listings just went pending. Congratulate them on getting it under contract.",
	"sale-listing": "They have a new active listing. Mention it as the reason you are reaching out.",
}

// FormatListingLine renders one listing as a single prompt line.
func FormatListingLine(l ListingSummary) string {
	address := l.Address
	if address == "" {
		address = "Unknown address"
	}
	price := "Price unknown"
	if l.Price != nil && *l.Price > 0 {
		price = "$" + formatThousands(int64(*l.Price))
	}
	return fmt.Sprintf("- %s | %s | %s | %s agent | %s", address, price, l.Status, l.Role, l.Date)
}

func formatThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func formatListings(newListings, usedListings []ListingSummary) string {
	var sections []string
	if len(newListings) > 0 {
		lines := []string{"**NEW LISTINGS (not yet emailed about):**"}
		for _, l := range newListings {
			lines = append(lines, FormatListingLine(l))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if len(usedListings) > 0 {
		lines := []string{"**PREVIOUS LISTINGS (already emailed about, for context only):**"}
		for _, l := range usedListings {
			lines = append(lines, FormatListingLine(l))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if len(sections) == 0 {
		return "No listings found for this broker."
	}
	return strings.Join(sections, "\n\n")
}

func formatConversationStats(c ConversationStats, sender string) string {
	if c.ThreadCount == 0 {
		return "No prior contact."
	}
	last := "unknown"
	if c.LastInteraction != nil {
		last = c.LastInteraction.Format("2006-01-02")
	}
	replied := "They have NOT replied to any of our emails."
	if c.HasReplied {
		replied = "They have replied to us."
	}
	return fmt.Sprintf("Prior contact summary:\n- %d email thread(s)\n- %d emails sent by %s\n- %d emails received from broker\n- Last interaction: %s\n- %s",
		c.ThreadCount, c.SentCount, sender, c.ReceivedCount, last, replied)
}

func formatMessages(messages []MessageSummary, sender string) string {
	if len(messages) == 0 {
		return "No prior email conversation with this broker."
	}
	lines := []string{"Conversation history (most recent first):\n"}
	who := strings.ToUpper(sender) + " SENT"
	for _, m := range messages {
		author := "BROKER REPLIED"
		if m.Direction == "outbound" {
			author = who
		}
		subject := m.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		lines = append(lines,
			fmt.Sprintf("[%s] %s", m.SentAt.Format("2006-01-02"), author),
			"Subject: "+subject,
			m.Body+"\n",
		)
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt renders the decision prompt for a broker.
func BuildPrompt(dc *DecisionContext) string {
	var b strings.Builder
	s := dc.Sender

	fmt.Fprintf(&b, "You are %s's outreach assistant at %s.\n\n", s.Name, s.Company)
	b.WriteString("## GOAL\nBuild relationships with real estate brokers so they think of us when their investor clients need capital.\n")
	if s.Pitch != "" {
		fmt.Fprintf(&b, "About %s: %s\n", s.Company, s.Pitch)
	}
	fmt.Fprintf(&b, "\n## VOICE\n%s's emails are short and casual, never salesy. Direct but friendly, no pressure. Reference specific properties to show attention.\n", s.Name)

	if len(dc.StyleExamples) > 0 {
		b.WriteString("\n## EXAMPLE EMAILS (style guides)\n")
		for i, ex := range dc.StyleExamples {
			fmt.Fprintf(&b, "\n### Example %d\n```\n%s\n```\n", i+1, strings.TrimSpace(ex))
		}
	}

	b.WriteString("\n---\n\n## BROKER TO EVALUATE\n\n")
	fmt.Fprintf(&b, "**Name:** %s\n**Email:** %s\n**Brokerage:** %s\n**License:** %s\n\n",
		orUnknown(dc.BrokerName), orUnknown(dc.BrokerEmail), orUnknown(dc.BrokerageName), orUnknown(dc.LicenseNumber))

	b.WriteString("## THEIR LISTING ACTIVITY\n\n")
	b.WriteString(formatListings(dc.NewListings, dc.UsedListings))
	b.WriteString("\n\nNote: only reference NEW listings. Previous listings are context.\n\n")

	b.WriteString("## EMAIL HISTORY WITH THIS BROKER\n\n")
	b.WriteString(formatConversationStats(dc.Conversation, s.Name))
	b.WriteString("\n\n")
	b.WriteString(formatMessages(dc.Messages, s.Name))

	b.WriteString("\n---\n\n## YOUR TASK\n\n")
	fmt.Fprintf(&b, "You ARE %s. Decide: would %s want to reach out right now?\n", s.Name, s.Name)
	b.WriteString("Skip only if there is truly no reason to reach out or an email would interrupt an active conversation about something specific.\n\n")
	if g, ok := toneGuidance[dc.Tone]; ok {
		fmt.Fprintf(&b, "Relationship (%s): %s\n", dc.Tone, g)
	}
	if g, ok := templateGuidance[dc.Template]; ok {
		fmt.Fprintf(&b, "Occasion (%s): %s\n", dc.Template, g)
	}

	b.WriteString("\n**Respond with valid JSON only:**\n\n```json\n")
	b.WriteString(`{
  "decision": "send" or "skip",
  "reason": "One sentence explaining your reasoning",
  "email": {
    "subject": "Short subject line",
    "body": "Full email body with signature"
  }
}`)
	b.WriteString("\n```\n\nIf decision is \"skip\", set email to null.\n")
	fmt.Fprintf(&b, "Keep emails under 100 words for cold contacts and shorter for warm ones. Always end with the signature block:\n%s\n", s.Signature)

	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
