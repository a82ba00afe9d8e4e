package ai

import (
	"context"
	"fmt"
	"strings"
)

// RulesDecider is a deterministic Decider. It always sends when there is a
// new listing and writes the copy from fixed templates, so it can stand in
// for a model in tests and when no provider is reachable.
type RulesDecider struct{}

func NewRulesDecider() *RulesDecider {
	return &RulesDecider{}
}

// Decide implements Decider
func (r *RulesDecider) Decide(ctx context.Context, dc *DecisionContext) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(dc.NewListings) == 0 {
		return &Decision{Decision: "skip", Reason: "No new listings to mention"}, nil
	}

	lead := dc.NewListings[0]
	address := lead.Address
	if address == "" {
		address = "your listing"
	}

	var subject, opener string
	switch dc.Template {
	case "buyer-closed":
		subject = "Congrats on closing " + address
		opener = fmt.Sprintf("Saw you closed on %s, congrats!", address)
	case "sale-pending":
		subject = "Congrats on " + address
		opener = fmt.Sprintf("Saw %s went under contract, nice work!", address)
	default:
		subject = address
		opener = fmt.Sprintf("Saw your new listing at %s, looks great.", address)
	}

	var body []string
	body = append(body, "Hi "+firstName(dc.BrokerName)+",", "", opener)
	switch dc.Tone {
	case "client":
	case "engaged":
		body = append(body, "", "Hope all is well since we last talked. Happy to help if any of your clients need quick financing.")
	case "outbound_only":
		body = append(body, "", "If any of your investor clients need fast financing on a deal, I'd be glad to help.")
	default:
		intro := fmt.Sprintf("I'm %s with %s.", dc.Sender.Name, dc.Sender.Company)
		if dc.Sender.Pitch != "" {
			intro += " " + dc.Sender.Pitch
		}
		body = append(body, "", intro, "No need to respond, just wanted to introduce myself.")
	}
	body = append(body, "", dc.Sender.Signature)

	return &Decision{
		Decision: "send",
		Reason:   fmt.Sprintf("%d new listing(s), %s relationship", len(dc.NewListings), dc.Tone),
		Email: &EmailDraft{
			Subject: subject,
			Body:    strings.TrimSpace(strings.Join(body, "\n")),
		},
	}, nil
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}
