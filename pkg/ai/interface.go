package ai

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrMalformedDecision is returned when a provider answer cannot be read as a decision.
	ErrMalformedDecision = errors.New("malformed outreach decision")
	// ErrNoProvider is returned when no text provider is configured.
	ErrNoProvider = errors.New("no AI provider available")
)

// ListingSummary is one listing as shown to the delegate.
type ListingSummary struct {
	ID      string   `json:"id"`
	Address string   `json:"address"`
	City    string   `json:"city,omitempty"`
	Price   *float64 `json:"price,omitempty"`
	Status  string   `json:"status"`
	Role    string   `json:"role"`
	Date    string   `json:"date,omitempty"`
}

// MessageSummary is one prior message of the conversation, body already truncated.
type MessageSummary struct {
	Direction string    `json:"direction"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

// ConversationStats is the rollup of all threads with the broker.
type ConversationStats struct {
	ThreadCount     int        `json:"thread_count"`
	SentCount       int        `json:"sent_count"`
	ReceivedCount   int        `json:"received_count"`
	LastInteraction *time.Time `json:"last_interaction,omitempty"`
	HasReplied      bool       `json:"has_replied"`
}

// SenderProfile is who the email is written as.
type SenderProfile struct {
	Name      string `json:"name"`
	Company   string `json:"company"`
	Phone     string `json:"phone,omitempty"`
	Pitch     string `json:"pitch,omitempty"`
	Signature string `json:"signature"`
}

// DecisionContext is everything the delegate sees about one broker.
type DecisionContext struct {
	BrokerName    string            `json:"broker_name"`
	BrokerEmail   string            `json:"broker_email"`
	BrokerageName string            `json:"brokerage_name"`
	LicenseNumber string            `json:"license_number"`
	NewListings   []ListingSummary  `json:"new_listings"`
	UsedListings  []ListingSummary  `json:"used_listings"`
	Messages      []MessageSummary  `json:"messages"`
	Conversation  ConversationStats `json:"conversation"`
	Tone          string            `json:"tone"`
	Template      string            `json:"template"`
	StyleExamples []string          `json:"style_examples,omitempty"`
	Sender        SenderProfile     `json:"sender"`
}

// EmailDraft is the copy proposed by the delegate.
type EmailDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Decision is the delegate's answer: send with a draft, or skip with a reason.
type Decision struct {
	Decision string      `json:"decision" validate:"required,oneof=send skip"`
	Reason   string      `json:"reason"`
	Email    *EmailDraft `json:"email"`
}

func (d *Decision) IsSend() bool {
	return d.Decision == "send"
}

// Decider decides whether and what to send to one broker.
// Implement this interface to plug in a model-backed or deterministic strategy.
type Decider interface {
	Decide(ctx context.Context, dc *DecisionContext) (*Decision, error)
}

// TextGenerator is a raw completion provider (Anthropic, Gemini, Ollama, ...).
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderGemini    ProviderType = "gemini"
	ProviderOllama    ProviderType = "ollama"
	ProviderRules     ProviderType = "rules"
	ProviderAuto      ProviderType = "auto"
)
