package domain

// Tone is how warm the relationship with a broker already is.
type Tone string

const (
	ToneClient       Tone = "client"
	ToneEngaged      Tone = "engaged"
	ToneOutboundOnly Tone = "outbound_only"
	ToneCold         Tone = "cold"
)

// Template is the pitch category picked from the broker's new listings.
type Template string

const (
	TemplateBuyerClosed Template = "buyer-closed"
	TemplateSalePending Template = "sale-pending"
	TemplateSaleListing Template = "sale-listing"
)

type Verdict string

const (
	VerdictSend Verdict = "send"
	VerdictSkip Verdict = "skip"
	// VerdictError marks a broker whose evaluation failed in a batch
	VerdictError Verdict = "error"
)

// Evaluation is the outcome of one broker evaluation.
type Evaluation struct {
	BrokerID             string          `json:"broker_id"`
	BrokerName           string          `json:"broker_name"`
	Verdict              Verdict         `json:"decision"`
	Reason               string          `json:"reason"`
	Tone                 Tone            `json:"tone,omitempty"`
	Template             Template        `json:"template,omitempty"`
	NewListingIDs        []string        `json:"new_listing_ids,omitempty"`
	DaysSinceLastContact *int            `json:"days_since_last_contact,omitempty"`
	Draft                *SuggestedEmail `json:"draft,omitempty"`
	Suppression          *SuppressionLog `json:"suppression,omitempty"`
	DryRun               bool            `json:"dry_run,omitempty"`
}

// BatchResult tallies one pipeline run.
type BatchResult struct {
	Evaluated   int           `json:"evaluated"`
	Sent        int           `json:"send"`
	Skipped     int           `json:"skip"`
	Errors      int           `json:"error"`
	Evaluations []*Evaluation `json:"evaluations"`
}
