package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"outreach-backend/pkg/validator"

	"gopkg.in/yaml.v3"
)

// MinDelegateDelay is the floor for the pause between two LLM delegate calls.
const MinDelegateDelay = time.Second

// Rules holds the outreach business rules loaded from the rules YAML file.
type Rules struct {
	Outreach OutreachRules `yaml:"outreach"`
	Sync     SyncRules     `yaml:"sync"`
	Schedule ScheduleRules `yaml:"schedule"`
	Sender   SenderRules   `yaml:"sender"`
	Profile  ProfileRules  `yaml:"profile"`
}

type OutreachRules struct {
	CooldownDays           int      `yaml:"cooldown_days" validate:"min=0"`
	HeavyInboundThreshold  int      `yaml:"heavy_inbound_threshold" validate:"min=1"`
	DelegateDelayMs        int      `yaml:"delegate_delay_ms" validate:"min=0"`
	DelegateRetryBackoffMs int      `yaml:"delegate_retry_backoff_ms" validate:"min=0"`
	HistoryMessageLimit    int      `yaml:"history_message_limit" validate:"min=1"`
	BodyPreviewChars       int      `yaml:"body_preview_chars" validate:"min=1"`
	BatchLimit             int      `yaml:"batch_limit" validate:"min=1"`
	SkipWhenPendingDraft   bool     `yaml:"skip_when_pending_draft"`
	MaxListingIDs          int      `yaml:"max_listing_ids" validate:"min=0"`
	ExcludedEmails         []string `yaml:"excluded_emails"`
	StyleExampleLimit      int      `yaml:"style_example_limit" validate:"min=0"`
}

type SyncRules struct {
	FetchDelayMs               int `yaml:"fetch_delay_ms" validate:"min=0"`
	IncrementalIntervalMinutes int `yaml:"incremental_interval_minutes" validate:"min=0"`
}

type ScheduleRules struct {
	DailyRunEnabled bool   `yaml:"daily_run_enabled"`
	DailyRunTime    string `yaml:"daily_run_time"`
}

type SenderRules struct {
	Enabled                  bool `yaml:"enabled"`
	IntervalSeconds          int  `yaml:"interval_seconds" validate:"min=1"`
	DelayBetweenSendsSeconds int  `yaml:"delay_between_sends_seconds" validate:"min=0"`
}

// ProfileRules describes who the outreach is written as.
type ProfileRules struct {
	SenderName string `yaml:"sender_name" validate:"required"`
	Company    string `yaml:"company" validate:"required"`
	Phone      string `yaml:"phone"`
	Pitch      string `yaml:"pitch"`
}

// Signature is the sign-off block appended to every outreach email.
func (p *ProfileRules) Signature() string {
	lines := []string{p.SenderName, p.Company}
	if p.Phone != "" {
		lines = append(lines, p.Phone)
	}
	return strings.Join(lines, "\n")
}

// DefaultRules returns the rules used when no file is present.
func DefaultRules() *Rules {
	return &Rules{
		Outreach: OutreachRules{
			CooldownDays:           30,
			HeavyInboundThreshold:  5,
			DelegateDelayMs:        1000,
			DelegateRetryBackoffMs: 2000,
			HistoryMessageLimit:    10,
			BodyPreviewChars:       500,
			BatchLimit:             50,
			SkipWhenPendingDraft:   true,
			StyleExampleLimit:      2,
		},
		Sync: SyncRules{
			FetchDelayMs:               100,
			IncrementalIntervalMinutes: 5,
		},
		Schedule: ScheduleRules{
			DailyRunEnabled: false,
			DailyRunTime:    "07:00",
		},
		Sender: SenderRules{
			Enabled:                  true,
			IntervalSeconds:          60,
			DelayBetweenSendsSeconds: 5,
		},
		Profile: ProfileRules{
			SenderName: "Dan",
			Company:    "Trinity Mortgage Fund",
			Pitch:      "Private lender for business-purpose real estate loans (bridge, fix and flip, new construction, cash-out refi) that can close in under 10 days.",
		},
	}
}

// LoadRules loads the rules from a YAML file on top of DefaultRules.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	if err := validator.ValidateStruct(rules); err != nil {
		return nil, fmt.Errorf("invalid rules file: %w", err)
	}

	for i, email := range rules.Outreach.ExcludedEmails {
		rules.Outreach.ExcludedEmails[i] = strings.ToLower(strings.TrimSpace(email))
	}

	return rules, nil
}

// GetCooldown returns the cool-down window as a duration
func (o *OutreachRules) GetCooldown() time.Duration {
	return time.Duration(o.CooldownDays) * 24 * time.Hour
}

// GetDelegateDelay never returns less than MinDelegateDelay.
func (o *OutreachRules) GetDelegateDelay() time.Duration {
	d := time.Duration(o.DelegateDelayMs) * time.Millisecond
	if d < MinDelegateDelay {
		return MinDelegateDelay
	}
	return d
}

func (o *OutreachRules) GetDelegateRetryBackoff() time.Duration {
	return time.Duration(o.DelegateRetryBackoffMs) * time.Millisecond
}

// IsExcluded reports whether an address is on the do-not-contact list.
func (o *OutreachRules) IsExcluded(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, excluded := range o.ExcludedEmails {
		if excluded == email {
			return true
		}
	}
	return false
}

func (s *SyncRules) GetFetchDelay() time.Duration {
	return time.Duration(s.FetchDelayMs) * time.Millisecond
}

func (s *SyncRules) GetIncrementalInterval() time.Duration {
	return time.Duration(s.IncrementalIntervalMinutes) * time.Minute
}

func (s *SenderRules) GetInterval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

func (s *SenderRules) GetDelayBetweenSends() time.Duration {
	return time.Duration(s.DelayBetweenSendsSeconds) * time.Second
}
