package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"outreach-backend/pkg/validator"
)

// extractJSON strips markdown code fences and surrounding prose from a model answer.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```json"); i != -1 {
		text = text[i+len("```json"):]
		if j := strings.Index(text, "```"); j != -1 {
			text = text[:j]
		}
	} else if i := strings.Index(text, "```"); i != -1 {
		text = text[i+3:]
		if j := strings.Index(text, "```"); j != -1 {
			text = text[:j]
		}
	}
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		text = text[start : end+1]
	}
	return text
}

// ParseDecision reads a decision out of a raw model answer. A send decision
// without a subject and body is malformed.
func ParseDecision(text string) (*Decision, error) {
	var d Decision
	if err := json.Unmarshal([]byte(extractJSON(text)), &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}

	d.Decision = strings.ToLower(strings.TrimSpace(d.Decision))
	d.Reason = strings.TrimSpace(d.Reason)
	if err := validator.ValidateStruct(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}

	if d.IsSend() {
		if d.Email == nil || strings.TrimSpace(d.Email.Subject) == "" || strings.TrimSpace(d.Email.Body) == "" {
			return nil, fmt.Errorf("%w: send decision without subject and body", ErrMalformedDecision)
		}
		d.Email.Subject = strings.TrimSpace(d.Email.Subject)
		d.Email.Body = strings.TrimSpace(d.Email.Body)
	} else {
		d.Email = nil
	}

	return &d, nil
}
