package ai

import (
	"context"
	"fmt"
)

// LLMDecider turns a text provider into a Decider.
type LLMDecider struct {
	gen TextGenerator
}

func NewLLMDecider(gen TextGenerator) *LLMDecider {
	return &LLMDecider{gen: gen}
}

// Decide implements Decider
func (d *LLMDecider) Decide(ctx context.Context, dc *DecisionContext) (*Decision, error) {
	if d.gen == nil {
		return nil, ErrNoProvider
	}

	answer, err := d.gen.Generate(ctx, BuildPrompt(dc))
	if err != nil {
		return nil, fmt.Errorf("%s generate failed: %w", d.gen.Name(), err)
	}

	return ParseDecision(answer)
}

// Provider returns the name of the underlying text provider.
func (d *LLMDecider) Provider() string {
	if d.gen == nil {
		return ""
	}
	return d.gen.Name()
}
