package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// FallbackService tries its providers in order and returns the first answer.
// A provider that is down or out of quota hands over to the next one.
type FallbackService struct {
	providers []TextGenerator
}

// NewFallbackService creates a fallback chain, skipping nil providers.
func NewFallbackService(providers ...TextGenerator) *FallbackService {
	f := &FallbackService{}
	for _, p := range providers {
		if p != nil {
			f.providers = append(f.providers, p)
		}
	}
	return f
}

func (f *FallbackService) Name() string {
	names := make([]string, len(f.providers))
	for i, p := range f.providers {
		names[i] = p.Name()
	}
	return "fallback(" + strings.Join(names, ",") + ")"
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusInternalServerError {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}
	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"resource_exhausted",
		"overloaded",
	}
	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// Generate implements TextGenerator
func (f *FallbackService) Generate(ctx context.Context, prompt string) (string, error) {
	if len(f.providers) == 0 {
		return "", ErrNoProvider
	}

	var lastErr error
	for i, p := range f.providers {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		result, err := p.Generate(ctx, prompt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		entry := logrus.WithFields(logrus.Fields{"component": "ai", "provider": p.Name()}).WithError(err)
		if i == len(f.providers)-1 {
			break
		}
		switch {
		case isQuotaError(err):
			entry.Warn("Provider quota exhausted, falling back")
		case isConnectionError(err):
			entry.Warn("Provider unreachable, falling back")
		default:
			entry.Warn("Provider error, falling back")
		}
	}

	return "", fmt.Errorf("all AI providers failed: %w", lastErr)
}
