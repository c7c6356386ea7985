package ai

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/sirupsen/logrus"
)

// FallbackService implements provider routing with fallback:
// the primary provider is always tried first, the secondary only when the
// primary fails with a connection or quota error.
type FallbackService struct {
	primary       EnrichmentService
	secondary     EnrichmentService
	primaryName   string
	secondaryName string
	logger        logrus.FieldLogger
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(primaryName string, primary EnrichmentService, secondaryName string, secondary EnrichmentService, logger logrus.FieldLogger) *FallbackService {
	return &FallbackService{
		primary:       primary,
		secondary:     secondary,
		primaryName:   primaryName,
		secondaryName: secondaryName,
		logger:        logger.WithField("component", "ai"),
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	// Check for network errors
	if _, ok := err.(net.Error); ok {
		return true
	}

	// Check for common connection error messages
	errStr := err.Error()
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"EOF",
	}

	for _, indicator := range connectionIndicators {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(indicator)) {
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

	errStr := err.Error()
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"RESOURCE_EXHAUSTED",
	}

	for _, indicator := range quotaIndicators {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(indicator)) {
			return true
		}
	}

	return false
}

func (f *FallbackService) shouldFallBack(ctx context.Context, err error) bool {
	if f.secondary == nil || ctx.Err() != nil {
		return false
	}
	return isConnectionError(err) || isQuotaError(err)
}

// Classify tries the primary provider, falling back on connection/quota errors
func (f *FallbackService) Classify(ctx context.Context, snippet, guidance string) (*Classification, error) {
	result, err := f.primary.Classify(ctx, snippet, guidance)
	if err == nil {
		return result, nil
	}
	if !f.shouldFallBack(ctx, err) {
		return nil, fmt.Errorf("%s classification failed: %w", f.primaryName, err)
	}

	f.logger.WithError(err).Warnf("%s unavailable for classification, falling back to %s", f.primaryName, f.secondaryName)
	result, err = f.secondary.Classify(ctx, snippet, guidance)
	if err != nil {
		return nil, fmt.Errorf("%s classification failed: %w", f.secondaryName, err)
	}
	return result, nil
}

// ComposeReply tries the primary provider, falling back on connection/quota errors
func (f *FallbackService) ComposeReply(ctx context.Context, summary, styleGuidance, instruction string) (string, error) {
	draft, err := f.primary.ComposeReply(ctx, summary, styleGuidance, instruction)
	if err == nil {
		return draft, nil
	}
	if !f.shouldFallBack(ctx, err) {
		return "", fmt.Errorf("%s reply generation failed: %w", f.primaryName, err)
	}

	f.logger.WithError(err).Warnf("%s unavailable for reply generation, falling back to %s", f.primaryName, f.secondaryName)
	draft, err = f.secondary.ComposeReply(ctx, summary, styleGuidance, instruction)
	if err != nil {
		return "", fmt.Errorf("%s reply generation failed: %w", f.secondaryName, err)
	}
	return draft, nil
}
