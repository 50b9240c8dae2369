// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Generation outcome labels.
const (
	StatusSuccess             = "success"
	StatusInsufficientCredits = "insufficient_credits"
	StatusFailed              = "failed"
)

// Webhook outcome labels.
const (
	WebhookApplied          = "applied"
	WebhookIgnored          = "ignored"
	WebhookDuplicate        = "duplicate"
	WebhookInvalidSignature = "invalid_signature"
	WebhookFailed           = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Message pipeline metrics
	IncGeneration(mode, status string)
	ObserveProviderDuration(provider string, duration time.Duration)
	AddCreditsDebited(n int)
	IncDebitSkipped()
	IncPersistFailure()

	// Billing metrics
	IncPurchaseInitiated(planID string)
	IncWebhookEvent(outcome string)
	AddCreditsGranted(n int)

	// Gallery cache metrics
	IncGalleryCacheHit()
	IncGalleryCacheMiss()
}
