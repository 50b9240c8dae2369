package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncGeneration(mode, status string)                        {}
func (n *NoopRecorder) ObserveProviderDuration(provider string, d time.Duration) {}
func (n *NoopRecorder) AddCreditsDebited(int)                                    {}
func (n *NoopRecorder) IncDebitSkipped()                                         {}
func (n *NoopRecorder) IncPersistFailure()                                       {}
func (n *NoopRecorder) IncPurchaseInitiated(planID string)                       {}
func (n *NoopRecorder) IncWebhookEvent(outcome string)                           {}
func (n *NoopRecorder) AddCreditsGranted(int)                                    {}
func (n *NoopRecorder) IncGalleryCacheHit()                                      {}
func (n *NoopRecorder) IncGalleryCacheMiss()                                     {}
