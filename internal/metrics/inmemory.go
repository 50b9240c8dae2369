package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Generations             map[string]uint64 // keyed "mode/status"
	ProviderCalls           map[string]uint64
	ProviderDurationTotalNs int64
	CreditsDebited          int64
	DebitsSkipped           uint64
	PersistFailures         uint64
	Purchases               map[string]uint64
	WebhookEvents           map[string]uint64
	CreditsGranted          int64
	GalleryCacheHits        uint64
	GalleryCacheMisses      uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	creditsDebited          int64
	creditsGranted          int64
	providerDurationTotalNs int64
	debitsSkipped           uint64
	persistFailures         uint64
	galleryCacheHits        uint64
	galleryCacheMisses      uint64

	mu            sync.Mutex
	generations   map[string]uint64
	providerCalls map[string]uint64
	purchases     map[string]uint64
	webhookEvents map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		generations:   make(map[string]uint64),
		providerCalls: make(map[string]uint64),
		purchases:     make(map[string]uint64),
		webhookEvents: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Generations:             copyCounts(m.generations),
		ProviderCalls:           copyCounts(m.providerCalls),
		ProviderDurationTotalNs: atomic.LoadInt64(&m.providerDurationTotalNs),
		CreditsDebited:          atomic.LoadInt64(&m.creditsDebited),
		DebitsSkipped:           atomic.LoadUint64(&m.debitsSkipped),
		PersistFailures:         atomic.LoadUint64(&m.persistFailures),
		Purchases:               copyCounts(m.purchases),
		WebhookEvents:           copyCounts(m.webhookEvents),
		CreditsGranted:          atomic.LoadInt64(&m.creditsGranted),
		GalleryCacheHits:        atomic.LoadUint64(&m.galleryCacheHits),
		GalleryCacheMisses:      atomic.LoadUint64(&m.galleryCacheMisses),
	}
}

// IncGeneration counts a pipeline run by mode and outcome.
func (m *InMemoryRecorder) IncGeneration(mode, status string) {
	m.inc(m.generations, mode+"/"+status)
}

// ObserveProviderDuration records an outbound provider call.
func (m *InMemoryRecorder) ObserveProviderDuration(provider string, duration time.Duration) {
	m.inc(m.providerCalls, provider)
	atomic.AddInt64(&m.providerDurationTotalNs, duration.Nanoseconds())
}

// AddCreditsDebited adds to the debited credits total.
func (m *InMemoryRecorder) AddCreditsDebited(n int) {
	atomic.AddInt64(&m.creditsDebited, int64(n))
}

// IncDebitSkipped counts debits refused for lack of balance.
func (m *InMemoryRecorder) IncDebitSkipped() {
	atomic.AddUint64(&m.debitsSkipped, 1)
}

// IncPersistFailure counts failed persistence phases.
func (m *InMemoryRecorder) IncPersistFailure() {
	atomic.AddUint64(&m.persistFailures, 1)
}

// IncPurchaseInitiated counts checkout sessions opened per plan.
func (m *InMemoryRecorder) IncPurchaseInitiated(planID string) {
	m.inc(m.purchases, planID)
}

// IncWebhookEvent counts webhook deliveries by outcome.
func (m *InMemoryRecorder) IncWebhookEvent(outcome string) {
	m.inc(m.webhookEvents, outcome)
}

// AddCreditsGranted adds to the granted credits total.
func (m *InMemoryRecorder) AddCreditsGranted(n int) {
	atomic.AddInt64(&m.creditsGranted, int64(n))
}

// IncGalleryCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncGalleryCacheHit() {
	atomic.AddUint64(&m.galleryCacheHits, 1)
}

// IncGalleryCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncGalleryCacheMiss() {
	atomic.AddUint64(&m.galleryCacheMisses, 1)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, key string) {
	m.mu.Lock()
	counts[key]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
