package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exports metrics through a dedicated registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	generations      *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	creditsDebited   prometheus.Counter
	debitsSkipped    prometheus.Counter
	persistFailures  prometheus.Counter
	purchases        *prometheus.CounterVec
	webhookEvents    *prometheus.CounterVec
	creditsGranted   prometheus.Counter
	galleryCache     *prometheus.CounterVec
}

// NewPrometheus creates a recorder with its own registry, including Go runtime collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()

	p := &PrometheusRecorder{
		registry: reg,
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intellichat_generations_total",
			Help: "Message pipeline runs by mode and outcome.",
		}, []string{"mode", "status"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intellichat_provider_request_duration_seconds",
			Help:    "Duration of outbound provider calls.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider"}),
		creditsDebited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "intellichat_credits_debited_total",
			Help: "Credits spent on generations.",
		}),
		debitsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "intellichat_credits_debit_skipped_total",
			Help: "Debits refused because the balance was already spent.",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "intellichat_persist_failures_total",
			Help: "Failed attempts to store a generated exchange.",
		}),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intellichat_purchases_initiated_total",
			Help: "Checkout sessions opened per plan.",
		}, []string{"plan"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intellichat_webhook_events_total",
			Help: "Payment webhook deliveries by outcome.",
		}, []string{"outcome"}),
		creditsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "intellichat_credits_granted_total",
			Help: "Credits granted by settled purchases.",
		}),
		galleryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "intellichat_gallery_cache_requests_total",
			Help: "Published image gallery cache lookups.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		p.generations,
		p.providerDuration,
		p.creditsDebited,
		p.debitsSkipped,
		p.persistFailures,
		p.purchases,
		p.webhookEvents,
		p.creditsGranted,
		p.galleryCache,
	)

	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncGeneration(mode, status string) {
	p.generations.WithLabelValues(mode, status).Inc()
}

func (p *PrometheusRecorder) ObserveProviderDuration(provider string, duration time.Duration) {
	p.providerDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) AddCreditsDebited(n int) {
	p.creditsDebited.Add(float64(n))
}

func (p *PrometheusRecorder) IncDebitSkipped() {
	p.debitsSkipped.Inc()
}

func (p *PrometheusRecorder) IncPersistFailure() {
	p.persistFailures.Inc()
}

func (p *PrometheusRecorder) IncPurchaseInitiated(planID string) {
	p.purchases.WithLabelValues(planID).Inc()
}

func (p *PrometheusRecorder) IncWebhookEvent(outcome string) {
	p.webhookEvents.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddCreditsGranted(n int) {
	p.creditsGranted.Add(float64(n))
}

func (p *PrometheusRecorder) IncGalleryCacheHit() {
	p.galleryCache.WithLabelValues("hit").Inc()
}

func (p *PrometheusRecorder) IncGalleryCacheMiss() {
	p.galleryCache.WithLabelValues("miss").Inc()
}
