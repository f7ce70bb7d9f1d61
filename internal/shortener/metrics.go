package shortener

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sundayezeilo/shortenctl/internal/errx"
)

// Metrics records provider call counts and latencies.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the provider collectors and registers them with reg.
// A nil reg leaves them unregistered, which is what tests usually want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shortenctl",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Shorten calls per provider, by outcome.",
		}, []string{"service", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shortenctl",
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Latency of shorten calls per provider.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

// Instrument wraps p so every call is counted and timed.
func (m *Metrics) Instrument(p Provider) Provider {
	if m == nil {
		return p
	}
	return &instrumentedProvider{next: p, metrics: m}
}

type instrumentedProvider struct {
	next    Provider
	metrics *Metrics
}

func (p *instrumentedProvider) Service() ServiceID { return p.next.Service() }

func (p *instrumentedProvider) Shorten(ctx context.Context, credential, longURL string) (string, error) {
	service := p.next.Service().Short()
	start := time.Now()

	short, err := p.next.Shorten(ctx, credential, longURL)

	p.metrics.duration.WithLabelValues(service).Observe(time.Since(start).Seconds())
	p.metrics.requests.WithLabelValues(service, outcomeLabel(err)).Inc()
	return short, err
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	return strings.ToLower(errx.KindOf(err).String())
}
