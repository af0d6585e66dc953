package extract

import (
	"github.com/prometheus/client_golang/prometheus"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
)

const (
	MetricsNamespace        = "cookbook"
	MetricsSubsystemExtract = "extract"
)

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	extractionsTotal   *prometheus.CounterVec
	attemptsTotal      *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
	tokensTotal        *prometheus.CounterVec
	costUSDTotal       *prometheus.CounterVec
	duration           *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.extractionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemExtract,
		Name:      "runs_total",
		Help:      "Extractions by outcome.",
	}, []string{"recipe", "provider", "status"})
	m.registry.MustRegister(m.extractionsTotal)

	m.attemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemExtract,
		Name:      "attempts_total",
		Help:      "Model calls made, including corrective re-asks.",
	}, []string{"recipe", "provider"})
	m.registry.MustRegister(m.attemptsTotal)

	m.validationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemExtract,
		Name:      "validation_failures_total",
		Help:      "Model answers rejected by validation.",
	}, []string{"recipe", "provider"})
	m.registry.MustRegister(m.validationFailures)

	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemExtract,
		Name:      "cache_lookups_total",
		Help:      "Response cache lookups by result.",
	}, []string{"recipe", "result"})
	m.registry.MustRegister(m.cacheLookups)

	m.tokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemExtract,
		Name:      "tokens_total",
		Help:      "Tokens consumed.",
	}, []string{"recipe", "provider", "direction"})
	m.registry.MustRegister(m.tokensTotal)

	m.costUSDTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemExtract,
		Name:      "cost_usd_total",
		Help:      "Estimated spend in USD.",
	}, []string{"recipe", "provider"})
	m.registry.MustRegister(m.costUSDTotal)

	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemExtract,
		Name:      "duration_seconds",
		Help:      "Wall time per extraction.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"recipe", "provider"})
	m.registry.MustRegister(m.duration)

	return m
}

func (m *Metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps all metrics in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observe(r *Report, err error) {
	if m == nil || r == nil {
		return
	}
	status := "ok"
	switch {
	case err != nil:
		status = string(errx.KindOf(err))
	case r.Cached:
		status = "cached"
	}
	m.extractionsTotal.WithLabelValues(r.Name, r.Provider, status).Inc()
	m.attemptsTotal.WithLabelValues(r.Name, r.Provider).Add(float64(r.Attempts))
	m.tokensTotal.WithLabelValues(r.Name, r.Provider, "prompt").Add(float64(r.Usage.PromptTokens))
	m.tokensTotal.WithLabelValues(r.Name, r.Provider, "completion").Add(float64(r.Usage.CompletionTokens))
	m.costUSDTotal.WithLabelValues(r.Name, r.Provider).Add(r.CostUSD)
	m.duration.WithLabelValues(r.Name, r.Provider).Observe(r.Duration.Seconds())
}

func (m *Metrics) validationFailed(recipe, provider string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(recipe, provider).Inc()
}

func (m *Metrics) cacheLookup(recipe string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(recipe, result).Inc()
}
