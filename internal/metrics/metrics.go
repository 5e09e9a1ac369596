package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "apimarket"

// Metrics - коллекторы сервиса в собственном реестре
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	usageRecords     *prometheus.CounterVec
	usageFailures    prometheus.Counter
	paymentsCreated  *prometheus.CounterVec
	paymentsVerified *prometheus.CounterVec
	subsExpired      prometheus.Counter
}

// New создает реестр с go/process коллекторами и метриками сервиса
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		usageRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_records_total",
			Help:      "Recorded usage events by endpoint slug",
		}, []string{"endpoint"}),
		usageFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_failures_total",
			Help:      "Usage observations that failed and were swallowed",
		}),
		paymentsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_created_total",
			Help:      "Payments created by method",
		}, []string{"method"}),
		paymentsVerified: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_verified_total",
			Help:      "Payment verifications by method and resulting status",
		}, []string{"method", "status"}),
		subsExpired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_expired_total",
			Help:      "User subscriptions deactivated by the expiry worker",
		}),
	}
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) IncUsageRecorded(endpoint string) {
	m.usageRecords.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) IncUsageFailure() {
	m.usageFailures.Inc()
}

func (m *Metrics) IncPaymentCreated(method string) {
	m.paymentsCreated.WithLabelValues(method).Inc()
}

func (m *Metrics) IncPaymentVerified(method, status string) {
	m.paymentsVerified.WithLabelValues(method, status).Inc()
}

func (m *Metrics) AddSubscriptionsExpired(n int64) {
	if n > 0 {
		m.subsExpired.Add(float64(n))
	}
}

// Handler отдает метрики реестра в формате prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry нужен тестам для чтения значений
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
