package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer
// and the campaign dispatch pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	campaignsSent   prometheus.Counter
	campaignsFailed prometheus.Counter
	sweepDuration   prometheus.Histogram
	sweepProcessed  prometheus.Histogram
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	campaignsSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campaigns_sent_total",
		Help: "Total campaigns dispatched successfully",
	})

	campaignsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "campaigns_failed_total",
		Help: "Total campaigns that ended in the failed state",
	})

	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "campaign_sweep_duration_seconds",
		Help:    "Duration of scheduled-email sweep runs",
		Buckets: prometheus.DefBuckets,
	})

	sweepProcessed := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "campaign_sweep_processed",
		Help:    "Campaigns claimed per sweep run",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, campaignsSent, campaignsFailed, sweepDuration, sweepProcessed, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		campaignsSent:   campaignsSent,
		campaignsFailed: campaignsFailed,
		sweepDuration:   sweepDuration,
		sweepProcessed:  sweepProcessed,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records per-request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// CampaignSent counts a successful dispatch.
func (m *MetricsService) CampaignSent() {
	if m == nil {
		return
	}
	m.campaignsSent.Inc()
}

// CampaignFailed counts a failed dispatch, including TTL reconciliations.
func (m *MetricsService) CampaignFailed() {
	if m == nil {
		return
	}
	m.campaignsFailed.Inc()
}

// ObserveSweep records one sweep run.
func (m *MetricsService) ObserveSweep(duration time.Duration, processed int) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(duration.Seconds())
	m.sweepProcessed.Observe(float64(processed))
}
