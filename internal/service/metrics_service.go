package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	dispatchTotal   *prometheus.CounterVec
	storeRefreshes  *prometheus.CounterVec
	rateLimited     prometheus.Counter
}

// NewMetricsService registers the collectors.
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

	dispatchTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "message_dispatch_total",
		Help: "Outbound messages by channel and outcome",
	}, []string{"channel", "outcome"})

	storeRefreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_refresh_total",
		Help: "Tenant store snapshot reloads by collection",
	}, []string{"collection"})

	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limited_requests_total",
		Help: "Requests refused by the messaging rate limiter",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, dispatchTotal, storeRefreshes, rateLimited, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		dispatchTotal:   dispatchTotal,
		storeRefreshes:  storeRefreshes,
		rateLimited:     rateLimited,
	}
}

// Handler exposes the scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one handled request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	s.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveDispatch records one outbound message outcome.
func (s *MetricsService) ObserveDispatch(channel string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	s.dispatchTotal.WithLabelValues(channel, outcome).Inc()
}

// ObserveStoreRefresh records one snapshot reload.
func (s *MetricsService) ObserveStoreRefresh(collection string) {
	s.storeRefreshes.WithLabelValues(collection).Inc()
}

// ObserveRateLimited records one refused request.
func (s *MetricsService) ObserveRateLimited() {
	s.rateLimited.Inc()
}
