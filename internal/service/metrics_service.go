package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sitside-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP, cache and booking activity.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	cacheLatency      prometheus.Observer
	cacheWrite        prometheus.Observer
	cacheLookups      *prometheus.CounterVec
	bookingsCreated   prometheus.Counter
	bookingTransition *prometheus.CounterVec
	bookingConflicts  prometheus.Counter
	reviewsSubmitted  *prometheus.CounterVec
	ratingRecomputes  prometheus.Counter
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	bookingsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Bookings requested by parents",
	})

	bookingTransition := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_total",
		Help: "Applied booking status transitions",
	}, []string{"from", "to"})

	bookingConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "booking_version_conflicts_total",
		Help: "Booking writes that lost an optimistic version check",
	})

	reviewsSubmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_reviews_total",
		Help: "Reviews submitted by booking side",
	}, []string{"side"})

	ratingRecomputes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "student_rating_recomputations_total",
		Help: "Student rating aggregations written",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups,
		bookingsCreated, bookingTransition, bookingConflicts, reviewsSubmitted, ratingRecomputes, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheLookups:      cacheLookups,
		bookingsCreated:   bookingsCreated,
		bookingTransition: bookingTransition,
		bookingConflicts:  bookingConflicts,
		reviewsSubmitted:  reviewsSubmitted,
		ratingRecomputes:  ratingRecomputes,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// BookingCreated counts a new booking request.
func (m *MetricsService) BookingCreated() {
	if m == nil {
		return
	}
	m.bookingsCreated.Inc()
}

// BookingTransitioned counts an applied status change.
func (m *MetricsService) BookingTransitioned(from, to models.BookingStatus) {
	if m == nil {
		return
	}
	m.bookingTransition.WithLabelValues(string(from), string(to)).Inc()
}

// BookingVersionConflict counts a lost optimistic write.
func (m *MetricsService) BookingVersionConflict() {
	if m == nil {
		return
	}
	m.bookingConflicts.Inc()
}

// ReviewSubmitted counts a review by side ("student" or "parent").
func (m *MetricsService) ReviewSubmitted(side string) {
	if m == nil {
		return
	}
	m.reviewsSubmitted.WithLabelValues(side).Inc()
}

// RatingRecomputed counts a rating aggregation write.
func (m *MetricsService) RatingRecomputed() {
	if m == nil {
		return
	}
	m.ratingRecomputes.Inc()
}
