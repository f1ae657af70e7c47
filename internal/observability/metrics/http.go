package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	answersTotal     *prometheus.CounterVec
	retrievedChunks  *prometheus.HistogramVec
	answerDuration   *prometheus.HistogramVec
	indexSwapsTotal  *prometheus.CounterVec
	indexChunksGauge *prometheus.GaugeVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apv",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "apv",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "apv",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	answersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apv",
			Subsystem: "rag",
			Name:      "answers_total",
			Help:      "Total completed answers by pipeline path.",
		},
		[]string{"service", "path"},
	)
	retrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "apv",
			Subsystem: "rag",
			Name:      "retrieved_chunks",
			Help:      "Distribution of context chunks used per grounded answer.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service"},
	)
	answerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "apv",
			Subsystem: "rag",
			Name:      "answer_duration_seconds",
			Help:      "End-to-end answer pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "path"},
	)
	indexSwapsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apv",
			Subsystem: "rag",
			Name:      "index_swaps_total",
			Help:      "Total hot swaps to a rebuilt index by outcome.",
		},
		[]string{"service", "outcome"},
	)
	indexChunksGauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "apv",
			Subsystem: "rag",
			Name:      "index_chunks",
			Help:      "Number of chunks in the currently served index.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		answersTotal,
		retrievedChunks,
		answerDuration,
		indexSwapsTotal,
		indexChunksGauge,
	)

	return &HTTPServerMetrics{
		registry:         registry,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		answersTotal:     answersTotal,
		retrievedChunks:  retrievedChunks,
		answerDuration:   answerDuration,
		indexSwapsTotal:  indexSwapsTotal,
		indexChunksGauge: indexChunksGauge,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordAnswer(service string, grounded bool, usedChunks int, duration time.Duration) {
	path := "fallback"
	if grounded {
		path = "grounded"
		m.retrievedChunks.WithLabelValues(service).Observe(float64(usedChunks))
	}
	m.answersTotal.WithLabelValues(service, path).Inc()
	m.answerDuration.WithLabelValues(service, path).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordIndexSwap(service string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.indexSwapsTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) SetIndexChunks(service string, n int) {
	m.indexChunksGauge.WithLabelValues(service).Set(float64(n))
}
