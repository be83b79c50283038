// Package metrics holds the Prometheus collectors shared by the flows, the
// generative service clients and the HTTP server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "conceptcompass"

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	genaiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "genai_requests_total",
			Help:      "Total number of generative service calls",
		},
		[]string{"provider", "model", "kind", "status"}, // kind: text, speech
	)

	genaiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "genai_request_duration_seconds",
			Help:      "Duration of generative service calls in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model", "kind"},
	)

	genaiRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "genai_retries_total",
			Help:      "Total number of retried generative service calls",
		},
		[]string{"provider", "model"},
	)

	flowRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_runs_total",
			Help:      "Total number of flow executions",
		},
		[]string{"flow", "status"},
	)

	flowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flow_duration_seconds",
			Help:      "Duration of flow executions in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"flow"},
	)

	audioBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_wav_bytes_total",
			Help:      "Total bytes of WAV audio produced",
		},
	)

	audioSecondsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_seconds_total",
			Help:      "Total playback length of WAV audio produced",
		},
	)

	audioMisalignedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_misaligned_total",
			Help:      "PCM buffers whose length was not a whole number of frames",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	workersBusy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_busy",
			Help:      "Number of worker slots currently held by requests",
		},
	)

	allMetrics = []prometheus.Collector{
		genaiRequestsTotal,
		genaiRequestDuration,
		genaiRetriesTotal,
		flowRunsTotal,
		flowDuration,
		audioBytesTotal,
		audioSecondsTotal,
		audioMisalignedTotal,
		httpRequestsTotal,
		httpRequestDuration,
		workersBusy,
	}
)

// NewRegistry returns a registry with every collector of this package plus
// the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(allMetrics...)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return reg
}

// Handler serves the exposition format for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func RecordGenAIRequest(provider, model, kind, status string, durationSeconds float64) {
	genaiRequestDuration.WithLabelValues(provider, model, kind).Observe(durationSeconds)
	genaiRequestsTotal.WithLabelValues(provider, model, kind, status).Inc()
}

func RecordGenAIRetry(provider, model string) {
	genaiRetriesTotal.WithLabelValues(provider, model).Inc()
}

func RecordFlow(flow, status string, durationSeconds float64) {
	flowDuration.WithLabelValues(flow).Observe(durationSeconds)
	flowRunsTotal.WithLabelValues(flow, status).Inc()
}

// RecordAudio records one produced WAV container.
func RecordAudio(wavBytes int, seconds float64) {
	audioBytesTotal.Add(float64(wavBytes))
	audioSecondsTotal.Add(seconds)
}

func RecordMisaligned() {
	audioMisalignedTotal.Inc()
}

func RecordHTTPRequest(route, code string, durationSeconds float64) {
	httpRequestDuration.WithLabelValues(route).Observe(durationSeconds)
	httpRequestsTotal.WithLabelValues(route, code).Inc()
}

// WorkerAcquired and WorkerReleased track worker slot usage.
func WorkerAcquired() { workersBusy.Inc() }

func WorkerReleased() { workersBusy.Dec() }
