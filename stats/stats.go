// Package stats instruments the client's request pipeline with Prometheus
// counters and latency histograms. Metrics are inert until a registerer is
// supplied.
/*
 * Copyright (c) 2024-2026, CloudRift Systems. All rights reserved.
 */
package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type (
	// Metrics aggregates per-operation request counts, error counts by
	// kind, transfer byte totals, and request latency. A nil *Metrics is
	// valid and records nothing.
	Metrics struct {
		requests *prometheus.CounterVec
		errors   *prometheus.CounterVec
		sent     prometheus.Counter
		received prometheus.Counter
		latency  *prometheus.HistogramVec
	}
)

// New builds the metric set and registers it with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "s3core",
			Name:      "requests_total",
			Help:      "Requests executed, by HTTP method and status class.",
		}, []string{"method", "status"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "s3core",
			Name:      "errors_total",
			Help:      "Failed requests, by error kind.",
		}, []string{"kind"}),
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "s3core",
			Name:      "sent_bytes_total",
			Help:      "Request payload bytes written.",
		}),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "s3core",
			Name:      "received_bytes_total",
			Help:      "Response payload bytes read.",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "s3core",
			Name:      "request_duration_seconds",
			Help:      "Wall-clock request duration.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"method"}),
	}
	reg.MustRegister(m.requests, m.errors, m.sent, m.received, m.latency)
	return m
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// Request records one completed request.
func (m *Metrics) Request(method string, statusCode int, dur time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, statusClass(statusCode)).Inc()
	m.latency.WithLabelValues(method).Observe(dur.Seconds())
}

// Error records a request that failed with the given error kind.
func (m *Metrics) Error(kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(kind).Inc()
}

func (m *Metrics) AddSent(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sent.Add(float64(n))
}

func (m *Metrics) AddReceived(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.received.Add(float64(n))
}
