// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gateway

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes recorded by [Metrics].
const (
	RefreshSuccess      = "success"
	RefreshRejected     = "rejected"
	RefreshFailed       = "failed"
	RefreshMissingToken = "missing_token"
	RefreshDiscarded    = "discarded"
)

// Metrics holds the Prometheus collectors of the gateway.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Refreshes       *prometheus.CounterVec
}

// NewMetrics creates the gateway collectors and registers them with registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantx_gateway_requests_total",
				Help: "Total number of backend requests by method and response status",
			},
			[]string{"method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tenantx_gateway_request_duration_seconds",
				Help:    "Backend request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		Refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tenantx_gateway_refresh_total",
				Help: "Silent token refresh attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// observeRequest records one backend exchange. A zero status means the
// request never got a response.
func (m *Metrics) observeRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.Requests.WithLabelValues(method, label).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// observeRefresh records one refresh outcome.
func (m *Metrics) observeRefresh(outcome string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(outcome).Inc()
}
