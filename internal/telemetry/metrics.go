/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP-level metrics, recorded by MetricsMiddleware.
var (
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sfu_api_active_connections",
		Help: "Number of HTTP requests currently being served.",
	})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sfu_api_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfu_api_requests_total",
		Help: "Total HTTP requests served, labeled by method/endpoint/status.",
	}, []string{"method", "endpoint", "status"})
)

// Domain metrics, recorded by internal/sfu.
var (
	// ActiveHost is 1 while the registry is Pending or Ready, 0 when None.
	ActiveHost = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sfu_active_host",
		Help: "1 if a host is currently registered (pending or ready), else 0.",
	})

	// SessionsTotal counts sessions started, by role (host/client).
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sfu_sessions_total",
		Help: "Total signaling sessions started, labeled by role.",
	}, []string{"role"})

	// RTPPacketsForwarded counts RTP packets copied from the host's
	// remote track to the shared local track.
	RTPPacketsForwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sfu_rtp_packets_forwarded_total",
		Help: "Total RTP packets forwarded from the host track to the shared local track.",
	})

	// PLISent counts PictureLossIndication packets written to the host peer.
	PLISent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sfu_pli_sent_total",
		Help: "Total PLI RTCP packets sent to the host peer connection.",
	})

	// SessionDuration records how long sessions stay open, by role.
	SessionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sfu_session_duration_seconds",
		Help:    "Signaling session lifetime in seconds, labeled by role.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"role"})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
