/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHandlerExposesDomainMetrics checks that the Prometheus handler
// serves the counters/gauges sfu's registry and pump record, so a
// scrape after a host/client session would actually see them.
func TestHandlerExposesDomainMetrics(t *testing.T) {
	ActiveHost.Set(1)
	RTPPacketsForwarded.Inc()
	PLISent.Inc()
	SessionsTotal.WithLabelValues("host").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, req)

	require.Equal(t, 200, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "sfu_active_host")
	assert.Contains(t, body, "sfu_rtp_packets_forwarded_total")
	assert.Contains(t, body, "sfu_pli_sent_total")
	assert.Contains(t, body, "sfu_sessions_total")
}
