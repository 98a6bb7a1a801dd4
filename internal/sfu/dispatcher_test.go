/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sfu

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(Config{STUNURLs: []string{"stun:stun.l.google.com:19302"}}, zerolog.Nop(), nil)
	require.NoError(t, err)
	return svc
}

func upgradeRequest(t *testing.T, path string) *http.Request {
	t.Helper()
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0\r\n"}
	offerJSON, err := json.Marshal(offer)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	req.Header.Set("Sec-WebSocket-Protocol", string(offerJSON))
	return req
}

// TestServeHTTPUnknownPathReturns404 covers spec.md section 6: any path
// other than /ws/host or /ws/client is rejected.
func TestServeHTTPUnknownPathReturns404(t *testing.T) {
	svc := newTestService(t)
	rr := httptest.NewRecorder()
	svc.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServeHTTPWrongMethodReturns405(t *testing.T) {
	svc := newTestService(t)
	rr := httptest.NewRecorder()
	svc.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/ws/host", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

// TestServeHTTPMalformedUpgradeReturns426 covers spec.md section 8
// scenario 5: a missing WebSocket header fails the upgrade itself.
func TestServeHTTPMalformedUpgradeReturns426(t *testing.T) {
	svc := newTestService(t)
	req := upgradeRequest(t, "/ws/host")
	req.Header.Del("Sec-WebSocket-Version")

	rr := httptest.NewRecorder()
	svc.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUpgradeRequired, rr.Code)
}

func TestServeHTTPMalformedOfferReturns400(t *testing.T) {
	svc := newTestService(t)
	req := upgradeRequest(t, "/ws/host")
	req.Header.Set("Sec-WebSocket-Protocol", "not json")

	rr := httptest.NewRecorder()
	svc.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// TestServeHTTPClientWithNoHostReturns503 covers spec.md section 8
// scenario 1: a client connecting before any host is registered gets
// rejected without ever reaching the hijack step (httptest.Recorder
// does not implement http.Hijacker, so reaching it would answer 500,
// not 503 -- this confirms dispatchClient returns before hijacking).
func TestServeHTTPClientWithNoHostReturns503(t *testing.T) {
	svc := newTestService(t)
	req := upgradeRequest(t, "/ws/client")

	rr := httptest.NewRecorder()
	svc.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.False(t, svc.Registry().IsReady())
}

// TestServeHTTPHostMarksRegistryPendingBeforeHijackAttempt exercises the
// ordering guarantee from spec.md section 4.6: the registry transitions
// out of None before any attempt to build the peer connection, so a
// second concurrent host is rejected at the cheap check.
func TestServeHTTPHostMarksRegistryPendingBeforeHijackAttempt(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.registry.MarkPending())

	req := upgradeRequest(t, "/ws/host")
	rr := httptest.NewRecorder()
	svc.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
