/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sfu

import (
	"errors"
	"net"
	"net/http"

	"github.com/friendsincode/webrtc-sfu/internal/events"
	"github.com/friendsincode/webrtc-sfu/internal/telemetry"
)

// ServeHTTP implements spec.md section 4.6. It maps GET /ws/host and
// GET /ws/client to the host/client paths; everything else gets 404 or
// 405. A valid upgrade request is validated, dispatched through the
// peer-session factory, and answered with a 101 response before the
// session loop is spawned as a detached goroutine.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/ws/host" && r.URL.Path != "/ws/client" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// The query string is parsed by net/http's router but deliberately
	// left unread here; it is reserved for a future per-host naming
	// feature (see original_source/signal/src/main.rs).
	_ = r.URL.RawQuery

	handshake, err := ValidateHandshake(r.Header)
	if err != nil {
		if errors.Is(err, ErrMalformedUpgrade) {
			w.WriteHeader(http.StatusUpgradeRequired)
		} else {
			w.WriteHeader(http.StatusBadRequest)
		}
		return
	}

	if r.URL.Path == "/ws/host" {
		s.dispatchHost(w, handshake)
		return
	}
	s.dispatchClient(w, handshake)
}

// hijack asserts the response writer can take over the raw connection.
// Checked lazily, right before it's actually needed, so a cheap rejection
// (503 for no host, 500 for a failed peer construction) never depends on
// hijack support.
func hijack(w http.ResponseWriter) (http.Hijacker, bool) {
	hijacker, ok := w.(http.Hijacker)
	return hijacker, ok
}

func (s *Service) dispatchHost(w http.ResponseWriter, handshake Handshake) {
	// Registry transition must happen before the 101 response is
	// flushed, so a client racing the host sees a consistent view.
	if err := s.registry.MarkPending(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	telemetry.ActiveHost.Set(1)
	s.publish(events.EventHostConnected, nil)

	host, err := CreateHost(s.api, s.iceServers, handshake.Offer, s.logger)
	if err != nil {
		s.registry.Release()
		telemetry.ActiveHost.Set(0)
		s.logger.Error().Err(err).Msg("failed to create host peer connection")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	hijacker, ok := hijack(w)
	if !ok {
		host.Cancel()
		host.Peer.Close()
		s.registry.Release()
		telemetry.ActiveHost.Set(0)
		s.logger.Error().Msg("response writer does not support hijacking")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	conn, err := hijackAndRespond(hijacker, handshake.AcceptKey)
	if err != nil {
		host.Cancel()
		host.Peer.Close()
		s.registry.Release()
		telemetry.ActiveHost.Set(0)
		s.logger.Error().Err(err).Msg("failed to complete websocket upgrade")
		return
	}

	sess := &session{
		id:       newSessionID(),
		role:     roleHost,
		peer:     host.Peer,
		ws:       newWSConn(conn),
		ice:      host.ICE,
		track:    host.TrackSignal,
		registry: s.registry,
		logger:   s.logger,
		bus:      s.bus,
	}
	go s.runHostSession(sess, host)
}

func (s *Service) runHostSession(sess *session, host *HostPeer) {
	defer func() {
		host.Cancel()
		host.Peer.Close()
		sess.ws.close()
		s.registry.Release()
		telemetry.ActiveHost.Set(0)
		s.publish(events.EventHostDisconnected, nil)
	}()

	sess.run(host.Ctx, host.Answer)
}

func (s *Service) dispatchClient(w http.ResponseWriter, handshake Handshake) {
	track, err := s.registry.Subscribe()
	if err != nil {
		s.publish(events.EventClientRejected, nil)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	s.publish(events.EventClientConnected, nil)

	client, err := CreateClient(s.api, s.iceServers, handshake.Offer, track)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create client peer connection")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	hijacker, ok := hijack(w)
	if !ok {
		client.Cancel()
		client.Peer.Close()
		s.logger.Error().Msg("response writer does not support hijacking")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	conn, err := hijackAndRespond(hijacker, handshake.AcceptKey)
	if err != nil {
		client.Cancel()
		client.Peer.Close()
		s.logger.Error().Err(err).Msg("failed to complete websocket upgrade")
		return
	}

	sess := &session{
		id:       newSessionID(),
		role:     roleClient,
		peer:     client.Peer,
		ws:       newWSConn(conn),
		ice:      client.ICE,
		registry: s.registry,
		logger:   s.logger,
		bus:      s.bus,
	}
	go s.runClientSession(sess, client)
}

func (s *Service) runClientSession(sess *session, client *ClientPeer) {
	defer func() {
		client.Cancel()
		client.Peer.Close()
		sess.ws.close()
	}()

	sess.run(client.Ctx, client.Answer)
}

// hijackAndRespond takes over the raw connection and writes the 101
// response by hand, per spec.md section 4.1/4.6. The accept key was
// already computed by ValidateHandshake.
func hijackAndRespond(hijacker http.Hijacker, acceptKey string) (net.Conn, error) {
	conn, rw, err := hijacker.Hijack()
	if err != nil {
		return nil, err
	}

	response := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Connection: Upgrade\r\n" +
		"Upgrade: websocket\r\n" +
		"Sec-WebSocket-Accept: " + acceptKey + "\r\n\r\n"

	if _, err := rw.WriteString(response); err != nil {
		conn.Close()
		return nil, err
	}
	if err := rw.Flush(); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
