/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package sfu implements the host registry, peer-session factory, RTP
// forwarding pump, and WebSocket signaling loop that together form a
// one-to-many WebRTC livestream server: a single host publishes a video
// track, and any number of clients subscribe to a forwarded copy of it.
package sfu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
)

// hostState is the tagged union described by the host lifecycle:
// none -> pending -> ready -> none, plus pending -> none when the host
// leaves before publishing a track. No other transition is legal.
type hostState int

const (
	hostNone hostState = iota
	hostPending
	hostReady
)

func (s hostState) String() string {
	switch s {
	case hostNone:
		return "none"
	case hostPending:
		return "pending"
	case hostReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ErrAlreadyHosting is returned by MarkPending when a host is already
// pending or ready. At most one host may be registered at a time.
var ErrAlreadyHosting = errors.New("sfu: a host is already connected")

// ErrNoHostTrack is returned by Subscribe when no host track is ready.
var ErrNoHostTrack = errors.New("sfu: no host track is ready")

// Registry holds the single active host's state. Reads (Subscribe) may
// proceed concurrently with each other; writes (MarkPending, Publish,
// Release) are mutually exclusive with reads and each other, via a
// sync.RWMutex.
type Registry struct {
	mu    sync.RWMutex
	state hostState
	track *webrtc.TrackLocalStaticRTP
}

// NewRegistry returns a registry in the None state.
func NewRegistry() *Registry {
	return &Registry{}
}

// MarkPending transitions None -> Pending. It fails with ErrAlreadyHosting
// if a host is already pending or ready, so that concurrent host arrivals
// are serialized and only one wins.
func (r *Registry) MarkPending() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != hostNone {
		return ErrAlreadyHosting
	}
	r.state = hostPending
	return nil
}

// Publish transitions Pending -> Ready, attaching the local forwardable
// track. It is a programmer error to call Publish outside Pending.
func (r *Registry) Publish(track *webrtc.TrackLocalStaticRTP) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != hostPending {
		return fmt.Errorf("sfu: publish called while registry is %s, want pending", r.state)
	}
	r.track = track
	r.state = hostReady
	return nil
}

// Subscribe returns the host's forwardable track if the registry is
// Ready. Callers that observe Pending must treat it as "no host yet" and
// must not block waiting for promotion.
func (r *Registry) Subscribe() (*webrtc.TrackLocalStaticRTP, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != hostReady {
		return nil, ErrNoHostTrack
	}
	return r.track, nil
}

// Release transitions any state back to None. It is idempotent and is
// called unconditionally on host session teardown, including when the
// host disconnects before ever publishing a track.
func (r *Registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = hostNone
	r.track = nil
}

// IsReady reports whether a host track is currently attachable, without
// handing the track itself to the caller. Used for metrics/health checks.
func (r *Registry) IsReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == hostReady
}
