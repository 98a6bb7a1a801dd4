/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sfu

import (
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/friendsincode/webrtc-sfu/internal/events"
)

// Config is the subset of internal/config.Config that the sfu package
// needs: ICE server URLs and credentials.
type Config struct {
	STUNURLs       []string
	TURNURLs       []string
	TURNUsername   string
	TURNCredential string
}

// Service wires the host registry, the shared pion API, and the request
// dispatcher into the single http.Handler mounted at /ws/host and
// /ws/client.
type Service struct {
	api        *webrtc.API
	registry   *Registry
	iceServers []webrtc.ICEServer
	logger     zerolog.Logger
	bus        *events.Bus
}

// NewService builds the shared pion API (codecs + PLI interceptor) and
// an empty host registry. bus may be nil, in which case lifecycle events
// are not published.
func NewService(cfg Config, logger zerolog.Logger, bus *events.Bus) (*Service, error) {
	api, err := NewAPI()
	if err != nil {
		return nil, fmt.Errorf("sfu: new service: %w", err)
	}

	return &Service{
		api:        api,
		registry:   NewRegistry(),
		iceServers: defaultICEServers(cfg.STUNURLs, cfg.TURNURLs, cfg.TURNUsername, cfg.TURNCredential),
		logger:     logger.With().Str("component", "sfu").Logger(),
		bus:        bus,
	}, nil
}

// publish sends an event if a bus is configured; a nil bus is a no-op so
// Service remains usable in tests without wiring one up.
func (s *Service) publish(eventType events.EventType, payload events.Payload) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventType, payload)
}

// Registry exposes the host registry for health checks.
func (s *Service) Registry() *Registry {
	return s.registry
}
