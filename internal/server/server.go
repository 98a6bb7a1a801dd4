/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/friendsincode/webrtc-sfu/internal/config"
	"github.com/friendsincode/webrtc-sfu/internal/events"
	"github.com/friendsincode/webrtc-sfu/internal/sfu"
	"github.com/friendsincode/webrtc-sfu/internal/telemetry"
)

// Server bundles the HTTP router and the sfu.Service it mounts, per
// spec.md section 6's HTTP surface.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server

	bus *events.Bus
	sfu *sfu.Service
}

// New constructs the server and wires the signaling/SFU service onto the
// router, following the teacher's chi middleware stack (request id, real
// IP, structured request logging, panic recovery, tracing, metrics) with
// the request-timeout middleware skipped for the upgrade routes, exactly
// as the teacher skips it for its own long-running stream routes.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	bus := events.NewBus()

	sfuService, err := sfu.NewService(sfu.Config{
		STUNURLs:       []string{cfg.WebRTCSTUNURL},
		TURNURLs:       turnURLs(cfg.WebRTCTURNURL),
		TURNUsername:   cfg.WebRTCTURNUsername,
		TURNCredential: cfg.WebRTCTURNPassword,
	}, logger, bus)
	if err != nil {
		return nil, fmt.Errorf("new server: %w", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(telemetry.TracingMiddleware("webrtc-sfu"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(securityHeadersMiddleware)
	router.Use(skipTimeoutForUpgrades(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
		bus:    bus,
		sfu:    sfuService,
	}
	srv.configureRoutes()

	srv.httpServer = &http.Server{
		Addr:        cfg.HTTPBind + ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:     srv.router,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout 0: /ws/host and /ws/client hijack the connection
		// and own its lifetime from here on.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return srv, nil
}

// skipTimeoutForUpgrades mirrors the teacher's pattern of excusing
// long-running routes from the blanket request timeout: here, any
// request carrying the WebSocket Upgrade header.
func skipTimeoutForUpgrades(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		timeout := middleware.Timeout(d)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}
			timeout(next).ServeHTTP(w, r)
		})
	}
}

// securityHeadersMiddleware sets the baseline response headers the
// teacher applies to every route, minus the dashboard-specific iframe
// carve-outs that don't apply here: there is no embeddable UI in this
// server, only the two upgrade endpoints and /healthz, /metrics.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if r.Header.Get("X-Forwarded-Proto") == "https" || r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Bus exposes the host/session lifecycle event bus.
func (s *Server) Bus() *events.Bus {
	return s.bus
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if s.sfu.Registry().IsReady() {
			_, _ = w.Write([]byte(`{"status":"ok","host_ready":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","host_ready":false}`))
	})

	s.router.Handle("/metrics", telemetry.Handler())

	s.router.Get("/ws/host", s.sfu.ServeHTTP)
	s.router.Get("/ws/client", s.sfu.ServeHTTP)
}

func turnURLs(url string) []string {
	if url == "" {
		return nil
	}
	return []string{url}
}
