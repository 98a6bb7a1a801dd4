/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/friendsincode/webrtc-sfu/internal/config"
	"github.com/friendsincode/webrtc-sfu/internal/logging"
	"github.com/friendsincode/webrtc-sfu/internal/server"
	"github.com/friendsincode/webrtc-sfu/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Environment)
	logger.Info().Msg("webrtc-sfu starting")
	for _, warning := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warning)
	}

	tracerProvider, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "webrtc-sfu",
		ServiceVersion: "dev",
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize server")
	}

	httpServer := srv.HTTPServer()

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := tracerProvider.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}

	logger.Info().Msg("webrtc-sfu stopped")
}
