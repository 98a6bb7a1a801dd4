/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config covers process-level configuration read from environment
// variables. There is no persisted state (spec.md section 6): everything
// the server needs to run lives here or in OS-provided networking.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	MetricsBind string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	// WebRTC ICE configuration
	WebRTCSTUNURL      string
	WebRTCTURNURL      string
	WebRTCTURNUsername string
	WebRTCTURNPassword string

	LegacyEnvWarnings []string
}

// Load reads environment variables, applies defaults, and validates the
// result, using the alias-key pattern of the teacher this was forked
// from: SFU_* is canonical, GRIMNIR_* is accepted as a legacy alias for
// anyone still carrying over the old deployment's env files.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"SFU_ENV", "GRIMNIR_ENV"}, "development"),
		HTTPBind:    getEnvAny([]string{"SFU_HTTP_BIND", "GRIMNIR_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"SFU_HTTP_PORT", "GRIMNIR_HTTP_PORT"}, 3000),
		MetricsBind: getEnvAny([]string{"SFU_METRICS_BIND", "GRIMNIR_METRICS_BIND"}, "127.0.0.1:9000"),

		TracingEnabled:    getEnvBoolAny([]string{"SFU_TRACING_ENABLED", "GRIMNIR_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"SFU_OTLP_ENDPOINT", "GRIMNIR_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"SFU_TRACING_SAMPLE_RATE", "GRIMNIR_TRACING_SAMPLE_RATE"}, 1.0),

		WebRTCSTUNURL:      getEnvAny([]string{"SFU_STUN_URL", "WEBRTC_STUN_URL"}, "stun:stun.l.google.com:19302"),
		WebRTCTURNURL:      getEnvAny([]string{"SFU_TURN_URL", "WEBRTC_TURN_URL"}, ""),
		WebRTCTURNUsername: getEnvAny([]string{"SFU_TURN_USERNAME", "WEBRTC_TURN_USERNAME"}, ""),
		WebRTCTURNPassword: getEnvAny([]string{"SFU_TURN_PASSWORD", "WEBRTC_TURN_PASSWORD"}, ""),
	}

	if strings.EqualFold(cfg.Environment, "production") {
		if cfg.WebRTCTURNURL != "" && (cfg.WebRTCTURNUsername == "" || cfg.WebRTCTURNPassword == "") {
			return nil, fmt.Errorf("SFU_TURN_USERNAME and SFU_TURN_PASSWORD are required when TURN is configured in production")
		}
	}
	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"GRIMNIR_ENV":             "use SFU_ENV",
		"GRIMNIR_HTTP_PORT":       "use SFU_HTTP_PORT",
		"GRIMNIR_TRACING_ENABLED": "use SFU_TRACING_ENABLED",
		"GRIMNIR_OTLP_ENDPOINT":   "use SFU_OTLP_ENDPOINT",
		"WEBRTC_STUN_URL":         "use SFU_STUN_URL",
		"WEBRTC_TURN_URL":         "use SFU_TURN_URL",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	return warnings
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
