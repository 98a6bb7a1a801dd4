/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import "testing"

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != 3000 {
		t.Fatalf("unexpected default http port: %d", cfg.HTTPPort)
	}
	if cfg.WebRTCSTUNURL == "" {
		t.Fatal("expected a default STUN URL")
	}
}

func TestLoadReportsLegacyEnvWarnings(t *testing.T) {
	t.Setenv("GRIMNIR_ENV", "development")
	t.Setenv("WEBRTC_STUN_URL", "stun:legacy.example.com:19302")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.LegacyEnvWarnings) == 0 {
		t.Fatal("expected legacy env warnings")
	}
}

func TestLoadProductionRequiresTurnCredentialsWhenTurnEnabled(t *testing.T) {
	t.Setenv("SFU_ENV", "production")
	t.Setenv("SFU_TURN_URL", "turn:turn.example.com:3478")
	t.Setenv("SFU_TURN_USERNAME", "")
	t.Setenv("SFU_TURN_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected production config load to fail when TURN credentials are missing")
	}

	t.Setenv("SFU_TURN_USERNAME", "user")
	t.Setenv("SFU_TURN_PASSWORD", "pass")
	if _, err := Load(); err != nil {
		t.Fatalf("expected production config load with TURN creds to succeed: %v", err)
	}
}
