/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sfu

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pion/webrtc/v4"
)

// websocketGUID is appended to Sec-WebSocket-Key before hashing, per the
// WebSocket protocol (RFC 6455 section 1.3). This derivation is the one
// piece of the upgrade we do not delegate to a framing library: it is the
// handshake validator under test, not commodity plumbing.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// ErrMalformedUpgrade means the WebSocket upgrade headers themselves
// (Connection, Upgrade, Sec-WebSocket-Version, Sec-WebSocket-Key) are
// missing or wrong. Callers should respond 426 Upgrade Required.
var ErrMalformedUpgrade = errors.New("sfu: malformed websocket upgrade request")

// ErrBadOffer means the upgrade headers were fine but the SDP offer
// smuggled in Sec-WebSocket-Protocol failed to decode. Callers should
// respond 400 Bad Request.
var ErrBadOffer = errors.New("sfu: invalid SDP offer in Sec-WebSocket-Protocol")

// Handshake is the result of successfully validating an upgrade request:
// the accept key to echo back, and the offer carried in the subprotocol
// header.
type Handshake struct {
	AcceptKey string
	Offer     webrtc.SessionDescription
}

// ValidateHandshake checks the upgrade headers and extracts the embedded
// SDP offer, per spec.md section 4.1. Header values are matched exactly
// (case-sensitive) as required.
func ValidateHandshake(h http.Header) (Handshake, error) {
	if h.Get("Connection") != "Upgrade" ||
		h.Get("Upgrade") != "websocket" ||
		h.Get("Sec-WebSocket-Version") != "13" {
		return Handshake{}, ErrMalformedUpgrade
	}

	key := h.Get("Sec-WebSocket-Key")
	if key == "" {
		return Handshake{}, ErrMalformedUpgrade
	}
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil || len(raw) != 16 {
		return Handshake{}, ErrMalformedUpgrade
	}

	var offer webrtc.SessionDescription
	if err := json.Unmarshal([]byte(h.Get("Sec-WebSocket-Protocol")), &offer); err != nil {
		return Handshake{}, ErrBadOffer
	}

	return Handshake{AcceptKey: acceptKey(key), Offer: offer}, nil
}

// acceptKey computes the Sec-WebSocket-Accept value: base64(SHA-1(key + GUID)).
func acceptKey(key string) string {
	sum := sha1.Sum([]byte(key + websocketGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}
