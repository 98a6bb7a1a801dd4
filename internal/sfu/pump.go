/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sfu

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/friendsincode/webrtc-sfu/internal/telemetry"
)

// pliInterval is the fixed PLI cadence. time.Ticker's channel already has
// a buffer of one, so a missed tick is coalesced rather than replayed in
// a catch-up burst -- exactly the "delay" policy spec.md section 4.4 asks
// for.
const pliInterval = 3 * time.Second

// rtpRead pairs a packet with the error from the blocking ReadRTP call
// that produced it, so the read can happen on its own goroutine and feed
// a channel the main select can multiplex over.
type rtpRead struct {
	packet *rtp.Packet
	err    error
}

// runPump implements spec.md section 4.4: one pump per host peer
// connection, copying RTP from the remote inbound track to the shared
// local track, and driving a periodic PLI. ctx is cancelled when the
// peer connection dies (see peer.go's OnConnectionStateChange), standing
// in for the weak back-reference the source models in a language with
// manual memory management.
func runPump(ctx context.Context, peer *webrtc.PeerConnection, remote *webrtc.TrackRemote, local *webrtc.TrackLocalStaticRTP, logger zerolog.Logger) {
	log := logger.With().Str("component", "rtp-pump").Uint32("ssrc", uint32(remote.SSRC())).Logger()
	log.Info().Msg("rtp pump started")
	defer log.Info().Msg("rtp pump stopped")

	reads := make(chan rtpRead, 1)
	go func() {
		for {
			pkt, _, err := remote.ReadRTP()
			reads <- rtpRead{packet: pkt, err: err}
			if err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pliInterval)
	defer ticker.Stop()

	mediaSSRC := uint32(remote.SSRC())

	for {
		// Biased priority: drain a pending PLI tick before considering a
		// newly arrived RTP packet.
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !sendPLI(peer, mediaSSRC, log) {
				return
			}
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !sendPLI(peer, mediaSSRC, log) {
				return
			}
		case r := <-reads:
			if r.err != nil {
				log.Debug().Err(r.err).Msg("remote track read ended")
				return
			}
			if _, err := local.WriteRTP(r.packet); err != nil {
				if errors.Is(err, io.ErrClosedPipe) {
					log.Debug().Msg("local track write closed pipe, all clients gone")
					return
				}
				log.Error().Err(err).Msg("unexpected local track write error")
				return
			}
			telemetry.RTPPacketsForwarded.Inc()
		}
	}
}

// sendPLI emits one PictureLossIndication. A write failure means the weak
// peer reference has effectively died, so the caller should exit.
func sendPLI(peer *webrtc.PeerConnection, mediaSSRC uint32, log zerolog.Logger) bool {
	err := peer.WriteRTCP([]rtcp.Packet{&rtcp.PictureLossIndication{
		SenderSSRC: 0,
		MediaSSRC:  mediaSSRC,
	}})
	if err != nil {
		log.Debug().Err(err).Msg("pli write failed, peer reference is dead")
		return false
	}
	telemetry.PLISent.Inc()
	return true
}
