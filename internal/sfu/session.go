/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sfu

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gobwas/ws"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/friendsincode/webrtc-sfu/internal/events"
	"github.com/friendsincode/webrtc-sfu/internal/telemetry"
)

// role distinguishes the two session kinds named in spec.md section 3.
type role string

const (
	roleHost   role = "host"
	roleClient role = "client"
)

// session is the per-connection record described in spec.md section 3.
// It owns the WebSocket, the peer connection, and the channels wired up
// by the peer-session factory.
type session struct {
	id       string
	role     role
	peer     *webrtc.PeerConnection
	ws       *wsConn
	ice      <-chan webrtc.ICECandidateInit
	track    <-chan *webrtc.TrackLocalStaticRTP // host only, nil for client
	registry *Registry
	logger   zerolog.Logger
	bus      *events.Bus
}

// inboundFrame is what the read goroutine feeds the session loop.
type inboundFrame struct {
	op   ws.OpCode
	data []byte
	err  error
}

// run implements spec.md section 4.5. It sends the SDP answer as the
// first frame, then multiplexes outbound ICE, the host-only track
// signal, and inbound WebSocket frames until any of them signal
// termination.
func (s *session) run(ctx context.Context, answer webrtc.SessionDescription) {
	id := s.id
	log := s.logger.With().Str("session", id).Str("role", string(s.role)).Logger()
	log.Info().Msg("session started")
	start := time.Now()
	defer func() {
		telemetry.SessionDuration.WithLabelValues(string(s.role)).Observe(time.Since(start).Seconds())
		log.Info().Msg("session ended")
	}()

	telemetry.SessionsTotal.WithLabelValues(string(s.role)).Inc()

	answerJSON, err := json.Marshal(answer)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode sdp answer")
		return
	}
	if err := s.ws.writeText(answerJSON); err != nil {
		log.Debug().Err(err).Msg("failed to send sdp answer")
		return
	}

	inbound := make(chan inboundFrame, 8)
	go s.readLoop(ctx, inbound)

	trackSignal := s.track
	for {
		// Biased polling: prefer draining outbound ICE before handling a
		// newly arrived inbound frame, per spec.md section 9.
		select {
		case <-ctx.Done():
			return
		case cand, ok := <-s.ice:
			if !ok {
				log.Debug().Msg("ice channel closed")
				return
			}
			if err := s.sendCandidate(cand); err != nil {
				log.Debug().Err(err).Msg("failed to send ice candidate")
				return
			}
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return

		case cand, ok := <-s.ice:
			if !ok {
				log.Debug().Msg("ice channel closed")
				return
			}
			if err := s.sendCandidate(cand); err != nil {
				log.Debug().Err(err).Msg("failed to send ice candidate")
				return
			}

		case track, ok := <-trackSignal:
			if !ok {
				trackSignal = nil
				continue
			}
			trackSignal = nil // one-shot: at most one promotion per host session
			if err := s.registry.Publish(track); err != nil {
				log.Error().Err(err).Msg("failed to publish host track")
				continue
			}
			telemetry.ActiveHost.Set(1)
			log.Info().Msg("host track ready, registry promoted to ready")
			if s.bus != nil {
				s.bus.Publish(events.EventHostReady, events.Payload{"session": id})
			}

		case frame, ok := <-inbound:
			if !ok {
				log.Debug().Msg("read loop closed")
				return
			}
			if frame.err != nil {
				log.Debug().Err(frame.err).Msg("websocket closed or errored")
				return
			}
			if frame.op != ws.OpText {
				continue // binary/control frames are ignored, per spec.md section 4.5
			}
			var cand webrtc.ICECandidateInit
			if err := json.Unmarshal(frame.data, &cand); err != nil {
				log.Debug().Err(err).Msg("ignoring malformed inbound ice candidate")
				continue
			}
			if err := s.peer.AddICECandidate(cand); err != nil {
				log.Debug().Err(err).Msg("add ice candidate failed")
			}
		}
	}
}

func (s *session) sendCandidate(cand webrtc.ICECandidateInit) error {
	data, err := json.Marshal(cand)
	if err != nil {
		return err
	}
	return s.ws.writeText(data)
}

// readLoop is the single reader goroutine per connection, feeding text
// frames (and the terminal error) to the session's select loop.
func (s *session) readLoop(ctx context.Context, out chan<- inboundFrame) {
	defer close(out)
	for {
		data, op, err := s.ws.readMessage()
		if err != nil {
			select {
			case out <- inboundFrame{err: err}:
			case <-ctx.Done():
			}
			return
		}
		if op == ws.OpClose {
			return
		}
		select {
		case out <- inboundFrame{op: op, data: data}:
		case <-ctx.Done():
			return
		}
	}
}

func newSessionID() string {
	return uuid.NewString()
}
