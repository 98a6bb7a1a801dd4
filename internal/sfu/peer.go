/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sfu

import (
	"context"
	"fmt"

	"github.com/pion/interceptor"
	"github.com/pion/interceptor/pkg/intervalpli"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

// defaultICEServers mirrors the teacher's broadcaster default: a public
// STUN server is always present, with a TURN server appended when the
// surrounding config supplies one (see internal/server wiring).
func defaultICEServers(stunURLs, turnURLs []string, turnUsername, turnCredential string) []webrtc.ICEServer {
	servers := []webrtc.ICEServer{{URLs: stunURLs}}
	if len(turnURLs) > 0 {
		servers = append(servers, webrtc.ICEServer{
			URLs:       turnURLs,
			Username:   turnUsername,
			Credential: turnCredential,
		})
	}
	return servers
}

// NewAPI builds the shared pion API: default codecs plus a PLI receiver
// interceptor, so the stack itself also requests keyframes in addition to
// the hand-rolled 3-second ticker in pump.go.
func NewAPI() (*webrtc.API, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("sfu: register default codecs: %w", err)
	}

	registry := &interceptor.Registry{}
	pliInterceptor, err := intervalpli.NewReceiverInterceptor()
	if err != nil {
		return nil, fmt.Errorf("sfu: build pli interceptor: %w", err)
	}
	registry.Add(pliInterceptor)
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, registry); err != nil {
		return nil, fmt.Errorf("sfu: register default interceptors: %w", err)
	}

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(registry),
	), nil
}

// HostPeer is the result of create_host: the peer connection, its answer,
// the outbound ICE candidate sequence, and the one-shot track signal.
type HostPeer struct {
	Peer        *webrtc.PeerConnection
	Answer      webrtc.SessionDescription
	ICE         <-chan webrtc.ICECandidateInit
	TrackSignal <-chan *webrtc.TrackLocalStaticRTP
	Ctx         context.Context
	Cancel      context.CancelFunc
}

// ClientPeer is the result of create_client: the peer connection, its
// answer, and the outbound ICE candidate sequence.
type ClientPeer struct {
	Peer   *webrtc.PeerConnection
	Answer webrtc.SessionDescription
	ICE    <-chan webrtc.ICECandidateInit
	Ctx    context.Context
	Cancel context.CancelFunc
}

// CreateHost implements spec.md section 4.2's create_host: set remote,
// add a recvonly video transceiver, create+set the answer, then wire
// on_ice_candidate and on_track.
func CreateHost(api *webrtc.API, iceServers []webrtc.ICEServer, offer webrtc.SessionDescription, logger zerolog.Logger) (*HostPeer, error) {
	peer, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, fmt.Errorf("sfu: new host peer connection: %w", err)
	}

	if err := peer.SetRemoteDescription(offer); err != nil {
		peer.Close()
		return nil, fmt.Errorf("sfu: set remote description: %w", err)
	}
	if _, err := peer.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		peer.Close()
		return nil, fmt.Errorf("sfu: add recvonly video transceiver: %w", err)
	}

	answer, err := peer.CreateAnswer(nil)
	if err != nil {
		peer.Close()
		return nil, fmt.Errorf("sfu: create answer: %w", err)
	}
	if err := peer.SetLocalDescription(answer); err != nil {
		peer.Close()
		return nil, fmt.Errorf("sfu: set local description: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	ice := newUnboundedQueue[webrtc.ICECandidateInit]()
	peer.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			ice.closeQueue()
			return
		}
		ice.push(c.ToJSON())
	})

	trackSignal := make(chan *webrtc.TrackLocalStaticRTP, 1)
	peer.OnTrack(func(remote *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		local, err := webrtc.NewTrackLocalStaticRTP(remote.Codec().RTPCodecCapability, "host-video", "host-stream")
		if err != nil {
			logger.Error().Err(err).Msg("failed to create local forwardable track")
			return
		}
		trackSignal <- local
		go runPump(ctx, peer, remote, local, logger)
	})

	peer.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed, webrtc.PeerConnectionStateDisconnected:
			cancel()
		}
	})

	return &HostPeer{
		Peer:        peer,
		Answer:      answer,
		ICE:         ice.out,
		TrackSignal: trackSignal,
		Ctx:         ctx,
		Cancel:      cancel,
	}, nil
}

// CreateClient implements spec.md section 4.2's create_client: the caller
// must have already confirmed the registry is Ready and pass the shared
// track in.
func CreateClient(api *webrtc.API, iceServers []webrtc.ICEServer, offer webrtc.SessionDescription, track *webrtc.TrackLocalStaticRTP) (*ClientPeer, error) {
	peer, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, fmt.Errorf("sfu: new client peer connection: %w", err)
	}

	if err := peer.SetRemoteDescription(offer); err != nil {
		peer.Close()
		return nil, fmt.Errorf("sfu: set remote description: %w", err)
	}
	if _, err := peer.AddTrack(track); err != nil {
		peer.Close()
		return nil, fmt.Errorf("sfu: add host track: %w", err)
	}

	answer, err := peer.CreateAnswer(nil)
	if err != nil {
		peer.Close()
		return nil, fmt.Errorf("sfu: create answer: %w", err)
	}
	if err := peer.SetLocalDescription(answer); err != nil {
		peer.Close()
		return nil, fmt.Errorf("sfu: set local description: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	ice := newUnboundedQueue[webrtc.ICECandidateInit]()
	peer.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			ice.closeQueue()
			return
		}
		ice.push(c.ToJSON())
	})

	peer.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed, webrtc.PeerConnectionStateDisconnected:
			cancel()
		}
	})

	return &ClientPeer{
		Peer:   peer,
		Answer: answer,
		ICE:    ice.out,
		Ctx:    ctx,
		Cancel: cancel,
	}, nil
}
