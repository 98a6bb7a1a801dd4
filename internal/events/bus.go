/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import "sync"

// EventType enumerates event categories published by internal/sfu's host
// registry and session lifecycle.
type EventType string

const (
	// EventHostConnected fires when a host session completes its
	// handshake and the registry transitions None -> Pending.
	EventHostConnected EventType = "host.connected"
	// EventHostReady fires when the registry transitions Pending -> Ready.
	EventHostReady EventType = "host.ready"
	// EventHostDisconnected fires when a host session ends and the
	// registry releases back to None.
	EventHostDisconnected EventType = "host.disconnected"
	// EventClientConnected fires when a client session completes its
	// handshake against a Ready registry.
	EventClientConnected EventType = "client.connected"
	// EventClientRejected fires when a client request is rejected because
	// no host is Ready.
	EventClientRejected EventType = "client.rejected"
)

// Payload generic event payload.
type Payload map[string]any

// Subscriber receives event payloads.
type Subscriber chan Payload

// Bus implements a simple in-process pubsub.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType][]Subscriber
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]Subscriber)}
}

// Subscribe registers a subscriber for event type.
func (b *Bus) Subscribe(eventType EventType) Subscriber {
	ch := make(Subscriber, 8)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends payload to subscribers.
func (b *Bus) Publish(eventType EventType, payload Payload) {
	b.mu.RLock()
	subs := append([]Subscriber(nil), b.subs[eventType]...)
	b.mu.RUnlock()
	for _, sub := range subs {
		select {
		case sub <- payload:
		default:
		}
	}
}

// Unsubscribe removes the subscriber.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, candidate := range subs {
		if candidate == sub {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	b.subs[eventType] = subs
	close(sub)
}
