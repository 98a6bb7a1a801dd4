/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscriber(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe(EventHostConnected)

	b.Publish(EventHostConnected, Payload{"session": "abc"})

	select {
	case payload := <-sub:
		assert.Equal(t, "abc", payload["session"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusDoesNotDeliverToOtherEventTypes(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe(EventClientConnected)

	b.Publish(EventHostConnected, Payload{})

	select {
	case <-sub:
		t.Fatal("subscriber for a different event type should not receive")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusPublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	b := NewBus()
	done := make(chan struct{})
	go func() {
		b.Publish(EventHostDisconnected, Payload{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish with no subscribers blocked")
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe(EventClientRejected)
	b.Unsubscribe(EventClientRejected, sub)

	_, ok := <-sub
	require.False(t, ok)
}
