/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sfu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUnboundedQueuePreservesEmissionOrder exercises spec.md section 8's
// invariant 4: candidates arrive at the consumer in emission order.
func TestUnboundedQueuePreservesEmissionOrder(t *testing.T) {
	q := newUnboundedQueue[int]()

	for i := 0; i < 50; i++ {
		q.push(i)
	}
	q.closeQueue()

	for i := 0; i < 50; i++ {
		select {
		case v, ok := <-q.out:
			require.True(t, ok)
			assert.Equal(t, i, v)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for item %d", i)
		}
	}

	select {
	case _, ok := <-q.out:
		assert.False(t, ok, "out channel should be closed once drained")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for out channel to close")
	}
}

func TestUnboundedQueuePushNeverBlocksOnSlowConsumer(t *testing.T) {
	q := newUnboundedQueue[int]()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			q.push(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("push blocked despite no reads from out")
	}
	q.closeQueue()
}
