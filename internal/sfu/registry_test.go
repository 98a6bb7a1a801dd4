/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sfu

import (
	"sync"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryStartsNone(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.IsReady())
	_, err := r.Subscribe()
	assert.ErrorIs(t, err, ErrNoHostTrack)
}

func TestRegistryMarkPendingThenReleaseReturnsToNone(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.MarkPending())
	r.Release()
	assert.False(t, r.IsReady())
	_, err := r.Subscribe()
	assert.ErrorIs(t, err, ErrNoHostTrack)
}

func TestRegistryFullLifecycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.MarkPending())

	track := newTestTrack(t)
	require.NoError(t, r.Publish(track))
	assert.True(t, r.IsReady())

	got, err := r.Subscribe()
	require.NoError(t, err)
	assert.Same(t, track, got)

	r.Release()
	assert.False(t, r.IsReady())
}

func TestRegistryPublishOutsidePendingIsRejected(t *testing.T) {
	r := NewRegistry()
	track := newTestTrack(t)
	err := r.Publish(track)
	assert.Error(t, err)
}

func TestRegistryMarkPendingTwiceRejectsSecond(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.MarkPending())
	err := r.MarkPending()
	assert.ErrorIs(t, err, ErrAlreadyHosting)
}

// TestRegistryConcurrentMarkPendingOnlyOneWins exercises spec.md section
// 8's "two hosts race" scenario at the registry layer: of N concurrent
// MarkPending callers, exactly one must observe success.
func TestRegistryConcurrentMarkPendingOnlyOneWins(t *testing.T) {
	r := NewRegistry()
	const attempts = 32

	var wg sync.WaitGroup
	var successes int
	var mu sync.Mutex
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			if err := r.MarkPending(); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, successes)
}

func newTestTrack(t *testing.T) *webrtc.TrackLocalStaticRTP {
	t.Helper()
	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		"host-video", "host-stream",
	)
	require.NoError(t, err)
	return track
}
