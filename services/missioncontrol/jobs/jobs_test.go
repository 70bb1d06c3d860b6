// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversJobs(t *testing.T) {
	d := NewDispatcher(8, 1, nil)

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})

	require.NoError(t, d.Register("notifications", func(ctx context.Context, job Job) error {
		mu.Lock()
		got = append(got, job.Kind)
		if len(got) == 2 {
			close(done)
		}
		mu.Unlock()
		return nil
	}))

	d.Start(context.Background())
	defer d.Shutdown()

	require.NoError(t, d.Enqueue(Job{Queue: "notifications", Kind: "task_created"}))
	require.NoError(t, d.Enqueue(Job{Queue: "notifications", Kind: "task_updated"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs were not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"task_created", "task_updated"}, got)
}

func TestEnqueueUnknownQueueFails(t *testing.T) {
	d := NewDispatcher(1, 1, nil)
	err := d.Enqueue(Job{Queue: "nope"})
	assert.Error(t, err)
}

func TestEnqueueFullQueueDropsWithoutBlocking(t *testing.T) {
	d := NewDispatcher(1, 1, nil)
	require.NoError(t, d.Register("slow", func(ctx context.Context, job Job) error { return nil }))
	// Not started: nothing drains the channel.

	require.NoError(t, d.Enqueue(Job{Queue: "slow", Kind: "first"}))
	err := d.Enqueue(Job{Queue: "slow", Kind: "second"})
	assert.Error(t, err)
}

func TestRegisterAfterStartFails(t *testing.T) {
	d := NewDispatcher(1, 1, nil)
	require.NoError(t, d.Register("a", func(ctx context.Context, job Job) error { return nil }))
	d.Start(context.Background())
	defer d.Shutdown()

	assert.Error(t, d.Register("b", func(ctx context.Context, job Job) error { return nil }))
	assert.Error(t, d.Register("a", func(ctx context.Context, job Job) error { return nil }))
}

func TestHandlerErrorDoesNotStopWorkers(t *testing.T) {
	d := NewDispatcher(8, 1, nil)
	done := make(chan struct{})

	require.NoError(t, d.Register("flaky", func(ctx context.Context, job Job) error {
		if job.Kind == "bad" {
			return errors.New("boom")
		}
		close(done)
		return nil
	}))
	d.Start(context.Background())
	defer d.Shutdown()

	require.NoError(t, d.Enqueue(Job{Queue: "flaky", Kind: "bad"}))
	require.NoError(t, d.Enqueue(Job{Queue: "flaky", Kind: "good"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker stopped after a handler error")
	}
}
