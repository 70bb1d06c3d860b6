// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package jobs is an in-process background job dispatcher with named
// queues. Handlers run after the originating HTTP response has been
// written; delivery is at-least-once within the process lifetime and
// jobs are lost on shutdown before a worker picks them up.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Job is one unit of background work.
type Job struct {
	Queue   string
	Kind    string
	Payload map[string]any
}

// Handler processes one job. Errors are logged, not retried.
type Handler func(ctx context.Context, job Job) error

// Dispatcher fans jobs out to per-queue worker goroutines.
//
// # Thread Safety
//
// Enqueue may be called from any goroutine after Start. Register must
// complete before Start; it is not safe to add handlers to a running
// dispatcher.
type Dispatcher struct {
	queueSize int
	workers   int
	logger    *slog.Logger

	mu       sync.Mutex
	handlers map[string]Handler
	queues   map[string]chan Job
	started  bool

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewDispatcher builds a dispatcher. workers is per queue; both
// arguments fall back to sane defaults when non-positive.
func NewDispatcher(queueSize, workers int, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if workers <= 0 {
		workers = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queueSize: queueSize,
		workers:   workers,
		logger:    logger,
		handlers:  make(map[string]Handler),
		queues:    make(map[string]chan Job),
	}
}

// Register binds a handler to a queue name.
func (d *Dispatcher) Register(queue string, handler Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return fmt.Errorf("cannot register queue %q on a running dispatcher", queue)
	}
	if _, exists := d.handlers[queue]; exists {
		return fmt.Errorf("queue %q already registered", queue)
	}
	d.handlers[queue] = handler
	d.queues[queue] = make(chan Job, d.queueSize)
	return nil
}

// Start launches the worker goroutines. The provided context bounds the
// lifetime of all workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	ctx, d.cancel = context.WithCancel(ctx)
	for queue, ch := range d.queues {
		handler := d.handlers[queue]
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.run(ctx, queue, ch, handler)
		}
	}
}

// Enqueue submits a job without blocking. A full or unknown queue drops
// the job and returns an error; callers treat submission as
// fire-and-forget and only log the failure.
func (d *Dispatcher) Enqueue(job Job) error {
	d.mu.Lock()
	ch, ok := d.queues[job.Queue]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown queue %q", job.Queue)
	}
	select {
	case ch <- job:
		return nil
	default:
		return fmt.Errorf("queue %q is full", job.Queue)
	}
}

// Shutdown stops accepting work and waits for in-flight jobs.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, queue string, ch chan Job, handler Handler) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-ch:
			d.dispatch(ctx, queue, job, handler)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, queue string, job Job, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("job handler panicked", "queue", queue, "kind", job.Kind, "panic", r)
		}
	}()
	if err := handler(ctx, job); err != nil {
		d.logger.Error("job handler failed", "queue", queue, "kind", job.Kind, "error", err)
	}
}
