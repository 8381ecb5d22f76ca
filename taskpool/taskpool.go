// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package taskpool schedules short-lived units of work onto a fixed
// set of worker goroutines, off the main thread that owns the GPU
// context and mutates the scene graph.
//
// Tasks form a tree: a task started with children does not complete
// until every child it spawned completes too, mirroring a fork/join
// model. Two priority classes are supported, each with its own share
// of the worker slots: a low-priority task runs as soon as a
// low-priority slot is free, whether or not high-priority tasks are
// pending.
package taskpool

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Priority selects which queue a task is scheduled on.
type Priority int

const (
	// HighPriority tasks run on the high-priority share of the
	// worker slots, LowPriority tasks on the low-priority share.
	HighPriority Priority = iota
	LowPriority
)

// Flag is a bitmask of cooperative task behaviors.
type Flag int

const (
	// FlagCancelable allows Cancel to request early termination.
	// The task's Work function must poll Task.Canceled.
	FlagCancelable Flag = 1 << iota
)

// Work is the function a Task runs. ctx is canceled when the task
// is canceled or the owning Pool is torn down.
type Work func(ctx context.Context, t *Task)

// Task is a unit of work, optionally parented to another Task.
// A parent Task completes only after all of its children complete.
type Task struct {
	parent   *Task
	work     Work
	flags    Flag
	pool     *Pool
	priority Priority

	mu       sync.Mutex
	children int
	done     bool
	canceled bool
	wake     chan struct{}
}

// Canceled reports whether cooperative cancellation has been
// requested for t. Work functions created with FlagCancelable should
// poll this and return early when true.
func (t *Task) Canceled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canceled
}

// Cancel requests cooperative cancellation of t and its running
// children. It has no effect unless t was created with
// FlagCancelable.
func (t *Task) Cancel() {
	if t.flags&FlagCancelable == 0 {
		return
	}
	t.mu.Lock()
	t.canceled = true
	t.mu.Unlock()
}

func (t *Task) addChild() {
	t.mu.Lock()
	t.children++
	t.mu.Unlock()
}

// finish marks t as having completed its own Work, and recursively
// notifies the parent chain once every child has also finished.
func (t *Task) finish() {
	t.mu.Lock()
	t.done = true
	ready := t.children == 0
	wake := t.wake
	t.mu.Unlock()
	if wake != nil {
		close(wake)
	}
	if ready && t.parent != nil {
		t.parent.childDone()
	}
}

func (t *Task) childDone() {
	t.mu.Lock()
	t.children--
	ready := t.done && t.children == 0
	wake := t.wake
	t.mu.Unlock()
	if ready {
		if wake != nil {
			select {
			case <-wake:
			default:
				close(wake)
			}
		}
		if t.parent != nil {
			t.parent.childDone()
		}
	}
}

// finished reports whether t and all of its children have completed.
func (t *Task) finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done && t.children == 0
}

// ring is a fixed-capacity, reusable ring buffer of *Task slots,
// avoiding a per-task heap allocation on the common path of a pool
// that issues many short tasks per frame.
type ring struct {
	mu   sync.Mutex
	buf  []*Task
	head int
}

func newRing(n int) *ring {
	return &ring{buf: make([]*Task, n)}
}

func (r *ring) put(t *Task) {
	r.mu.Lock()
	r.buf[r.head%len(r.buf)] = t
	r.head++
	r.mu.Unlock()
}

// Pool runs Tasks on a bounded set of worker goroutines, split between
// a high- and a low-priority semaphore so low-priority work never
// starves a caller that only ever submits high-priority tasks.
type Pool struct {
	high *semaphore.Weighted
	low  *semaphore.Weighted
	ring *ring

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Pool with workers concurrent slots, reserved split
// evenly between the two priority classes (at least one slot each).
func New(workers int) *Pool {
	if workers < 2 {
		workers = 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		high:   semaphore.NewWeighted(int64(workers - workers/2)),
		low:    semaphore.NewWeighted(int64(workers / 2)),
		ring:   newRing(4096),
		ctx:    ctx,
		cancel: cancel,
	}
}

// CreateTask allocates a Task bound to parent (nil for a root task).
// It does not start running until passed to Start.
func (p *Pool) CreateTask(parent *Task, work Work, flags Flag) *Task {
	t := &Task{parent: parent, work: work, flags: flags, pool: p, wake: make(chan struct{})}
	if parent != nil {
		parent.addChild()
	}
	p.ring.put(t)
	return t
}

// Start schedules t to run at the given priority. It returns
// immediately; use Wait to block until t (and its children)
// complete.
func (p *Pool) Start(t *Task, priority Priority) {
	t.priority = priority
	sem := p.high
	if priority == LowPriority {
		sem = p.low
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := sem.Acquire(p.ctx, 1); err != nil {
			t.finish()
			return
		}
		defer sem.Release(1)
		t.work(p.ctx, t)
		t.finish()
	}()
}

// Wait blocks until t and every task it transitively spawned have
// completed, or ctx is done.
func (p *Pool) Wait(ctx context.Context, t *Task) {
	if t.finished() {
		return
	}
	select {
	case <-t.wake:
	case <-ctx.Done():
	case <-p.ctx.Done():
	}
}

// Shutdown cancels all running tasks and waits up to 30 seconds for
// workers to observe cancellation and return, matching the scene
// unload teardown budget. It returns false if workers were still
// running when the deadline elapsed.
func (p *Pool) Shutdown() bool {
	p.cancel()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(30 * time.Second):
		return false
	}
}
