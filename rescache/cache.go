// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package rescache implements content-addressed, reference-counted
// caching of engine resources (textures, meshes, materials) loaded
// from raw source bytes.
//
// Resources are deduplicated by a hash of their source bytes: asking
// for the same content twice returns the same underlying value and
// bumps a reference count instead of decoding/uploading it again.
// Loading happens off the calling goroutine through a taskpool.Pool;
// callers that ask for a hash already being loaded by someone else
// block on that in-flight load instead of starting a second one.
package rescache

import (
	"bytes"
	"context"
	"hash/fnv"
	"sync"

	"github.com/divide-framework/divide/taskpool"
)

// State is the lifecycle state of a cache entry.
type State int32

const (
	Loading State = iota
	Loaded
	Failed
)

// Loader produces and disposes of values of type T from raw bytes.
// Implementations must be safe to call from a worker goroutine.
type Loader[T any] interface {
	// Load decodes data into a usable resource.
	Load(data []byte) (T, error)
	// Unload releases any GPU/host resources held by v.
	Unload(v T)
}

// Hash identifies a resource by the content of its source bytes.
type Hash uint64

// HashBytes computes the Hash of data.
func HashBytes(data []byte) Hash {
	h := fnv.New64a()
	h.Write(data)
	return Hash(h.Sum64())
}

type entry[T any] struct {
	hash  Hash
	refs  int
	state State
	value T
	err   error
	ready chan struct{}
}

// Cache deduplicates and reference-counts values of type T, keyed by
// the content hash of the bytes used to load them.
type Cache[T any] struct {
	loader Loader[T]
	pool   *taskpool.Pool

	mu sync.Mutex
	db map[Hash]*entry[T]
}

// New creates a Cache that loads misses through loader, scheduling
// each load as a task on pool.
func New[T any](loader Loader[T], pool *taskpool.Pool) *Cache[T] {
	return &Cache[T]{loader: loader, pool: pool, db: map[Hash]*entry[T]{}}
}

// Get returns the resource decoded from data, loading it if this is
// the first request for this content (or the first since its last
// release). It blocks until loading completes, whether the load was
// started by this call or one already in flight.
func (c *Cache[T]) Get(ctx context.Context, data []byte) (T, error) {
	hash := HashBytes(data)

	c.mu.Lock()
	if e, ok := c.db[hash]; ok {
		e.refs++
		c.mu.Unlock()
		return c.waitForReady(ctx, e)
	}
	e := &entry[T]{hash: hash, refs: 1, state: Loading, ready: make(chan struct{})}
	c.db[hash] = e
	c.mu.Unlock()

	// Copy data: callers may reuse/mutate their buffer once Get
	// returns control to the scheduler, before the task runs.
	owned := bytes.Clone(data)
	task := c.pool.CreateTask(nil, func(context.Context, *taskpool.Task) {
		v, err := c.loader.Load(owned)
		c.mu.Lock()
		e.value, e.err = v, err
		if err != nil {
			e.state = Failed
		} else {
			e.state = Loaded
		}
		c.mu.Unlock()
		close(e.ready)
	}, 0)
	c.pool.Start(task, taskpool.HighPriority)

	return c.waitForReady(ctx, e)
}

// waitForReady blocks until e leaves the Loading state.
func (c *Cache[T]) waitForReady(ctx context.Context, e *entry[T]) (T, error) {
	select {
	case <-e.ready:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
	return e.value, e.err
}

// Release drops a reference acquired by Get. Once the last reference
// to a hash is released, the underlying value is unloaded and its
// entry is evicted, so a subsequent Get decodes it again.
func (c *Cache[T]) Release(data []byte) {
	hash := HashBytes(data)
	c.mu.Lock()
	e, ok := c.db[hash]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.refs--
	if e.refs > 0 {
		c.mu.Unlock()
		return
	}
	delete(c.db, hash)
	c.mu.Unlock()

	if e.state == Loaded {
		c.loader.Unload(e.value)
	}
}

// Len returns the number of distinct resources currently cached,
// loading or loaded.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.db)
}
