// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package shader

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/divide-framework/divide/driver"
	"github.com/divide-framework/divide/engine/internal/ctxt"
	"github.com/divide-framework/divide/taskpool"
)

// State is a ShaderProgram's position in its compile state machine.
type State int32

const (
	Count State = iota
	Requested
	Queued
	Computed
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Count:
		return "Count"
	case Requested:
		return "Requested"
	case Queued:
		return "Queued"
	case Computed:
		return "Computed"
	case Ready:
		return "Ready"
	case Failed:
		return "Failed"
	default:
		return "!shader.State"
	}
}

// Define is a preprocessor define appended to a module's source
// before compilation.
type Define struct {
	Name   string
	Append string
}

// Source describes the modules and defines that make up a program.
// Two Sources that hash identically share one compiled ShaderProgram.
type Source struct {
	Stage   driver.Stage
	Module  []byte
	Defines []Define
}

func (s *Source) hash() uint64 {
	h := fnv.New64a()
	h.Write(s.Module)
	for _, d := range s.Defines {
		h.Write([]byte(d.Name))
		h.Write([]byte(d.Append))
	}
	return h.Sum64()
}

// Cache loads and stores compiled modules keyed by a Source hash.
// A binary cache is preferred over a text cache when both are
// configured; text and binary lookups are mutually exclusive per
// Program (whichever is found first wins).
type Cache interface {
	LoadBinary(key uint64) ([]byte, bool)
	StoreBinary(key uint64, data []byte)
	LoadText(key uint64) ([]byte, bool)
	StoreText(key uint64, data []byte)
}

// memCache is an in-process Cache backed by maps, used when no
// persistent cache is configured.
type memCache struct {
	mu  sync.Mutex
	bin map[uint64][]byte
	txt map[uint64][]byte
}

// NewMemCache creates a Cache that keeps compiled modules in memory
// for the lifetime of the process.
func NewMemCache() Cache {
	return &memCache{bin: map[uint64][]byte{}, txt: map[uint64][]byte{}}
}

func (c *memCache) LoadBinary(key uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.bin[key]
	return v, ok
}

func (c *memCache) StoreBinary(key uint64, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bin[key] = data
}

func (c *memCache) LoadText(key uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.txt[key]
	return v, ok
}

func (c *memCache) StoreText(key uint64, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txt[key] = data
}

// Compiler turns module source into driver.ShaderCode. The real
// implementation shells out to the platform's shader compiler
// (e.g. naga/tint); tests supply a fake.
type Compiler interface {
	Compile(module []byte, defines []Define) ([]byte, error)
}

// Program is a set of shader modules, defines, and a compile status
// driven by the COUNT -> REQUESTED -> QUEUED -> COMPUTED -> READY (or
// FAILED) state machine. A ShaderComputeQueue advances a Program's
// state asynchronously; draws against a Program not yet READY are
// filtered out upstream.
type Program struct {
	hash    uint64
	sources []Source

	state        atomic.Int32
	needsRebuild atomic.Bool

	mu   sync.Mutex
	code []driver.ShaderFunc
	err  error
}

// State returns the program's current compile state.
func (p *Program) State() State { return State(p.state.Load()) }

// Ready reports whether the program may be drawn with.
func (p *Program) Ready() bool { return p.State() == Ready }

// Err returns the compile error, if State is Failed.
func (p *Program) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Func returns the compiled function for a given module index. It is
// only valid to call once State is Ready.
func (p *Program) Func(index int) driver.ShaderFunc {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code[index]
}

// AddDefine appends a define to the given module. It marks the
// program as needing recompilation; the new modules are not active
// until the queue processes the rebuild during an idle window.
func (p *Program) AddDefine(module int, d Define) {
	p.mu.Lock()
	p.sources[module].Defines = append(p.sources[module].Defines, d)
	p.mu.Unlock()
	p.needsRebuild.Store(true)
}

// NeedsNewShader reports whether defines were added since the last
// successful compile.
func (p *Program) NeedsNewShader() bool { return p.needsRebuild.Load() }

// Queue compiles submitted Programs asynchronously, bounded to at
// most maxPerFrame compiles per EndFrame call.
type Queue struct {
	pool        *taskpool.Pool
	cache       Cache
	compiler    Compiler
	maxPerFrame int
	mu          sync.Mutex
	pending     []*Program
	byHash      map[uint64]*Program
}

// NewQueue creates a ShaderComputeQueue. maxPerFrame bounds how many
// programs EndFrame will dispatch for compilation in a single call
// (g_MaxShadersComputedPerFrame).
func NewQueue(pool *taskpool.Pool, cache Cache, compiler Compiler, maxPerFrame int) *Queue {
	if maxPerFrame < 1 {
		maxPerFrame = 1
	}
	return &Queue{
		pool:        pool,
		cache:       cache,
		compiler:    compiler,
		maxPerFrame: maxPerFrame,
		byHash:      map[uint64]*Program{},
	}
}

// Submit creates (or returns a shared, already-submitted) Program for
// the given sources. Equal Source sets, by hash, share one Program.
func (q *Queue) Submit(sources []Source) *Program {
	srcs := append([]Source(nil), sources...)
	var key uint64
	for _, s := range srcs {
		key ^= s.hash()<<1 | s.hash()>>63
	}

	q.mu.Lock()
	if p, ok := q.byHash[key]; ok {
		q.mu.Unlock()
		return p
	}
	p := &Program{hash: key, sources: srcs}
	p.state.Store(int32(Requested))
	q.byHash[key] = p
	q.pending = append(q.pending, p)
	q.mu.Unlock()
	return p
}

// EndFrame advances up to maxPerFrame Requested programs to Queued
// and dispatches their compilation on the task pool, and additionally
// resubmits any Ready program with NeedsNewShader set (the deferred
// recompile on an idle window).
func (q *Queue) EndFrame() {
	q.mu.Lock()
	var batch []*Program
	remaining := q.pending[:0]
	for _, p := range q.pending {
		if len(batch) >= q.maxPerFrame {
			remaining = append(remaining, p)
			continue
		}
		if p.State() == Requested {
			p.state.Store(int32(Queued))
			batch = append(batch, p)
		} else {
			remaining = append(remaining, p)
		}
	}
	q.pending = remaining
	for _, p := range q.byHash {
		if len(batch) >= q.maxPerFrame {
			break
		}
		if p.State() == Ready && p.NeedsNewShader() {
			p.state.Store(int32(Queued))
			batch = append(batch, p)
		}
	}
	q.mu.Unlock()

	for _, p := range batch {
		p := p
		task := q.pool.CreateTask(nil, func(_ context.Context, _ *taskpool.Task) {
			q.compile(p)
		}, 0)
		q.pool.Start(task, taskpool.LowPriority)
	}
}

func (q *Queue) compile(p *Program) {
	code := make([]driver.ShaderFunc, len(p.sources))
	for i, s := range p.sources {
		key := s.hash()
		var bin []byte
		var ok bool
		if q.cache != nil {
			if bin, ok = q.cache.LoadBinary(key); !ok {
				if txt, tok := q.cache.LoadText(key); tok {
					bin, ok = txt, true
				}
			}
		}
		if !ok {
			var err error
			bin, err = q.compiler.Compile(s.Module, s.Defines)
			if err != nil {
				p.mu.Lock()
				p.err = err
				p.mu.Unlock()
				p.state.Store(int32(Failed))
				return
			}
			if q.cache != nil {
				q.cache.StoreBinary(key, bin)
			}
		}
		sc, err := ctxt.GPU().NewShaderCode(bin)
		if err != nil {
			p.mu.Lock()
			p.err = err
			p.mu.Unlock()
			p.state.Store(int32(Failed))
			return
		}
		code[i] = driver.ShaderFunc{Code: sc, Name: "main"}
	}
	p.mu.Lock()
	p.code = code
	p.err = nil
	p.mu.Unlock()
	p.needsRebuild.Store(false)
	p.state.Store(int32(Computed))
	p.state.Store(int32(Ready))
}

// Len returns the number of programs awaiting compilation.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
