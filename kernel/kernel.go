// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package kernel implements the engine's fixed-timestep update,
// variable-rate render frame loop: "Fix Your Timestep" style, with an
// accumulator that advances the scene in constant TICK_US steps and
// exposes a render interpolation factor for whatever time is left
// over.
package kernel

import (
	"errors"
	"log"
	"sort"
	"time"

	"github.com/divide-framework/divide/driver"
	"github.com/divide-framework/divide/engine"
	"github.com/divide-framework/divide/scene"
	"github.com/divide-framework/divide/taskpool"
)

// Event identifies a point in the frame loop at which listeners are
// notified, in the order spec'd for a single iteration.
type Event int

const (
	EventStarted Event = iota
	EventPrerenderStart
	EventPrerenderEnd
	EventScenerenderStart
	EventPostrenderStart
	EventPostrenderEnd
	EventEnded
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventPrerenderStart:
		return "prerender-start"
	case EventPrerenderEnd:
		return "prerender-end"
	case EventScenerenderStart:
		return "scenerender-start"
	case EventPostrenderStart:
		return "postrender-start"
	case EventPostrenderEnd:
		return "postrender-end"
	case EventEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Listener reacts to one frame Event. Returning false aborts the
// rest of that event's listener chain for the current frame (it does
// not stop the kernel). A false return for EventStarted also skips
// the rest of the frame, and one for EventScenerenderStart skips
// rendering and presenting (EventEnded is still emitted).
type Listener func(Event) bool

type registeredListener struct {
	priority int
	fn       Listener
}

// Renderer performs one frame's actual GPU work: recording and
// submitting every render pass for the interpolation factor alpha,
// and presenting the result. The kernel only sequences calls into
// this interface; RenderPassManager, rtpool and cmdbuf do the work.
type Renderer interface {
	RenderFrame(alpha float32) error
	Present() error
}

// Config controls the loop's cadence.
type Config struct {
	// TicksPerSecond is the fixed update rate. Default 30 (matching
	// TICKS_PER_SECOND's default of 30Hz, i.e. 60/2).
	TicksPerSecond int

	// MaxFrameskip caps how many fixed updates a single RunOneFrame
	// call will run before giving up on catching the accumulator up,
	// so a long stall (e.g. a debugger pause) can't wedge the loop
	// into running forever trying to catch up.
	MaxFrameskip int

	// MaxRecoverAttempts bounds how many times the kernel retries
	// device recreation after a fatal render error before quitting.
	MaxRecoverAttempts int
}

// DefaultConfig returns the loop's default cadence.
func DefaultConfig() Config {
	return Config{TicksPerSecond: 30, MaxFrameskip: 5, MaxRecoverAttempts: 3}
}

// ErrQuit is returned by RunOneFrame when the kernel has given up
// recovering from a fatal render error and the caller should stop
// calling RunOneFrame and shut down.
var ErrQuit = errors.New("kernel: giving up after repeated fatal render errors")

// Kernel owns the update/render cadence and dispatches frame events
// to registered listeners.
type Kernel struct {
	cfg         Config
	tick        time.Duration
	accumulator time.Duration
	lastSample  time.Time
	alpha       float32

	listeners []registeredListener

	pool  *taskpool.Pool
	graph *scene.Graph

	render Renderer

	aiTick func(elapsed time.Duration)

	recoverAttempts int
}

// New creates a Kernel. pool and graph are the task pool and scene
// graph it drives each tick; render performs the per-frame GPU work.
func New(cfg Config, pool *taskpool.Pool, graph *scene.Graph, render Renderer) *Kernel {
	if cfg.TicksPerSecond <= 0 {
		cfg.TicksPerSecond = DefaultConfig().TicksPerSecond
	}
	if cfg.MaxFrameskip <= 0 {
		cfg.MaxFrameskip = DefaultConfig().MaxFrameskip
	}
	if cfg.MaxRecoverAttempts <= 0 {
		cfg.MaxRecoverAttempts = DefaultConfig().MaxRecoverAttempts
	}
	return &Kernel{
		cfg:    cfg,
		tick:   time.Second / time.Duration(cfg.TicksPerSecond),
		pool:   pool,
		graph:  graph,
		render: render,
	}
}

// AddListener registers fn to be notified of every frame Event,
// ordered ascending by priority (lower runs first).
func (k *Kernel) AddListener(priority int, fn Listener) {
	k.listeners = append(k.listeners, registeredListener{priority, fn})
	sort.SliceStable(k.listeners, func(i, j int) bool { return k.listeners[i].priority < k.listeners[j].priority })
}

// SetAITick installs the callback invoked once per fixed update with
// the tick duration, publishing elapsed time to the AI manager's own
// thread without blocking the update loop on pathfinding work.
func (k *Kernel) SetAITick(fn func(elapsed time.Duration)) { k.aiTick = fn }

// Alpha returns the interpolation factor computed by the most recent
// RunOneFrame call: accumulator / tick. It is in [0, 1) unless
// MaxFrameskip stopped the catch-up, in which case it is 1 or more.
func (k *Kernel) Alpha() float32 { return k.alpha }

// emit notifies every listener of kind, in priority order, stopping
// early (without error) if one returns false.
func (k *Kernel) emit(kind Event) (continued bool) {
	for _, l := range k.listeners {
		if !l.fn(kind) {
			return false
		}
	}
	return true
}

// RunOneFrame executes one iteration of the loop. It returns
// cont=true and a nil error when the frame ran, when it was skipped
// because a listener aborted EventStarted, and after a non-fatal
// render error. It returns cont=false with ErrQuit after
// MaxRecoverAttempts failed recoveries from a fatal render error,
// and cont=false with engine.RecreateGPU's error when a recovery
// attempt itself fails.
func (k *Kernel) RunOneFrame() (cont bool, err error) {
	now := time.Now()
	if k.lastSample.IsZero() {
		k.lastSample = now
	}
	k.accumulator += now.Sub(k.lastSample)
	k.lastSample = now

	if !k.emit(EventStarted) {
		return true, nil
	}

	steps := 0
	for k.accumulator >= k.tick && steps < k.cfg.MaxFrameskip {
		k.graph.FrameStarted()
		k.graph.Update()
		if k.aiTick != nil {
			k.aiTick(k.tick)
		}
		k.accumulator -= k.tick
		steps++
	}
	k.alpha = float32(k.accumulator) / float32(k.tick)

	k.emit(EventPrerenderStart)
	k.emit(EventPrerenderEnd)

	if !k.emit(EventScenerenderStart) {
		k.emit(EventEnded)
		return true, nil
	}
	if renderErr := k.render.RenderFrame(k.alpha); renderErr != nil {
		if recoverErr := k.handleRenderError(renderErr); recoverErr != nil {
			return false, recoverErr
		}
		k.emit(EventEnded)
		return true, nil
	}
	k.recoverAttempts = 0

	k.emit(EventPostrenderStart)
	k.emit(EventPostrenderEnd)

	if presentErr := k.render.Present(); presentErr != nil {
		if recoverErr := k.handleRenderError(presentErr); recoverErr != nil {
			return false, recoverErr
		}
	}

	k.emit(EventEnded)
	return true, nil
}

// handleRenderError logs a non-fatal render error; for a fatal
// (context-lost) one it attempts device recreation, up to
// MaxRecoverAttempts times, returning ErrQuit once that budget is
// exhausted.
func (k *Kernel) handleRenderError(renderErr error) error {
	if !errors.Is(renderErr, driver.ErrFatal) {
		log.Printf("kernel: render error: %v", renderErr)
		return nil
	}
	k.recoverAttempts++
	if k.recoverAttempts > k.cfg.MaxRecoverAttempts {
		log.Printf("kernel: giving up after %d device recovery attempts", k.recoverAttempts-1)
		return ErrQuit
	}
	log.Printf("kernel: GPU context lost, recreating device (attempt %d/%d)", k.recoverAttempts, k.cfg.MaxRecoverAttempts)
	return engine.RecreateGPU()
}

// Shutdown drains the task pool. Callers invoke this once, after the
// loop has stopped calling RunOneFrame, tearing down subsystems in
// reverse of however they were built during init.
func (k *Kernel) Shutdown() { k.pool.Shutdown() }
