// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package input turns wsi's global window/keyboard/pointer callbacks
// into a polled queue of Events, and routes each drained event through
// an ordered chain of consumers (scene input, then GUI, then editor),
// stopping at whichever one handles it first.
//
// Joystick input has no wsi backing (the platform layer covers
// keyboard/pointer/window only); JoystickEvent exists so a future
// backend can feed the same Queue without widening this package's API.
package input

import (
	"sync"

	"github.com/divide-framework/divide/wsi"
)

// Kind identifies what an Event carries; only the fields relevant to
// that kind are meaningful.
type Kind int

const (
	KindKey Kind = iota
	KindMouseButton
	KindMouseMove
	KindScroll
	KindWindowResize
	KindWindowClose
	KindFocusIn
	KindFocusOut
	KindJoystick
)

// Event is one input occurrence, queued in arrival order.
type Event struct {
	Kind Kind

	Win wsi.Window

	Key     wsi.Key
	Mods    wsi.Modifier
	Button  wsi.Button
	Pressed bool

	X, Y   int
	Scroll int

	Width, Height int

	JoystickID   int
	JoystickAxis int
	JoystickVal  float32
}

// Queue accumulates wsi events between Drain calls. It implements
// wsi.WindowHandler, wsi.KeyboardHandler and wsi.PointerHandler, and
// registers itself as the global handler for all three on creation.
type Queue struct {
	mu     sync.Mutex
	events []Event
	down   map[wsi.Key]bool
}

// NewQueue creates a Queue and installs it as wsi's global handler.
// Only one Queue should be active at a time: wsi's handler slots are
// global, so a second NewQueue call replaces the first's registration.
func NewQueue() *Queue {
	q := &Queue{down: map[wsi.Key]bool{}}
	wsi.SetWindowHandler(q)
	wsi.SetKeyboardHandler(q)
	wsi.SetPointerHandler(q)
	return q
}

func (q *Queue) push(e Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// Drain returns every event queued since the last Drain call, in
// arrival order, clearing the queue. Callers invoke this once per
// frame, before routing.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = nil
	return out
}

// IsDown reports whether key is currently held, independent of the
// queued event history (consumers that poll rather than react to
// key-down/up transitions use this).
func (q *Queue) IsDown(key wsi.Key) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.down[key]
}

// WindowClose implements wsi.WindowHandler.
func (q *Queue) WindowClose(win wsi.Window) { q.push(Event{Kind: KindWindowClose, Win: win}) }

// WindowResize implements wsi.WindowHandler.
func (q *Queue) WindowResize(win wsi.Window, newWidth, newHeight int) {
	q.push(Event{Kind: KindWindowResize, Win: win, Width: newWidth, Height: newHeight})
}

// KeyboardIn implements wsi.KeyboardHandler.
func (q *Queue) KeyboardIn(win wsi.Window) { q.push(Event{Kind: KindFocusIn, Win: win}) }

// KeyboardOut implements wsi.KeyboardHandler.
func (q *Queue) KeyboardOut(win wsi.Window) { q.push(Event{Kind: KindFocusOut, Win: win}) }

// KeyboardKey implements wsi.KeyboardHandler.
func (q *Queue) KeyboardKey(key wsi.Key, pressed bool, modMask wsi.Modifier) {
	q.mu.Lock()
	q.down[key] = pressed
	q.mu.Unlock()
	q.push(Event{Kind: KindKey, Key: key, Pressed: pressed, Mods: modMask})
}

// PointerIn implements wsi.PointerHandler.
func (q *Queue) PointerIn(win wsi.Window, x, y int) {
	q.push(Event{Kind: KindMouseMove, Win: win, X: x, Y: y})
}

// PointerOut implements wsi.PointerHandler.
func (q *Queue) PointerOut(win wsi.Window) { q.push(Event{Kind: KindMouseMove, Win: win}) }

// PointerMotion implements wsi.PointerHandler.
func (q *Queue) PointerMotion(newX, newY int) {
	q.push(Event{Kind: KindMouseMove, X: newX, Y: newY})
}

// PointerButton implements wsi.PointerHandler.
func (q *Queue) PointerButton(btn wsi.Button, pressed bool, x, y int) {
	q.push(Event{Kind: KindMouseButton, Button: btn, Pressed: pressed, X: x, Y: y})
}

// PushJoystick queues a joystick axis event. There is no wsi-level
// joystick source; callers with a joystick backend feed it through
// here so it still flows through the same Queue/Router pipeline.
func (q *Queue) PushJoystick(id, axis int, value float32) {
	q.push(Event{Kind: KindJoystick, JoystickID: id, JoystickAxis: axis, JoystickVal: value})
}
