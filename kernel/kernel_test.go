// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package kernel

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/divide-framework/divide/driver"
	"github.com/divide-framework/divide/scene"
	"github.com/divide-framework/divide/taskpool"
)

type fakeRenderer struct {
	renderErr   error
	presentErr  error
	renderCalls int
}

func (f *fakeRenderer) RenderFrame(alpha float32) error {
	f.renderCalls++
	return f.renderErr
}

func (f *fakeRenderer) Present() error { return f.presentErr }

func newTestKernel(r Renderer) *Kernel {
	cfg := Config{TicksPerSecond: 1000, MaxFrameskip: 10, MaxRecoverAttempts: 2}
	return New(cfg, taskpool.New(2), scene.New(), r)
}

func TestRunOneFrameAdvancesAccumulator(t *testing.T) {
	k := newTestKernel(&fakeRenderer{})
	k.lastSample = time.Now().Add(-5 * time.Millisecond)

	if _, err := k.RunOneFrame(); err != nil {
		t.Fatalf("RunOneFrame: %v", err)
	}
	if k.Alpha() < 0 || k.Alpha() >= 1 {
		t.Fatalf("Alpha = %v, want in [0,1)", k.Alpha())
	}
}

func TestRunOneFrameAbortsOnListenerFalse(t *testing.T) {
	r := &fakeRenderer{}
	k := newTestKernel(r)
	k.AddListener(0, func(e Event) bool { return e != EventStarted })

	if _, err := k.RunOneFrame(); err != nil {
		t.Fatalf("RunOneFrame: %v", err)
	}
	if r.renderCalls != 0 {
		t.Fatalf("RenderFrame called %d times, want 0 (frame aborted at EventStarted)", r.renderCalls)
	}
}

func TestRunOneFrameListenerOrderByPriority(t *testing.T) {
	k := newTestKernel(&fakeRenderer{})
	var order []int
	k.AddListener(5, func(Event) bool { order = append(order, 5); return true })
	k.AddListener(1, func(Event) bool { order = append(order, 1); return true })
	k.AddListener(3, func(Event) bool { order = append(order, 3); return true })

	k.RunOneFrame()

	want := []int{1, 3, 5}
	for i := 0; i < 3; i++ {
		if order[i] != want[i] {
			t.Fatalf("first EventStarted dispatch order = %v, want %v prefix", order[:3], want)
		}
	}
}

func TestRunOneFrameQuitsAfterRepeatedFatalErrors(t *testing.T) {
	fatal := fmt.Errorf("backend: device removed: %w", driver.ErrFatal)
	r := &fakeRenderer{renderErr: fatal}
	k := newTestKernel(r)

	var lastErr error
	for i := 0; i < 10; i++ {
		var cont bool
		cont, lastErr = k.RunOneFrame()
		if lastErr != nil {
			if !cont && errors.Is(lastErr, ErrQuit) {
				return
			}
			t.Fatalf("RunOneFrame: unexpected error %v", lastErr)
		}
	}
	t.Fatalf("RunOneFrame: never quit after repeated fatal errors")
}

func TestRunOneFrameDispatchesAITick(t *testing.T) {
	k := newTestKernel(&fakeRenderer{})
	k.lastSample = time.Now().Add(-100 * time.Millisecond)
	var ticks int
	k.SetAITick(func(time.Duration) { ticks++ })

	k.RunOneFrame()

	if ticks == 0 {
		t.Fatalf("SetAITick callback never invoked")
	}
}
