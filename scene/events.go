// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import "sync"

// TransformListener is called for every node whose own local
// transform changed since the last Graph.Update, with mask describing
// which parts of it changed. Descendants whose world transform moved
// only because an ancestor moved are not reported.
type TransformListener func(n Node, mask DirtyMask)

// EventBus fans out transform-update notifications to interested
// systems (the culler invalidating a cached frustum test, a physics
// proxy resyncing its kinematic pose, and so on). The zero value is
// a usable, empty bus.
type EventBus struct {
	mu        sync.Mutex
	listeners []TransformListener
}

// Subscribe registers fn to be called on every future publish.
// It returns a function that unsubscribes fn.
func (b *EventBus) Subscribe(fn TransformListener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
	idx := len(b.listeners) - 1
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.listeners) {
			b.listeners[idx] = nil
		}
	}
}

func (b *EventBus) publish(n Node, mask DirtyMask) {
	b.mu.Lock()
	listeners := make([]TransformListener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()
	for _, fn := range listeners {
		if fn != nil {
			fn(n, mask)
		}
	}
}
