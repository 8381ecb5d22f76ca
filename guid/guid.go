// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package guid generates process-wide unique identifiers.
// Every long-lived engine object (resources, scene graph nodes,
// lights, cameras) carries one of these. Values are monotonically
// increasing and never reused; equality of two objects is defined
// by GUID equality, not by pointer identity.
package guid

import "sync/atomic"

// GUID identifies an object for the lifetime of the process.
type GUID uint64

// Invalid is the zero value, never returned by New.
const Invalid GUID = 0

var next uint64

// New returns a fresh, never-before-issued GUID.
// Safe for concurrent use.
func New() GUID {
	return GUID(atomic.AddUint64(&next, 1))
}
