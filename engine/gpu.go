// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/divide-framework/divide/driver"
	"github.com/divide-framework/divide/engine/internal/ctxt"
)

// GPU returns the driver.GPU instance the engine is currently using.
func GPU() driver.GPU { return ctxt.GPU() }

// RecreateGPU closes the current GPU driver and opens a new one, for
// use after a fatal (context-lost) driver error. Every driver
// resource obtained from the previous GPU - textures, buffers,
// pipelines, command buffers - is invalid once this returns; the
// caller is responsible for recreating them (package rescache's
// loaders make that a matter of re-issuing the same Load calls).
func RecreateGPU() error { return ctxt.RecreateGPU() }
