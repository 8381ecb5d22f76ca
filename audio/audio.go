// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package audio specifies the boundary between the engine and an
// audio library (SDL_mixer/FMOD/OpenAL), without binding to any
// concrete one. The engine only calls through AudioDevice, addressing
// sources by name rather than a library-specific handle.
package audio

import "github.com/divide-framework/divide/linear"

// SourceDesc describes a playable sound source.
type SourceDesc struct {
	Name   string
	Data   []byte
	Loop   bool
	Volume float32
	// Position is used for 3D-positioned sources; ignored for 2D/UI
	// sources (Position left at its zero value).
	Position linear.V3
	Is3D     bool
}

// AudioDevice is the engine's entire view of an external audio
// library: load, control and position named sources.
type AudioDevice interface {
	// Load registers desc under desc.Name, ready for Play.
	Load(desc SourceDesc) error
	// Unload releases a previously loaded source.
	Unload(name string)

	// Play starts (or restarts) playback of a loaded source.
	Play(name string) error
	// Stop halts playback and rewinds to the start.
	Stop(name string)
	// Pause suspends playback in place; Play resumes it.
	Pause(name string)

	// SetVolume adjusts a source's volume, 0 (silent) to 1 (full).
	SetVolume(name string, volume float32) error
	// SetPosition updates a 3D source's world position.
	SetPosition(name string, pos linear.V3) error
	// SetListener updates the listener's world position/orientation,
	// used to attenuate/pan every 3D source.
	SetListener(pos, forward, up linear.V3)
}
