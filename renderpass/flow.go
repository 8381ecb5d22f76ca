// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package renderpass

import (
	"github.com/divide-framework/divide/culler"
	"github.com/divide-framework/divide/rtpool"
)

// Sort keys for the fixed passes every frame carries. Shadow passes
// are synced in between PrePass and Main by SyncShadowPasses, which
// offsets from shadowSortBase.
const (
	sortPrePass       = 0
	shadowSortBase    = 100
	sortMain          = 500
	sortOITAccum      = 600
	sortOITComposite  = 601
	sortDebug         = 900
)

// SetupDefaultFrame installs the fixed, non-shadow passes every frame
// runs: an opaque PrePass (depth/normal fill, used by Hi-Z occlusion
// culling if enabled), the opaque Main pass, a two-stage OIT pass for
// transparent geometry (an accumulation pass and a full-screen
// composite pass) and a Debug overlay pass. Shadow passes are added
// separately, once per shadow caster, by SyncShadowPasses.
//
// screen is the Target of every pass but the OIT composite, the OIT
// accumulation pass included: no separate accumulation target is
// created or assigned here. The composite pass carries no Target
// (HasTarget false), so BindTarget binds nothing for it.
func (m *Manager) SetupDefaultFrame(screen rtpool.Handle) {
	m.passes = nil
	m.AddPass(&Pass{
		Name: "pre-pass", Type: PassPrePass, Stage: culler.StagePrePass,
		SortKey: sortPrePass, Target: screen, HasTarget: true,
	})
	m.AddPass(&Pass{
		Name: "main", Type: PassMain, Stage: culler.StageMain,
		SortKey: sortMain, Target: screen, HasTarget: true,
	})
	m.AddPass(&Pass{
		Name: "oit-accum", Type: PassOITAccum, Stage: culler.StageOIT,
		SortKey: sortOITAccum, Target: screen, HasTarget: true,
	})
	m.AddPass(&Pass{
		Name: "oit-composite", Type: PassOITComposite, Stage: culler.StageOIT,
		SortKey: sortOITComposite,
	})
	m.AddPass(&Pass{
		Name: "debug", Type: PassDebug, Stage: culler.StageDebug,
		SortKey: sortDebug, Target: screen, HasTarget: true,
	})
}

// BindTarget binds p's Target as the active draw target in rtp, if p
// carries one. Passes with HasTarget false (the OIT composite) are
// expected to bind whatever targets they read/write by hand, since
// they are not a single render-target operation.
func (m *Manager) BindTarget(p *Pass, rtp *rtpool.Pool, desc rtpool.RTDrawDescriptor) (*rtpool.RenderTarget, error) {
	if !p.HasTarget {
		return nil, nil
	}
	return rtp.DrawToTargetBegin(p.Target, desc)
}

// UnbindTarget ends the draw-target scope opened by BindTarget.
func (m *Manager) UnbindTarget(p *Pass, rtp *rtpool.Pool) error {
	if !p.HasTarget {
		return nil
	}
	return rtp.DrawToTargetEnd()
}
