// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tracker keeps the angular position of the spindle as a microstep
// count and the animation frame it falls in.
//
// A Tracker is owned by a single execution context, the step loop. It is not
// safe for concurrent use.
package tracker

import (
	"fmt"

	"github.com/GermanBionicSystems/zoetrope/geometry"
)

// Tracker is the single source of truth for where the spindle is in the
// animation cycle.
type Tracker struct {
	total         uint32
	stepsPerFrame uint32
	lastFrame     uint32

	position     uint32
	frame        uint32
	stepsInFrame uint32
}

// New returns a Tracker at position 0, frame 0.
func New(g *geometry.Geometry) *Tracker {
	return &Tracker{
		total:         g.TotalMicrosteps,
		stepsPerFrame: g.StepsPerFrame,
		lastFrame:     g.FrameCount - 1,
	}
}

// Advance moves one microstep forward, wrapping at the end of the rotation.
//
// It returns the new position and whether a frame boundary was crossed. On a
// boundary the steps-in-frame counter restarts at 0.
func (t *Tracker) Advance() (uint32, bool) {
	t.position++
	if t.position == t.total {
		t.position = 0
	}
	// The last frame absorbs the truncation drift, so frame 0 starts exactly
	// at the rotation wrap. The wrap is a boundary even with a single frame.
	frame := min(t.position/t.stepsPerFrame, t.lastFrame)
	changed := frame != t.frame || t.position == 0
	t.frame = frame
	if changed {
		t.stepsInFrame = 0
	} else {
		t.stepsInFrame++
	}
	return t.position, changed
}

// Position returns the microstep position in [0, total).
func (t *Tracker) Position() uint32 {
	return t.position
}

// Frame returns the current frame index in [0, frameCount).
func (t *Tracker) Frame() uint32 {
	return t.frame
}

// StepsInFrame returns the number of microsteps since the current frame
// began.
func (t *Tracker) StepsInFrame() uint32 {
	return t.stepsInFrame
}

// Reset returns to position 0, frame 0.
func (t *Tracker) Reset() {
	t.position = 0
	t.frame = 0
	t.stepsInFrame = 0
}

func (t *Tracker) String() string {
	return fmt.Sprintf("position %d/%d frame %d +%d", t.position, t.total, t.frame, t.stepsInFrame)
}
