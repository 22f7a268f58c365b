// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package geometry derives the timing constants of a zoetrope from its
// configuration: the time between microsteps, the number of microsteps per
// frame and the strobe window inside each frame.
//
// # Drift
//
// When the frame count does not divide the microsteps per rotation, the
// number of microsteps per frame is truncated. The remaining Drift steps are
// absorbed by the last frame of every rotation, so frame 0 always starts at
// position 0. This is kept as is: existing spindles are calibrated against
// it.
package geometry

import (
	"fmt"
	"math"
	"time"

	"github.com/GermanBionicSystems/zoetrope/config"
)

// microsPerMinute is the number of microseconds in one minute.
const microsPerMinute = 60_000_000

// ErrInvalidConfiguration is config.ErrInvalidConfiguration, so callers can
// match on either.
var ErrInvalidConfiguration = config.ErrInvalidConfiguration

// StepIntervalMicros converts a rotation speed into the number of
// microseconds between two microsteps.
//
// The result is 60e6 / (rpm × total), truncated toward zero.
func StepIntervalMicros(rpm float64, total uint32) (uint32, error) {
	if math.IsNaN(rpm) || math.IsInf(rpm, 0) || rpm <= 0 {
		return 0, fmt.Errorf("%w: target_rpm must be > 0, got %g", ErrInvalidConfiguration, rpm)
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: microsteps per rotation must be > 0", ErrInvalidConfiguration)
	}
	us := math.Trunc(microsPerMinute / (rpm * float64(total)))
	if us < 1 {
		return 0, fmt.Errorf("%w: %g RPM needs a step interval under 1µs", ErrInvalidConfiguration, rpm)
	}
	if us > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %g RPM is too slow", ErrInvalidConfiguration, rpm)
	}
	return uint32(us), nil
}

// StepInterval is StepIntervalMicros as a time.Duration.
func StepInterval(rpm float64, total uint32) (time.Duration, error) {
	us, err := StepIntervalMicros(rpm, total)
	if err != nil {
		return 0, err
	}
	return time.Duration(us) * time.Microsecond, nil
}

// Geometry holds the constants derived from a config.Config. It is computed
// once and read-only afterwards.
type Geometry struct {
	// TotalMicrosteps is the number of microsteps in one rotation.
	TotalMicrosteps uint32
	// FrameCount is the number of frames on the spindle.
	FrameCount uint32
	// StepsPerFrame is TotalMicrosteps / FrameCount, truncated.
	StepsPerFrame uint32
	// Drift is the number of microsteps lost to truncation on each rotation.
	Drift uint32
	// IntervalMicros is the time between two microsteps.
	IntervalMicros uint32

	flashSteps uint32
}

// New validates c and derives its geometry.
func New(c *config.Config) (*Geometry, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	total := c.TotalMicrosteps()
	us, err := StepIntervalMicros(c.TargetRPM, total)
	if err != nil {
		return nil, err
	}
	g := &Geometry{
		TotalMicrosteps: total,
		FrameCount:      c.FrameCount,
		StepsPerFrame:   total / c.FrameCount,
		IntervalMicros:  us,
	}
	g.Drift = total - g.StepsPerFrame*c.FrameCount
	if c.Flash.UseFrameDivider {
		g.flashSteps = g.StepsPerFrame / c.Flash.FrameDivider
	} else {
		g.flashSteps = c.Flash.StepsToFlash
	}
	return g, nil
}

// Interval returns IntervalMicros as a time.Duration.
func (g *Geometry) Interval() time.Duration {
	return time.Duration(g.IntervalMicros) * time.Microsecond
}

// WithRPM returns a copy of g running at rpm. Frame boundaries and strobe
// window are unchanged.
func (g *Geometry) WithRPM(rpm float64) (*Geometry, error) {
	us, err := StepIntervalMicros(rpm, g.TotalMicrosteps)
	if err != nil {
		return nil, err
	}
	n := *g
	n.IntervalMicros = us
	return &n, nil
}

// FrameStart returns the absolute microstep at which frame i begins.
//
// It is meant for diagnostics; the step loop counts steps incrementally
// instead.
func (g *Geometry) FrameStart(i uint32) uint32 {
	return i * g.StepsPerFrame
}

// FrameLen returns the number of microsteps of frame i. The last frame is
// longer by Drift.
func (g *Geometry) FrameLen(i uint32) uint32 {
	if i == g.FrameCount-1 {
		return g.StepsPerFrame + g.Drift
	}
	return g.StepsPerFrame
}

// FlashSteps returns the configured strobe duration in microsteps, either
// StepsPerFrame / FrameDivider or StepsToFlash.
func (g *Geometry) FlashSteps() uint32 {
	return g.flashSteps
}

// EffectiveFlashSteps is FlashSteps, widened to the longest frame when the
// flash is at least one frame long so the LED stays lit through every frame,
// the drift-extended last one included.
func (g *Geometry) EffectiveFlashSteps() uint32 {
	if g.flashSteps >= g.StepsPerFrame {
		return g.StepsPerFrame + g.Drift
	}
	return g.flashSteps
}

// AlwaysOn reports whether the strobe never goes dark.
func (g *Geometry) AlwaysOn() bool {
	return g.flashSteps >= g.StepsPerFrame
}

// Window is the microstep range of one frame and its strobe sub-window.
//
// Start is inclusive, End and FlashEnd exclusive.
type Window struct {
	Frame    uint32
	Start    uint32
	End      uint32
	FlashEnd uint32
}

// Windows returns the window of every frame, in order.
func (g *Geometry) Windows() []Window {
	out := make([]Window, g.FrameCount)
	flash := g.EffectiveFlashSteps()
	for i := range g.FrameCount {
		start := g.FrameStart(i)
		end := start + g.FrameLen(i)
		out[i] = Window{Frame: i, Start: start, End: end, FlashEnd: min(start+flash, end)}
	}
	return out
}

// String implements fmt.Stringer.
func (g *Geometry) String() string {
	return fmt.Sprintf("%d microsteps, %d frames of %d (drift %d), %dµs/step, flash %d",
		g.TotalMicrosteps, g.FrameCount, g.StepsPerFrame, g.Drift, g.IntervalMicros, g.flashSteps)
}
