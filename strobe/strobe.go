// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package strobe decides when the LED illuminating the spindle is lit and
// drives it.
//
// The policy is a two-state machine per frame: Flashing for the first
// flashSteps microsteps of a frame, Dark for the rest. It holds no state of
// its own; the steps elapsed in the current frame come from the position
// tracker.
package strobe

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// State is the strobe state within a frame.
type State uint8

const (
	// Dark means the LED is off until the next frame boundary.
	Dark State = iota
	// Flashing means the LED is lit.
	Flashing
)

func (s State) String() string {
	switch s {
	case Dark:
		return "Dark"
	case Flashing:
		return "Flashing"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Level returns the LED level for s.
func (s State) Level() gpio.Level {
	return s == Flashing
}

// StateAt returns the strobe state stepsSinceFrameStart microsteps into a
// frame.
func StateAt(stepsSinceFrameStart, flashSteps uint32) State {
	if stepsSinceFrameStart < flashSteps {
		return Flashing
	}
	return Dark
}

// Desired returns the LED level stepsSinceFrameStart microsteps into a frame.
func Desired(stepsSinceFrameStart, flashSteps uint32) gpio.Level {
	return StateAt(stepsSinceFrameStart, flashSteps).Level()
}
