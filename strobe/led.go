// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package strobe

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// ErrNoPin is returned by NewLED when no pin is given.
var ErrNoPin = errors.New("strobe: no LED pin")

// Opts are the LED options.
type Opts struct {
	// SpinupHoldMillis keeps the LED off until the clock passed to Set
	// reaches this many milliseconds.
	SpinupHoldMillis uint32

	_ struct{}
}

// LED is the strobe output. It only writes to the pin when the level
// changes.
type LED struct {
	p    gpio.PinOut
	hold uint32

	level   gpio.Level
	written bool
	edges   uint64
}

// NewLED drives the LED off and returns it.
func NewLED(p gpio.PinOut, opts *Opts) (*LED, error) {
	if p == nil {
		return nil, ErrNoPin
	}
	l := &LED{p: p}
	if opts != nil {
		l.hold = opts.SpinupHoldMillis
	}
	if err := l.write(gpio.Low); err != nil {
		return nil, fmt.Errorf("strobe: %w", err)
	}
	return l, nil
}

// Set drives the LED to level, or off while the spin-up hold is active.
//
// nowMillis is the time elapsed since the loop started. It reports whether
// the pin was written.
func (l *LED) Set(level gpio.Level, nowMillis uint32) (bool, error) {
	if nowMillis < l.hold {
		level = gpio.Low
	}
	if l.written && level == l.level {
		return false, nil
	}
	return true, l.write(level)
}

// Off turns the LED off regardless of the current state.
func (l *LED) Off() error {
	return l.write(gpio.Low)
}

// Level returns the last level written.
func (l *LED) Level() gpio.Level {
	return l.level
}

// Edges returns the number of level changes written since creation.
func (l *LED) Edges() uint64 {
	return l.edges
}

func (l *LED) write(level gpio.Level) error {
	if err := l.p.Out(level); err != nil {
		return err
	}
	if l.written && level != l.level {
		l.edges++
	}
	l.level = level
	l.written = true
	return nil
}

// String implements conn.Resource.
func (l *LED) String() string {
	return "Strobe{" + l.p.String() + "}"
}

// Halt turns the LED off.
//
// Halt implements conn.Resource.
func (l *LED) Halt() error {
	return l.Off()
}

var _ conn.Resource = &LED{}
