// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package strobeview

import (
	"errors"
	"fmt"
	"image/color"
	"sync/atomic"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Off is the color of a cell whose pin is low.
var Off = color.NRGBA{0x20, 0x20, 0x20, 255}

// PinOpts configures a Pin.
type PinOpts struct {
	Name   string
	Number int
	// X is the cell lit by the pin.
	X int
	// On is the color of the cell while the pin is high.
	On color.NRGBA
	// Redraw makes every level change redraw the line. Leave it off for
	// pins toggling on every step or the terminal can't keep up.
	Redraw bool
}

// Pin is an emulated output pin.
type Pin struct {
	d    *Dev
	opts PinOpts

	level  atomic.Bool
	writes atomic.Uint64
}

// Pin returns an output pin drawing into cell opts.X.
func (d *Dev) Pin(opts *PinOpts) (*Pin, error) {
	if opts.X < 0 || opts.X >= d.l {
		return nil, fmt.Errorf("strobeview: cell %d out of range [0, %d)", opts.X, d.l)
	}
	p := &Pin{d: d, opts: *opts}
	d.mu.Lock()
	d.set(opts.X, Off)
	d.mu.Unlock()
	return p, nil
}

// String implements conn.Resource.
func (p *Pin) String() string {
	return fmt.Sprintf("%s(%d)", p.opts.Name, p.opts.Number)
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// Name implements pin.Pin.
func (p *Pin) Name() string {
	return p.opts.Name
}

// Number implements pin.Pin.
func (p *Pin) Number() int {
	return p.opts.Number
}

// Function implements pin.Pin.
func (p *Pin) Function() string {
	return "Out/" + p.Read().String()
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	p.writes.Add(1)
	changed := p.level.Swap(bool(l)) != bool(l)
	c := Off
	if l {
		c = p.opts.On
	}
	p.d.mu.Lock()
	defer p.d.mu.Unlock()
	p.d.set(p.opts.X, c)
	if changed && p.opts.Redraw {
		_, err := p.d.flush()
		return err
	}
	return nil
}

// PWM implements gpio.PinOut.
func (p *Pin) PWM(gpio.Duty, physic.Frequency) error {
	return errors.New("strobeview: PWM is not supported")
}

// Read returns the last level written.
func (p *Pin) Read() gpio.Level {
	return gpio.Level(p.level.Load())
}

// Writes returns the number of calls to Out.
func (p *Pin) Writes() uint64 {
	return p.writes.Load()
}

var _ gpio.PinOut = &Pin{}
