// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package stepper

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
)

// CardOpts are the options of a driver card.
type CardOpts struct {
	// EnableActiveLow is set for A4988 style cards where a low ENABLE
	// energizes the motor.
	EnableActiveLow bool

	_ struct{}
}

// Card drives an external step/direction driver card. The card energizes
// the coils itself; Card only asserts the direction and pulses STEP.
type Card struct {
	step   gpio.PinOut
	dir    gpio.PinOut
	enable gpio.PinOut // Optional.

	enableActiveLow bool
	lastDir         Direction
	dirAsserted     bool
}

// NewCard returns a Card with the motor disabled and STEP low. enable may be
// nil when the card is hardwired enabled.
func NewCard(step, dir, enable gpio.PinOut, opts *CardOpts) (*Card, error) {
	if step == nil || dir == nil {
		return nil, errors.New("stepper: card needs step and dir pins")
	}
	c := &Card{step: step, dir: dir, enable: enable}
	if opts != nil {
		c.enableActiveLow = opts.EnableActiveLow
	}
	if err := step.Out(gpio.Low); err != nil {
		return nil, err
	}
	if err := c.Disable(); err != nil {
		return nil, err
	}
	return c, nil
}

// Step asserts the direction when it changed and pulses STEP once.
func (c *Card) Step(d Direction) error {
	if !c.dirAsserted || d != c.lastDir {
		if err := c.dir.Out(d == Forward); err != nil {
			return err
		}
		c.lastDir = d
		c.dirAsserted = true
	}
	if err := c.step.Out(gpio.High); err != nil {
		return err
	}
	return c.step.Out(gpio.Low)
}

// Enable energizes the motor.
func (c *Card) Enable() error {
	return c.setEnable(true)
}

// Disable lets the motor freewheel.
func (c *Card) Disable() error {
	return c.setEnable(false)
}

func (c *Card) setEnable(on bool) error {
	if c.enable == nil {
		return nil
	}
	return c.enable.Out(gpio.Level(on != c.enableActiveLow))
}

func (c *Card) String() string {
	return "Card{" + c.step.String() + ", " + c.dir.String() + "}"
}

// Halt disables the motor and leaves STEP low.
func (c *Card) Halt() error {
	return errors.Join(c.step.Out(gpio.Low), c.Disable())
}

var _ Driver = &Card{}
