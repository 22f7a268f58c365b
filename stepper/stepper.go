// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package stepper advances the spindle motor one microstep at a time.
//
// Two backends are provided: Card pulses the step line of an external
// step/direction driver card, Coil sequences the four motor coils directly
// through an H-bridge. The backend is picked once, at setup, by New.
package stepper

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/zoetrope/config"
)

var (
	// ErrInvalidPin is returned when a configured pin cannot be resolved.
	ErrInvalidPin = errors.New("stepper: invalid pin")

	// ErrUnsupportedMicrostepping is returned when the coil backend is asked
	// for a microstepping it has no energizing table for.
	ErrUnsupportedMicrostepping = errors.New("stepper: unsupported microstepping")
)

// Direction is the rotation direction.
type Direction uint8

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "Reverse"
	}
	return "Forward"
}

// Driver performs one microstep of physical advance per Step call.
//
// Step is called from the step loop once per step interval and must return
// well within it. It never sleeps.
type Driver interface {
	conn.Resource
	// Step advances the motor by one microstep in direction d.
	Step(d Direction) error
	// Enable energizes the motor.
	Enable() error
	// Disable releases the motor so it freewheels.
	Disable() error
}

// Resolver maps a configured pin name to an output pin.
type Resolver func(name string) (gpio.PinOut, error)

// New returns the backend selected by c, with its pins resolved through r.
//
// The motor is left disabled.
func New(c *config.Config, r Resolver) (Driver, error) {
	switch c.Backend {
	case config.BackendCard:
		step, err := resolve(r, "step", c.Pins.Step)
		if err != nil {
			return nil, err
		}
		dir, err := resolve(r, "dir", c.Pins.Dir)
		if err != nil {
			return nil, err
		}
		var enable gpio.PinOut
		if c.Pins.Enable != "" {
			if enable, err = resolve(r, "enable", c.Pins.Enable); err != nil {
				return nil, err
			}
		}
		return NewCard(step, dir, enable, &CardOpts{EnableActiveLow: c.EnableActiveLow})
	case config.BackendCoil:
		var pins [4]gpio.PinOut
		for i, name := range c.Pins.Coils {
			p, err := resolve(r, fmt.Sprintf("coil%d", i+1), name)
			if err != nil {
				return nil, err
			}
			pins[i] = p
		}
		return NewCoil(pins, &CoilOpts{Torque: c.Torque, Microstepping: c.Microstepping})
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalidConfiguration, c.Backend)
	}
}

func resolve(r Resolver, role, name string) (gpio.PinOut, error) {
	p, err := r(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s pin %q: %w", ErrInvalidPin, role, name, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s pin %q not found", ErrInvalidPin, role, name)
	}
	return p, nil
}
