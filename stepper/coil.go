// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package stepper

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/zoetrope/config"
)

// Coil energizing tables. Bit i drives coil pin i.
var (
	// waveDrive energizes a single coil per full step.
	waveDrive = []uint8{
		0b0001,
		0b0010,
		0b0100,
		0b1000,
	}

	// twoPhaseDrive energizes two adjacent coils per full step.
	twoPhaseDrive = []uint8{
		0b0011,
		0b0110,
		0b1100,
		0b1001,
	}

	// halfStep alternates between one and two coils.
	halfStep = []uint8{
		0b0001,
		0b0011,
		0b0010,
		0b0110,
		0b0100,
		0b1100,
		0b1000,
		0b1001,
	}
)

// CoilOpts are the options of a directly sequenced motor.
type CoilOpts struct {
	Torque config.Torque
	// Microstepping is 1 (full steps) or 2 (half steps).
	Microstepping uint32

	_ struct{}
}

// Coil sequences the four coils of a stepper through an H-bridge, one table
// entry per microstep.
type Coil struct {
	pins  [4]gpio.PinOut
	table []uint8
	pos   int
}

// NewCoil returns a Coil with all coils released.
func NewCoil(pins [4]gpio.PinOut, opts *CoilOpts) (*Coil, error) {
	for i, p := range pins {
		if p == nil {
			return nil, fmt.Errorf("stepper: coil pin %d missing", i+1)
		}
	}
	o := CoilOpts{Torque: config.TorqueLow, Microstepping: 1}
	if opts != nil {
		o = *opts
	}
	table, err := coilTable(o.Torque, o.Microstepping)
	if err != nil {
		return nil, err
	}
	c := &Coil{pins: pins, table: table}
	if err := c.Disable(); err != nil {
		return nil, err
	}
	return c, nil
}

func coilTable(t config.Torque, microstepping uint32) ([]uint8, error) {
	switch microstepping {
	case 1:
		if t == config.TorqueHigh {
			return twoPhaseDrive, nil
		}
		return waveDrive, nil
	case 2:
		return halfStep, nil
	default:
		return nil, fmt.Errorf("%w: coil backend supports 1 or 2, got %d", ErrUnsupportedMicrostepping, microstepping)
	}
}

// Step moves one entry along the energizing table.
func (c *Coil) Step(d Direction) error {
	n := len(c.table)
	if d == Reverse {
		c.pos = (c.pos + n - 1) % n
	} else {
		c.pos = (c.pos + 1) % n
	}
	return c.apply(c.table[c.pos])
}

// States returns the number of entries in the energizing table.
func (c *Coil) States() int {
	return len(c.table)
}

// Enable energizes the coils of the current table entry so the motor holds.
func (c *Coil) Enable() error {
	return c.apply(c.table[c.pos])
}

// Disable releases all coils.
func (c *Coil) Disable() error {
	return c.apply(0)
}

func (c *Coil) apply(mask uint8) error {
	var err error
	for i, p := range c.pins {
		err = errors.Join(err, p.Out(mask&(1<<i) != 0))
	}
	return err
}

func (c *Coil) String() string {
	return fmt.Sprintf("Coil{%s, %s, %s, %s; %d states}", c.pins[0], c.pins[1], c.pins[2], c.pins[3], len(c.table))
}

// Halt releases all coils.
func (c *Coil) Halt() error {
	return c.Disable()
}

var _ Driver = &Coil{}
