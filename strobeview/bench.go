// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package strobeview

import (
	"fmt"
	"image/color"
	"io"
	"strings"

	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/zoetrope/config"
)

var (
	strobeOn = color.NRGBA{0xFF, 0xF4, 0xC0, 255}
	stepOn   = color.NRGBA{0x40, 0xA0, 0xFF, 255}
	dirOn    = color.NRGBA{0xA0, 0x60, 0xFF, 255}
	enableOn = color.NRGBA{0x40, 0xFF, 0x60, 255}
	coilOn   = color.NRGBA{0xFF, 0x60, 0x20, 255}
)

// Bench is an emulated board with every pin named in a configuration.
//
// Cell 0 is the strobe LED, the following cells are the motor pins of the
// configured backend.
type Bench struct {
	*Dev
	pins map[string]*Pin
	led  *Pin
}

// NewBench lays out the pins of c on a line written to w.
func NewBench(c *config.Config, w io.Writer) (*Bench, error) {
	type cell struct {
		role, name string
		on         color.NRGBA
	}
	cells := []cell{{"strobe", c.Pins.Strobe, strobeOn}}
	switch c.Backend {
	case config.BackendCoil:
		for i, n := range c.Pins.Coils {
			cells = append(cells, cell{fmt.Sprintf("coil%d", i+1), n, coilOn})
		}
	default:
		cells = append(cells, cell{"step", c.Pins.Step, stepOn}, cell{"dir", c.Pins.Dir, dirOn})
		if c.Pins.Enable != "" {
			cells = append(cells, cell{"enable", c.Pins.Enable, enableOn})
		}
	}
	d, err := New(&Opts{X: len(cells), W: w})
	if err != nil {
		return nil, err
	}
	b := &Bench{Dev: d, pins: map[string]*Pin{}}
	for i, cl := range cells {
		name := strings.TrimSpace(cl.name)
		if name == "" {
			return nil, fmt.Errorf("strobeview: no pin for %s", cl.role)
		}
		if _, ok := b.pins[name]; ok {
			return nil, fmt.Errorf("strobeview: pin %q used twice", name)
		}
		p, err := d.Pin(&PinOpts{Name: strings.ToUpper(cl.role), Number: i, X: i, On: cl.on, Redraw: i == 0})
		if err != nil {
			return nil, err
		}
		b.pins[name] = p
		if i == 0 {
			b.led = p
		}
	}
	return b, nil
}

// Resolve returns the emulated pin for a configured name. It has the
// signature of stepper.Resolver.
func (b *Bench) Resolve(name string) (gpio.PinOut, error) {
	if p, ok := b.pins[strings.TrimSpace(name)]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("strobeview: pin %q is not on the bench", name)
}

// LED returns the strobe pin.
func (b *Bench) LED() *Pin {
	return b.led
}
