// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package platform provides the host services the step loop relies on: GPIO
// pins, a periodic timer, a millisecond clock and a serial debug channel.
package platform

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// ErrPinNotFound is returned by Pin for an unknown pin name.
var ErrPinNotFound = errors.New("platform: pin not found")

// Init loads the periph host drivers so that pins can be looked up by name.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	return nil
}

// Pin returns the GPIO registered under name, e.g. "GPIO13" or "13".
func Pin(name string) (gpio.PinOut, error) {
	p := gpioreg.ByName(strings.TrimSpace(name))
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrPinNotFound, name)
	}
	return p, nil
}

// Clock returns the time elapsed since the loop started.
type Clock interface {
	// Millis returns elapsed milliseconds. It wraps after ~49 days.
	Millis() uint32
}

// HostClock is a Clock backed by the monotonic system clock.
type HostClock struct {
	start time.Time
}

// NewHostClock returns a HostClock starting at 0 now.
func NewHostClock() *HostClock {
	return &HostClock{start: time.Now()}
}

// Millis implements Clock.
func (c *HostClock) Millis() uint32 {
	return uint32(time.Since(c.start) / time.Millisecond)
}

// OpenSerial opens a serial port for the debug channel.
func OpenSerial(port string, baud int) (io.WriteCloser, error) {
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("platform: open %s: %w", port, err)
	}
	return p, nil
}
