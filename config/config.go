// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config holds the static settings of a zoetrope: motor geometry,
// frame count, target speed, strobe policy, actuation backend and pins.
//
// A Config is built once at startup, from Default() optionally overlaid with
// a JSON file, and is never mutated afterwards.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// ErrInvalidConfiguration is returned when a setting is outside its valid
// range. The wrapped message names the offending field.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Backend selects how the stepper is actuated.
type Backend string

const (
	// BackendCard drives an external step/direction driver card.
	BackendCard Backend = "card"
	// BackendCoil sequences the four motor coils directly through an
	// H-bridge.
	BackendCoil Backend = "coil"
)

// Torque selects the coil energizing pattern of BackendCoil.
type Torque string

const (
	// TorqueLow energizes one coil at a time. Recommended.
	TorqueLow Torque = "low"
	// TorqueHigh energizes two coils at a time; the H-bridge runs hotter.
	TorqueHigh Torque = "high"
)

// Flash is the strobe duration policy.
//
// With UseFrameDivider the LED is lit for 1/FrameDivider of each frame. This
// is a coarse setting meant for ballparking; StepsToFlash gives exact control
// once a good value is known.
type Flash struct {
	UseFrameDivider bool   `json:"use_frame_divider"`
	FrameDivider    uint32 `json:"frame_divider"`
	StepsToFlash    uint32 `json:"steps_to_flash"`
}

// Pins names the GPIOs used. Names are resolved through gpioreg, so both
// "GPIO13" and "13" are accepted.
type Pins struct {
	Strobe string `json:"strobe"`

	// BackendCard.
	Step   string `json:"step"`
	Dir    string `json:"dir"`
	Enable string `json:"enable"`

	// BackendCoil, in energizing order.
	Coils [4]string `json:"coils"`
}

// Debug controls the periodic diagnostic snapshot.
type Debug struct {
	Enabled        bool   `json:"enabled"`
	IntervalMillis uint32 `json:"interval_ms"`
	// Port is an optional serial device receiving the snapshots. Stderr is
	// used when empty.
	Port string `json:"port"`
	Baud int    `json:"baud"`
}

// Config is the complete, immutable configuration of a zoetrope.
type Config struct {
	FullStepsPerRotation uint32  `json:"full_steps_per_rotation"`
	Microstepping        uint32  `json:"microstepping"`
	FrameCount           uint32  `json:"frame_count"`
	TargetRPM            float64 `json:"target_rpm"`

	Flash   Flash   `json:"flash"`
	Backend Backend `json:"backend"`
	Torque  Torque  `json:"torque"`
	Pins    Pins    `json:"pins"`

	// Reverse spins the spindle the other way.
	Reverse bool `json:"reverse"`
	// EnableActiveLow matches A4988/DRV8825 style cards where a low ENABLE
	// energizes the motor.
	EnableActiveLow bool `json:"enable_active_low"`
	// SpinupHoldMillis keeps the strobe dark after start while the spindle
	// comes up to speed.
	SpinupHoldMillis uint32 `json:"spinup_hold_ms"`
	// StrictFrames rejects frame counts that do not divide the microsteps
	// per rotation instead of tolerating the drift.
	StrictFrames bool `json:"strict_frames"`

	Debug Debug `json:"debug"`
}

// Default returns the stock settings: a 200 step motor half stepped by a
// driver card, 15 frames at 60 RPM and a one step flash.
func Default() Config {
	return Config{
		FullStepsPerRotation: 200,
		Microstepping:        2,
		FrameCount:           15,
		TargetRPM:            60,
		Flash: Flash{
			UseFrameDivider: false,
			FrameDivider:    5,
			StepsToFlash:    1,
		},
		Backend: BackendCard,
		Torque:  TorqueLow,
		Pins: Pins{
			Strobe: "13",
			Step:   "9",
			Dir:    "7",
			Enable: "5",
			Coils:  [4]string{"8", "9", "10", "11"},
		},
		EnableActiveLow: true,
		Debug: Debug{
			Enabled:        true,
			IntervalMillis: 5000,
			Baud:           115200,
		},
	}
}

// Load reads a JSON file and overlays it on Default(). The result is
// validated.
func Load(path string) (Config, error) {
	c, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Decode overlays the JSON document read from r on Default() and validates
// the result.
func Decode(r io.Reader) (Config, error) {
	c, err := Parse(r)
	if err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Read is Load without validation, for callers that apply overrides before
// validating or need the pin names of an invalid configuration.
func Read(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse is Decode without validation.
func Parse(r io.Reader) (Config, error) {
	c := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	c.applyDefaults()
	return c, nil
}

// applyDefaults normalizes values a file may leave blank.
func (c *Config) applyDefaults() {
	c.Backend = Backend(strings.ToLower(string(c.Backend)))
	c.Torque = Torque(strings.ToLower(string(c.Torque)))
	if c.Backend == "" {
		c.Backend = BackendCard
	}
	if c.Torque == "" {
		c.Torque = TorqueLow
	}
	if c.Debug.Baud == 0 {
		c.Debug.Baud = 115200
	}
}

// TotalMicrosteps is FullStepsPerRotation × Microstepping.
func (c *Config) TotalMicrosteps() uint32 {
	return c.FullStepsPerRotation * c.Microstepping
}

// Validate checks every invariant. It does not touch hardware, pin names are
// only checked for presence.
func (c *Config) Validate() error {
	switch {
	case c.FullStepsPerRotation == 0:
		return invalid("full_steps_per_rotation must be > 0")
	case c.Microstepping == 0:
		return invalid("microstepping must be >= 1")
	case c.FrameCount == 0:
		return invalid("frame_count must be > 0")
	case math.IsNaN(c.TargetRPM) || math.IsInf(c.TargetRPM, 0) || c.TargetRPM <= 0:
		return invalid("target_rpm must be > 0, got %g", c.TargetRPM)
	case c.Flash.UseFrameDivider && c.Flash.FrameDivider == 0:
		return invalid("flash.frame_divider must be > 0")
	}
	total := uint64(c.FullStepsPerRotation) * uint64(c.Microstepping)
	if total > math.MaxUint32 {
		return invalid("%d microsteps per rotation overflows", total)
	}
	if uint64(c.FrameCount) > total {
		return invalid("frame_count %d exceeds %d microsteps per rotation", c.FrameCount, total)
	}
	if c.StrictFrames && total%uint64(c.FrameCount) != 0 {
		return invalid("frame_count %d does not divide %d microsteps per rotation", c.FrameCount, total)
	}
	switch c.Backend {
	case BackendCard:
		if c.Pins.Step == "" || c.Pins.Dir == "" {
			return invalid("pins.step and pins.dir are required by the card backend")
		}
	case BackendCoil:
		for i, p := range c.Pins.Coils {
			if p == "" {
				return invalid("pins.coils[%d] is required by the coil backend", i)
			}
		}
		if c.Torque != TorqueLow && c.Torque != TorqueHigh {
			return invalid("unknown torque %q", c.Torque)
		}
	default:
		return invalid("unknown backend %q", c.Backend)
	}
	if c.Pins.Strobe == "" {
		return invalid("pins.strobe is required")
	}
	if c.Debug.Enabled && c.Debug.IntervalMillis == 0 {
		return invalid("debug.interval_ms must be > 0 when debug is enabled")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
