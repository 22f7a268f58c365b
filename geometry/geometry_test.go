// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package geometry

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/GermanBionicSystems/zoetrope/config"
)

func TestStepIntervalMicros(t *testing.T) {
	for _, test := range []struct {
		rpm   float64
		total uint32
		want  uint32
	}{
		{80, 3200, 234},
		{60, 400, 2500},
		{1, 1, 60_000_000},
		{7, 400, 21428},
		{0.5, 200, 600_000},
		{60, 1_000_000, 1},
	} {
		got, err := StepIntervalMicros(test.rpm, test.total)
		if err != nil {
			t.Fatalf("StepIntervalMicros(%g, %d): %v", test.rpm, test.total, err)
		}
		if got != test.want {
			t.Errorf("StepIntervalMicros(%g, %d) = %d, want %d", test.rpm, test.total, got, test.want)
		}
		if got == 0 {
			t.Errorf("StepIntervalMicros(%g, %d) is not positive", test.rpm, test.total)
		}
	}
}

func TestStepIntervalMicrosProperty(t *testing.T) {
	for _, rpm := range []float64{0.25, 1, 12.5, 60, 80, 333} {
		for _, total := range []uint32{1, 7, 200, 400, 3200, 51200} {
			got, err := StepIntervalMicros(rpm, total)
			if err != nil {
				continue
			}
			want := uint32(math.Trunc(60_000_000 / (rpm * float64(total))))
			if got != want || got == 0 {
				t.Errorf("StepIntervalMicros(%g, %d) = %d, want %d", rpm, total, got, want)
			}
		}
	}
}

func TestStepIntervalMicrosInvalid(t *testing.T) {
	for _, test := range []struct {
		name  string
		rpm   float64
		total uint32
	}{
		{"zero rpm", 0, 400},
		{"negative rpm", -1, 400},
		{"nan", math.NaN(), 400},
		{"inf", math.Inf(1), 400},
		{"zero total", 60, 0},
		{"sub microsecond", 100000, 51200},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := StepIntervalMicros(test.rpm, test.total)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestStepInterval(t *testing.T) {
	d, err := StepInterval(80, 3200)
	if err != nil {
		t.Fatal(err)
	}
	if d != 234*time.Microsecond {
		t.Fatalf("StepInterval() = %s", d)
	}
}

func exampleConfig() config.Config {
	c := config.Default()
	c.FrameCount = 15
	c.FullStepsPerRotation = 200
	c.Microstepping = 16
	c.TargetRPM = 80
	c.Flash = config.Flash{UseFrameDivider: true, FrameDivider: 30}
	return c
}

func TestNewExample(t *testing.T) {
	c := exampleConfig()
	g, err := New(&c)
	if err != nil {
		t.Fatal(err)
	}
	if g.TotalMicrosteps != 3200 {
		t.Errorf("TotalMicrosteps = %d, want 3200", g.TotalMicrosteps)
	}
	if g.StepsPerFrame != 213 {
		t.Errorf("StepsPerFrame = %d, want 213", g.StepsPerFrame)
	}
	if g.Drift != 5 {
		t.Errorf("Drift = %d, want 5", g.Drift)
	}
	if g.IntervalMicros != 234 {
		t.Errorf("IntervalMicros = %d, want 234", g.IntervalMicros)
	}
	if g.FlashSteps() != 7 {
		t.Errorf("FlashSteps() = %d, want 7", g.FlashSteps())
	}
	if g.Interval() != 234*time.Microsecond {
		t.Errorf("Interval() = %s", g.Interval())
	}
}

func TestDriftIsReproducible(t *testing.T) {
	c := config.Default()
	c.FrameCount = 15
	c.FullStepsPerRotation = 200
	c.Microstepping = 2
	for range 3 {
		g, err := New(&c)
		if err != nil {
			t.Fatal(err)
		}
		if g.StepsPerFrame != 26 || g.Drift != 10 {
			t.Fatalf("got %d steps per frame, drift %d; want 26, 10", g.StepsPerFrame, g.Drift)
		}
		if got := g.FrameLen(14); got != 36 {
			t.Fatalf("FrameLen(14) = %d, want 36", got)
		}
		if got := g.FrameLen(3); got != 26 {
			t.Fatalf("FrameLen(3) = %d, want 26", got)
		}
	}
}

func TestFineFlash(t *testing.T) {
	c := exampleConfig()
	c.Flash = config.Flash{StepsToFlash: 12, FrameDivider: 30}
	g, err := New(&c)
	if err != nil {
		t.Fatal(err)
	}
	if g.FlashSteps() != 12 || g.EffectiveFlashSteps() != 12 || g.AlwaysOn() {
		t.Fatalf("flash %d effective %d always %t", g.FlashSteps(), g.EffectiveFlashSteps(), g.AlwaysOn())
	}
}

func TestFlashLongerThanFrame(t *testing.T) {
	c := exampleConfig()
	c.Flash = config.Flash{StepsToFlash: 500}
	g, err := New(&c)
	if err != nil {
		t.Fatal(err)
	}
	if !g.AlwaysOn() {
		t.Fatal("expected AlwaysOn")
	}
	if got := g.EffectiveFlashSteps(); got != 218 {
		t.Fatalf("EffectiveFlashSteps() = %d, want 218", got)
	}
	for _, w := range g.Windows() {
		if w.FlashEnd != w.End {
			t.Fatalf("frame %d: flash ends at %d, frame at %d", w.Frame, w.FlashEnd, w.End)
		}
	}
}

func TestFrameStartAndWindows(t *testing.T) {
	c := exampleConfig()
	g, err := New(&c)
	if err != nil {
		t.Fatal(err)
	}
	ws := g.Windows()
	if len(ws) != 15 {
		t.Fatalf("len(Windows()) = %d", len(ws))
	}
	var next uint32
	for i, w := range ws {
		if w.Start != g.FrameStart(uint32(i)) {
			t.Errorf("frame %d starts at %d, FrameStart = %d", i, w.Start, g.FrameStart(uint32(i)))
		}
		if w.Start != next {
			t.Errorf("frame %d starts at %d, want %d", i, w.Start, next)
		}
		if w.FlashEnd-w.Start != 7 {
			t.Errorf("frame %d flash is %d steps", i, w.FlashEnd-w.Start)
		}
		next = w.End
	}
	if next != g.TotalMicrosteps {
		t.Fatalf("windows end at %d, want %d", next, g.TotalMicrosteps)
	}
	if g.FrameStart(14) != 2982 {
		t.Fatalf("FrameStart(14) = %d", g.FrameStart(14))
	}
}

func TestWithRPM(t *testing.T) {
	c := exampleConfig()
	g, err := New(&c)
	if err != nil {
		t.Fatal(err)
	}
	f, err := g.WithRPM(40)
	if err != nil {
		t.Fatal(err)
	}
	if f.IntervalMicros != 468 || g.IntervalMicros != 234 {
		t.Fatalf("intervals %d, %d", f.IntervalMicros, g.IntervalMicros)
	}
	if f.StepsPerFrame != g.StepsPerFrame || f.FlashSteps() != g.FlashSteps() {
		t.Fatal("WithRPM changed the frame geometry")
	}
	if _, err := g.WithRPM(0); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestNewInvalid(t *testing.T) {
	c := config.Default()
	c.TargetRPM = 0
	if _, err := New(&c); !errors.Is(err, config.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}
