// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tracker

import (
	"testing"

	"github.com/GermanBionicSystems/zoetrope/config"
	"github.com/GermanBionicSystems/zoetrope/geometry"
)

func newGeometry(t *testing.T, fullSteps, microstepping, frames uint32) *geometry.Geometry {
	t.Helper()
	c := config.Default()
	c.FullStepsPerRotation = fullSteps
	c.Microstepping = microstepping
	c.FrameCount = frames
	g, err := geometry.New(&c)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestAdvancePosition(t *testing.T) {
	g := newGeometry(t, 200, 2, 15)
	tr := New(g)
	for n := uint32(1); n <= 3*g.TotalMicrosteps+17; n++ {
		pos, _ := tr.Advance()
		if want := n % g.TotalMicrosteps; pos != want || tr.Position() != want {
			t.Fatalf("after %d advances position = %d, want %d", n, pos, want)
		}
	}
}

func TestFrameMonotonicAndWraps(t *testing.T) {
	for _, test := range []struct {
		name                        string
		fullSteps, microsteps, fcnt uint32
	}{
		{"dividing", 200, 2, 16},
		{"drift", 200, 2, 15},
		{"example", 200, 16, 15},
		{"one frame", 200, 1, 1},
		{"frame per step", 200, 1, 200},
	} {
		t.Run(test.name, func(t *testing.T) {
			g := newGeometry(t, test.fullSteps, test.microsteps, test.fcnt)
			tr := New(g)
			prev := tr.Frame()
			changes := 0
			for range 2 * g.TotalMicrosteps {
				pos, changed := tr.Advance()
				f := tr.Frame()
				if f >= g.FrameCount {
					t.Fatalf("frame %d out of range at position %d", f, pos)
				}
				if pos == 0 {
					if f != 0 {
						t.Fatalf("frame %d at position 0", f)
					}
				} else if f < prev {
					t.Fatalf("frame went from %d to %d at position %d", prev, f, pos)
				}
				if changed != (f != prev || pos == 0) {
					t.Fatalf("changed = %t going from frame %d to %d", changed, prev, f)
				}
				if changed {
					changes++
					if tr.StepsInFrame() != 0 {
						t.Fatalf("StepsInFrame() = %d on frame change", tr.StepsInFrame())
					}
					if pos != g.FrameStart(f) {
						t.Fatalf("frame %d began at %d, FrameStart = %d", f, pos, g.FrameStart(f))
					}
				}
				if want := pos - g.FrameStart(f); tr.StepsInFrame() != want {
					t.Fatalf("StepsInFrame() = %d at position %d, want %d", tr.StepsInFrame(), pos, want)
				}
				prev = f
			}
			if want := 2 * int(g.FrameCount); changes != want {
				t.Fatalf("%d frame changes over two rotations, want %d", changes, want)
			}
		})
	}
}

func TestDriftAbsorbedByLastFrame(t *testing.T) {
	g := newGeometry(t, 200, 2, 15)
	tr := New(g)
	steps := map[uint32]uint32{}
	for range g.TotalMicrosteps {
		tr.Advance()
		steps[tr.Frame()]++
	}
	for f := uint32(0); f < 14; f++ {
		if steps[f] != 26 {
			t.Errorf("frame %d lasted %d steps, want 26", f, steps[f])
		}
	}
	if steps[14] != 36 {
		t.Errorf("last frame lasted %d steps, want 36", steps[14])
	}
}

func TestWrapReturnsToStart(t *testing.T) {
	g := newGeometry(t, 200, 16, 15)
	tr := New(g)
	for range 100 {
		tr.Advance()
	}
	pos, frame := tr.Position(), tr.Frame()
	for range g.TotalMicrosteps {
		tr.Advance()
	}
	if tr.Position() != pos || tr.Frame() != frame {
		t.Fatalf("after one rotation got %s, want position %d frame %d", tr, pos, frame)
	}
}

func TestReset(t *testing.T) {
	g := newGeometry(t, 200, 2, 15)
	tr := New(g)
	for range 57 {
		tr.Advance()
	}
	tr.Reset()
	if tr.Position() != 0 || tr.Frame() != 0 || tr.StepsInFrame() != 0 {
		t.Fatalf("Reset() left %s", tr)
	}
}
