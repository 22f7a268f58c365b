// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package strobeview

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/zoetrope/config"
	"github.com/GermanBionicSystems/zoetrope/stepper"
)

func TestNew(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error")
	}
	if _, err := New(&Opts{X: 0}); err == nil {
		t.Fatal("expected error")
	}
	var buf bytes.Buffer
	d, err := New(&Opts{X: 4, W: &buf})
	if err != nil {
		t.Fatal(err)
	}
	if s := d.String(); s != "StrobeView" {
		t.Fatal(s)
	}
	if b := d.Bounds(); b != image.Rect(0, 0, 4, 1) {
		t.Fatal(b)
	}
	if d.ColorModel() != color.NRGBAModel {
		t.Fatal("unexpected color model")
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	d, err := New(&Opts{X: 2, W: &buf})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Write([]byte{1, 2}); err == nil {
		t.Fatal("expected error on a partial pixel")
	}
	n, err := d.Write([]byte{0xFF, 0, 0, 0, 0, 0xFF})
	if err != nil || n != 6 {
		t.Fatal(n, err)
	}
	if got := d.At(0); got != (color.NRGBA{0xFF, 0, 0, 255}) {
		t.Fatal(got)
	}
	s := buf.String()
	if !strings.HasPrefix(s, "\r\033[0m") || !strings.HasSuffix(s, "\033[0m ") {
		t.Fatalf("%q", s)
	}
	if d.Refreshes() != 1 {
		t.Fatal(d.Refreshes())
	}
	buf.Reset()
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\n\033[0m" {
		t.Fatalf("%q", buf.String())
	}
}

func TestDraw(t *testing.T) {
	var buf bytes.Buffer
	d, err := New(&Opts{X: 4, W: &buf})
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, 8, 3))
	for x := 0; x < 8; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{uint8(x), 0, 0, 255})
	}
	// Partial update of cells 2 and 3 from source columns 5 and 6.
	if err := d.Draw(image.Rect(2, 0, 4, 1), img, image.Point{X: 5}); err != nil {
		t.Fatal(err)
	}
	if d.At(1).R != 0 || d.At(2).R != 5 || d.At(3).R != 6 {
		t.Fatal(d.At(1), d.At(2), d.At(3))
	}
	if err := d.Draw(image.Rect(10, 0, 12, 1), img, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if d.Refreshes() != 1 {
		t.Fatal("drawing outside the bounds should not refresh")
	}
}

func TestPin(t *testing.T) {
	var buf bytes.Buffer
	d, err := New(&Opts{X: 2, W: &buf})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Pin(&PinOpts{X: 2}); err == nil {
		t.Fatal("expected error")
	}
	red := color.NRGBA{0xFF, 0, 0, 255}
	p, err := d.Pin(&PinOpts{Name: "LED", Number: 13, X: 1, On: red, Redraw: true})
	if err != nil {
		t.Fatal(err)
	}
	if s := p.String(); s != "LED(13)" {
		t.Fatal(s)
	}
	if p.Name() != "LED" || p.Number() != 13 || p.Function() != "Out/Low" {
		t.Fatal(p.Name(), p.Number(), p.Function())
	}
	if err := p.PWM(gpio.DutyHalf, 0); err == nil {
		t.Fatal("expected error")
	}
	// Writing the same level does not redraw.
	if err := p.Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if d.Refreshes() != 0 {
		t.Fatal(d.Refreshes())
	}
	if err := p.Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if d.Refreshes() != 1 || d.At(1) != red || p.Read() != gpio.High {
		t.Fatal(d.Refreshes(), d.At(1), p.Read())
	}
	if err := p.Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if d.Refreshes() != 1 || p.Writes() != 3 {
		t.Fatal(d.Refreshes(), p.Writes())
	}
	if err := p.Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if d.At(1) != Off {
		t.Fatal(d.At(1))
	}
}

func TestBenchCard(t *testing.T) {
	c := config.Default()
	var buf bytes.Buffer
	b, err := NewBench(&c, &buf)
	if err != nil {
		t.Fatal(err)
	}
	wantCells := 3
	if c.Pins.Enable != "" {
		wantCells = 4
	}
	if b.Bounds().Dx() != wantCells {
		t.Fatalf("%d cells", b.Bounds().Dx())
	}
	drv, err := stepper.New(&c, b.Resolve)
	if err != nil {
		t.Fatal(err)
	}
	if err := drv.Enable(); err != nil {
		t.Fatal(err)
	}
	if err := drv.Step(stepper.Forward); err != nil {
		t.Fatal(err)
	}
	step, err := b.Resolve(c.Pins.Step)
	if err != nil {
		t.Fatal(err)
	}
	if step.(*Pin).Writes() < 2 {
		t.Fatal("step was not pulsed")
	}
	// Motor pins never redraw.
	if b.Refreshes() != 0 {
		t.Fatal(b.Refreshes())
	}
	if err := b.LED().Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if b.Refreshes() != 1 || b.At(0) != strobeOn {
		t.Fatal(b.Refreshes(), b.At(0))
	}
	if _, err := b.Resolve("nope"); err == nil {
		t.Fatal("expected error")
	}
}

func TestBenchCoil(t *testing.T) {
	c := config.Default()
	c.Backend = config.BackendCoil
	c.Microstepping = 2
	b, err := NewBench(&c, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if b.Bounds().Dx() != 5 {
		t.Fatalf("%d cells", b.Bounds().Dx())
	}
	drv, err := stepper.New(&c, b.Resolve)
	if err != nil {
		t.Fatal(err)
	}
	if err := drv.Enable(); err != nil {
		t.Fatal(err)
	}
	lit := 0
	for x := 1; x < 5; x++ {
		if b.At(x) == coilOn {
			lit++
		}
	}
	if lit == 0 {
		t.Fatal("no coil energized")
	}
}

func TestBenchErrors(t *testing.T) {
	c := config.Default()
	c.Pins.Strobe = ""
	if _, err := NewBench(&c, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error without a strobe pin")
	}
	c = config.Default()
	c.Pins.Dir = c.Pins.Step
	if _, err := NewBench(&c, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error on a shared pin")
	}
}
