// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package strobeview emulates the zoetrope outputs on a terminal using ANSI
// color codes.
//
// Dev is a one line display.Drawer. Pins returned by Dev.Pin implement
// gpio.PinOut and light one cell of the line each, so the strobe and the
// motor pins can be watched without any hardware attached.
package strobeview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	// X is the number of cells.
	X int
	// W defaults to a colorable stdout.
	W       io.Writer
	Palette *ansi256.Palette

	_ struct{}
}

// Dev is a one line terminal display.
type Dev struct {
	mu      sync.Mutex
	w       io.Writer
	l       int
	palette ansi256.Palette

	pixels  []byte
	buf     bytes.Buffer
	refresh uint64
}

// New returns a Dev that displays at the console.
func New(opts *Opts) (*Dev, error) {
	if opts == nil || opts.X <= 0 {
		return nil, errors.New("strobeview: X must be > 0")
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Dev{
		w:       w,
		l:       opts.X,
		palette: *p,
		pixels:  make([]byte, 3*opts.X),
	}, nil
}

func (d *Dev) String() string {
	return "StrobeView"
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes and ends the line.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Write accepts a stream of raw RGB pixels and writes it to the console.
func (d *Dev) Write(pixels []byte) (int, error) {
	if len(pixels)%3 != 0 {
		return 0, errors.New("strobeview: invalid RGB stream length")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.pixels, pixels)
	return d.flush()
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Point{X: d.l, Y: 1}}
}

// Draw implements display.Drawer.
//
// Only the first line of src is used.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.Bounds())
	if r.Empty() {
		return nil
	}
	srcR := src.Bounds()
	srcR.Min = srcR.Min.Add(sp)
	if dX := r.Dx(); dX < srcR.Dx() {
		srcR.Max.X = srcR.Min.X + dX
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for sX := srcR.Min.X; sX < srcR.Max.X; sX++ {
		x := r.Min.X + sX - srcR.Min.X
		r16, g16, b16, _ := src.At(sX, srcR.Min.Y).RGBA()
		d.set(x, color.NRGBA{byte(r16 >> 8), byte(g16 >> 8), byte(b16 >> 8), 255})
	}
	_, err := d.flush()
	return err
}

// Refreshes returns the number of lines written to the terminal.
func (d *Dev) Refreshes() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.refresh
}

// At returns the color of cell x.
func (d *Dev) At(x int) color.NRGBA {
	d.mu.Lock()
	defer d.mu.Unlock()
	return color.NRGBA{d.pixels[3*x], d.pixels[3*x+1], d.pixels[3*x+2], 255}
}

func (d *Dev) set(x int, c color.NRGBA) {
	d.pixels[3*x] = c.R
	d.pixels[3*x+1] = c.G
	d.pixels[3*x+2] = c.B
}

// flush redraws the line in place. d.mu must be held.
func (d *Dev) flush() (int, error) {
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for i := 0; i < d.l; i++ {
		c := color.NRGBA{d.pixels[3*i], d.pixels[3*i+1], d.pixels[3*i+2], 255}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	_, _ = d.buf.WriteString("\033[0m ")
	d.refresh++
	_, err := d.buf.WriteTo(d.w)
	return len(d.pixels), err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
