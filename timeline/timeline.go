// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package timeline draws one rotation of a zoetrope: the frames laid out
// along the microstep axis and the part of each frame where the strobe is
// lit.
package timeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/GermanBionicSystems/zoetrope/geometry"
)

// Colors used by Render and Strip.
var (
	Background = color.NRGBA{0xFF, 0xFF, 0xFF, 255}
	FrameEven  = color.NRGBA{0xC8, 0xC8, 0xC8, 255}
	FrameOdd   = color.NRGBA{0xA0, 0xA0, 0xA0, 255}
	Flash      = color.NRGBA{0xFF, 0xC8, 0x00, 255}
	Drift      = color.NRGBA{0xE0, 0x30, 0x30, 255}
	Ink        = color.NRGBA{0x10, 0x10, 0x10, 255}
)

// Opts are the rendering options.
type Opts struct {
	Width  int
	Height int
	// FontSize in points. Labels are not drawn when 0.
	FontSize float64

	_ struct{}
}

// DefaultOpts is used when Render is passed nil.
var DefaultOpts = Opts{Width: 1200, Height: 160, FontSize: 12}

const margin = 10.0

// Render draws the rotation described by g.
func Render(g *geometry.Geometry, opts *Opts) (image.Image, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Width < 2*margin+1 || opts.Height < 2*margin+1 {
		return nil, fmt.Errorf("timeline: %dx%d is too small", opts.Width, opts.Height)
	}
	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(Background)
	dc.Clear()

	var face font.Face
	top := margin
	if opts.FontSize > 0 {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("timeline: %w", err)
		}
		face = truetype.NewFace(f, &truetype.Options{Size: opts.FontSize})
		dc.SetFontFace(face)
		_, th := dc.MeasureString(g.String())
		dc.SetColor(Ink)
		dc.DrawString(g.String(), margin, margin+th)
		top += th + margin
	}

	w := float64(opts.Width) - 2*margin
	h := float64(opts.Height) - margin - top
	scale := w / float64(g.TotalMicrosteps)
	x := func(step uint32) float64 { return margin + float64(step)*scale }

	for _, win := range g.Windows() {
		c := FrameEven
		if win.Frame%2 == 1 {
			c = FrameOdd
		}
		dc.SetColor(c)
		dc.DrawRectangle(x(win.Start), top, x(win.End)-x(win.Start), h)
		dc.Fill()
		if win.FlashEnd > win.Start {
			dc.SetColor(Flash)
			dc.DrawRectangle(x(win.Start), top, x(win.FlashEnd)-x(win.Start), h/2)
			dc.Fill()
		}
		if face != nil {
			label := fmt.Sprint(win.Frame)
			if tw, _ := dc.MeasureString(label); tw < x(win.End)-x(win.Start) {
				dc.SetColor(Ink)
				dc.DrawStringAnchored(label, (x(win.Start)+x(win.End))/2, top+h*3/4, 0.5, 0.5)
			}
		}
	}
	if g.Drift > 0 {
		start := g.TotalMicrosteps - g.Drift
		dc.SetColor(Drift)
		dc.DrawRectangle(x(start), top+h/2, x(g.TotalMicrosteps)-x(start), h/2)
		dc.Fill()
	}
	return dc.Image(), nil
}

// WritePNG renders g and encodes it as PNG.
func WritePNG(w io.Writer, g *geometry.Geometry, opts *Opts) error {
	img, err := Render(g, opts)
	if err != nil {
		return err
	}
	return gg.NewContextForImage(img).EncodePNG(w)
}

// SavePNG renders g to a PNG file.
func SavePNG(path string, g *geometry.Geometry, opts *Opts) error {
	img, err := Render(g, opts)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}

// Strip returns a one pixel high image of the rotation, width pixels wide,
// for line displays. A pixel is Flash when the strobe is lit at the
// microstep it samples, otherwise the frame color.
func Strip(g *geometry.Geometry, width int) (*image.NRGBA, error) {
	if width <= 0 {
		return nil, errors.New("timeline: width must be > 0")
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, 1))
	wins := g.Windows()
	f := 0
	for px := range width {
		step := uint32(uint64(px) * uint64(g.TotalMicrosteps) / uint64(width))
		for step >= wins[f].End {
			f++
		}
		c := FrameEven
		switch {
		case step < wins[f].FlashEnd:
			c = Flash
		case wins[f].Frame%2 == 1:
			c = FrameOdd
		}
		img.SetNRGBA(px, 0, c)
	}
	return img, nil
}
