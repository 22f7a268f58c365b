// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"

	"github.com/GermanBionicSystems/zoetrope/geometry"
	"github.com/GermanBionicSystems/zoetrope/strobeview"
	"github.com/GermanBionicSystems/zoetrope/timeline"
)

func newPlanCmd() *cobra.Command {
	var (
		png   string
		width int
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the rotation geometry and the strobe window of every frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			g, err := geometry.New(&c)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := printPlan(out, g); err != nil {
				return err
			}
			if width > 0 {
				if err := drawStrip(terminal(out), g, width); err != nil {
					return err
				}
			}
			if png != "" {
				if err := timeline.SavePNG(png, g, nil); err != nil {
					return err
				}
				slog.Info("Timeline written", slog.String("File", png))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&png, "png", "", "Render the timeline to this PNG file")
	cmd.Flags().IntVar(&width, "width", 75, "Width of the terminal timeline, 0 to disable")
	return cmd
}

func printPlan(w io.Writer, g *geometry.Geometry) error {
	if _, err := fmt.Fprintln(w, g); err != nil {
		return err
	}
	if g.Drift != 0 {
		fmt.Fprintf(w, "warning: %d frames do not divide %d microsteps, the last frame is %d microsteps long\n",
			g.FrameCount, g.TotalMicrosteps, g.FrameLen(g.FrameCount-1))
	}
	if g.AlwaysOn() {
		fmt.Fprintln(w, "warning: the flash is at least one frame long, the strobe never goes dark")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "frame\tstart\tend\tflash end\t")
	for _, win := range g.Windows() {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t\n", win.Frame, win.Start, win.End, win.FlashEnd)
	}
	return tw.Flush()
}

func drawStrip(w io.Writer, g *geometry.Geometry, width int) error {
	img, err := timeline.Strip(g, width)
	if err != nil {
		return err
	}
	d, err := strobeview.New(&strobeview.Opts{X: width, W: w})
	if err != nil {
		return err
	}
	if err := d.Draw(d.Bounds(), img, image.Point{}); err != nil {
		return err
	}
	return d.Halt()
}

// terminal translates the ANSI sequences on consoles that need it.
func terminal(w io.Writer) io.Writer {
	if f, ok := w.(*os.File); ok {
		return colorable.NewColorable(f)
	}
	return w
}
