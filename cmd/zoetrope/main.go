// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// zoetrope spins a zoetrope spindle and strobes its LED in step with the
// frames.
//
// Use "zoetrope plan" to check a configuration without hardware and
// "zoetrope run --dry-run" to watch the pins on the terminal.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GermanBionicSystems/zoetrope/config"
)

var (
	flagConfig   string
	flagLogLevel string
	flagRPM      float64
	flagFrames   uint32
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "zoetrope",
		Short: "Zoetrope stepper and strobe synchronizer",
		Long: `zoetrope turns a spindle of printed frames with a stepper motor and flashes
an LED for a short window at the start of every frame, so the frames appear
to stand still and animate.

Configuration is read from a JSON file layered over built-in defaults, then
from flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(flagLogLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "JSON configuration file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Float64Var(&flagRPM, "rpm", 0, "Override target_rpm")
	rootCmd.PersistentFlags().Uint32Var(&flagFrames, "frames", 0, "Override frame_count")

	rootCmd.AddCommand(newRunCmd(), newPlanCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid --log-level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}

// loadConfig reads --config, if any, and applies the flag overrides. The
// result is not validated.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	c := config.Default()
	if flagConfig != "" {
		var err error
		if c, err = config.Read(flagConfig); err != nil {
			return c, err
		}
	}
	if cmd.Flags().Changed("rpm") {
		c.TargetRPM = flagRPM
	}
	if cmd.Flags().Changed("frames") {
		c.FrameCount = flagFrames
	}
	return c, nil
}
