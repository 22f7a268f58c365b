// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/zoetrope/config"
	"github.com/GermanBionicSystems/zoetrope/geometry"
	"github.com/GermanBionicSystems/zoetrope/metrics"
	"github.com/GermanBionicSystems/zoetrope/platform"
	"github.com/GermanBionicSystems/zoetrope/scheduler"
	"github.com/GermanBionicSystems/zoetrope/stepper"
	"github.com/GermanBionicSystems/zoetrope/strobe"
	"github.com/GermanBionicSystems/zoetrope/strobeview"
)

type runOpts struct {
	dryRun bool
	listen string
	out    io.Writer
}

func newRunCmd() *cobra.Command {
	var (
		o         runOpts
		debug     bool
		debugPort string
		reverse   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Spin the spindle and strobe the LED until interrupted",
		Long: `run drives the motor and the strobe LED until SIGINT or SIGTERM.

SIGHUP reloads target_rpm from --config; other settings need a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debug") {
				c.Debug.Enabled = debug
			}
			if cmd.Flags().Changed("debug-port") {
				c.Debug.Port = debugPort
				c.Debug.Enabled = true
			}
			if cmd.Flags().Changed("reverse") {
				c.Reverse = reverse
			}
			o.out = cmd.OutOrStdout()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, &c, &o)
		},
	}
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "Emulate the pins on the terminal instead of driving GPIOs")
	cmd.Flags().StringVar(&o.listen, "listen", "", "Serve /metrics and /status on this address, e.g. :8090")
	cmd.Flags().BoolVar(&debug, "debug", false, "Print a status snapshot every debug.interval_ms")
	cmd.Flags().StringVar(&debugPort, "debug-port", "", "Serial port receiving the debug snapshots, stderr otherwise")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "Turn the spindle the other way")
	return cmd
}

func run(ctx context.Context, c *config.Config, o *runOpts) error {
	resolve := stepper.Resolver(platform.Pin)
	if o.dryRun {
		b, err := strobeview.NewBench(c, terminal(o.out))
		if err != nil {
			return err
		}
		defer b.Halt()
		resolve = b.Resolve
	} else if err := platform.Init(); err != nil {
		return err
	}

	debug, closeDebug, err := openDebug(c)
	if err != nil {
		return err
	}
	defer closeDebug()

	g, err := geometry.New(c)
	if err != nil {
		return holdIdle(ctx, c, resolve, debug, err)
	}
	if g.Drift != 0 {
		slog.Warn("Frames do not divide one rotation",
			slog.Uint64("Drift", uint64(g.Drift)),
			slog.Uint64("LastFrame", uint64(g.FrameLen(g.FrameCount-1))))
	}
	drv, err := stepper.New(c, resolve)
	if err != nil {
		return holdIdle(ctx, c, resolve, debug, err)
	}
	p, err := resolve(c.Pins.Strobe)
	if err != nil {
		return holdIdle(ctx, c, resolve, debug, err)
	}
	led, err := strobe.NewLED(p, &strobe.Opts{SpinupHoldMillis: c.SpinupHoldMillis})
	if err != nil {
		return holdIdle(ctx, c, resolve, debug, err)
	}

	stats := metrics.NewStats()
	stats.SetGeometry(g)
	opts := &scheduler.Opts{Observer: stats, Logger: slog.Default()}
	if c.Reverse {
		opts.Direction = stepper.Reverse
	}
	if debug != nil {
		opts.Debug = debug
		opts.DebugIntervalMillis = c.Debug.IntervalMillis
	}
	loop, err := scheduler.New(g, drv, led, opts)
	if err != nil {
		return errors.Join(err, scheduler.Idle(drv, led))
	}
	if o.listen != "" {
		srv := serveStats(o.listen, stats.SetupMux(loop.Status))
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				slog.Warn("Stats endpoint shutdown", slog.Any("Error", err))
			}
		}()
	}

	if err := loop.Start(&platform.HostTimer{}); err != nil {
		return err
	}
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return loop.Halt()
		case <-hup:
			reloadRPM(loop)
		}
	}
}

// holdIdle puts whatever outputs it can resolve in their safe state and
// waits for ctx, like a controller refusing to run.
func holdIdle(ctx context.Context, c *config.Config, resolve stepper.Resolver, debug io.Writer, cause error) error {
	slog.Error("Refusing to start, holding outputs idle", slog.Any("Error", cause))
	if debug != nil {
		fmt.Fprintf(debug, "configuration error: %v\n", cause)
	}
	var drv stepper.Driver
	if d, err := stepper.New(c, resolve); err == nil {
		drv = d
	}
	var led gpio.PinOut
	if p, err := resolve(c.Pins.Strobe); err == nil {
		led = p
	}
	if err := scheduler.IdlePin(drv, led); err != nil {
		slog.Error("Could not idle outputs", slog.Any("Error", err))
	}
	<-ctx.Done()
	return cause
}

func openDebug(c *config.Config) (io.Writer, func(), error) {
	if !c.Debug.Enabled {
		return nil, func() {}, nil
	}
	if c.Debug.Port == "" {
		return os.Stderr, func() {}, nil
	}
	p, err := platform.OpenSerial(c.Debug.Port, c.Debug.Baud)
	if err != nil {
		return nil, nil, err
	}
	return p, func() {
		if err := p.Close(); err != nil {
			slog.Warn("Could not close debug port", slog.Any("Error", err))
		}
	}, nil
}

func serveStats(addr string, h http.Handler) *http.Server {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("Starting stats endpoint...", slog.String("Port", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not start stats endpoint", slog.Any("Error", err))
		}
	}()
	return srv
}

func reloadRPM(loop *scheduler.Loop) {
	if flagConfig == "" {
		slog.Warn("SIGHUP ignored, no --config to reload")
		return
	}
	c, err := config.Load(flagConfig)
	if err != nil {
		slog.Error("Reload failed", slog.Any("Error", err))
		return
	}
	if err := loop.SetRPM(c.TargetRPM); err != nil {
		slog.Error("Reload failed", slog.Any("Error", err))
	}
}
