// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package scheduler runs the step/flash loop of a zoetrope.
//
// A periodic timer calls Loop.Tick once per step interval. Each tick advances
// the position tracker, drives the strobe LED for the resulting position and
// pulses the motor one microstep. Nothing in Tick waits or sleeps; diagnostic
// output is handed to a background goroutine and dropped when it falls
// behind.
//
// Tick must finish well within one step interval. A tick running longer is
// counted as slow but nothing is done to catch up: the strobe simply lands
// late.
package scheduler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/zoetrope/geometry"
	"github.com/GermanBionicSystems/zoetrope/platform"
	"github.com/GermanBionicSystems/zoetrope/stepper"
	"github.com/GermanBionicSystems/zoetrope/strobe"
	"github.com/GermanBionicSystems/zoetrope/tracker"
)

const (
	// statusMillis is how often Status is refreshed.
	statusMillis = 100
	// debugQueue is the number of snapshots buffered for the debug writer.
	debugQueue = 16
)

var (
	// ErrRunning is returned by Start on a loop already started.
	ErrRunning = errors.New("scheduler: already running")
	// ErrNotRunning is returned by Halt on a loop not started.
	ErrNotRunning = errors.New("scheduler: not running")
)

// Observer receives loop events. Its methods are called from Tick and must
// not block.
type Observer interface {
	Stepped(frameChanged, ledChanged bool)
	Overrun()
	Slow()
	IOError()
	Dropped()
}

// Opts are the loop options.
type Opts struct {
	// Direction the spindle turns.
	Direction stepper.Direction
	// Clock provides the elapsed milliseconds. A HostClock is used when nil.
	Clock platform.Clock
	// Debug receives one Snapshot line every DebugIntervalMillis when set.
	Debug               io.Writer
	DebugIntervalMillis uint32
	// Observer is optional.
	Observer Observer
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	_ struct{}
}

// Loop is the step/flash loop. Tick is its only hot path.
type Loop struct {
	geom  *geometry.Geometry
	flash uint32
	tr    *tracker.Tracker
	led   *strobe.LED
	drv   stepper.Driver
	dir   stepper.Direction
	clock platform.Clock
	obs   Observer
	log   *slog.Logger

	debug      io.Writer
	debugEvery uint32

	// Touched by Tick only.
	ticks      uint64
	slowTicks  uint64
	ioErrors   uint64
	dropped    uint64
	lastDebug  uint32
	lastStatus uint32

	busy      atomic.Bool
	overruns  atomic.Uint64
	interval  atomic.Int64 // time.Duration
	status    atomic.Pointer[Snapshot]
	snapshots chan Snapshot

	mu      sync.Mutex
	timer   platform.Timer
	workers sync.WaitGroup
}

// New returns a Loop at position 0. It does not touch the hardware.
func New(g *geometry.Geometry, drv stepper.Driver, led *strobe.LED, opts *Opts) (*Loop, error) {
	if g == nil || drv == nil || led == nil {
		return nil, errors.New("scheduler: geometry, driver and LED are required")
	}
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.Clock == nil {
		o.Clock = platform.NewHostClock()
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Debug != nil && o.DebugIntervalMillis == 0 {
		return nil, fmt.Errorf("%w: debug interval must be > 0", geometry.ErrInvalidConfiguration)
	}
	l := &Loop{
		geom:       g,
		flash:      g.EffectiveFlashSteps(),
		tr:         tracker.New(g),
		led:        led,
		drv:        drv,
		dir:        o.Direction,
		clock:      o.Clock,
		obs:        o.Observer,
		log:        o.Logger,
		debug:      o.Debug,
		debugEvery: o.DebugIntervalMillis,
	}
	l.interval.Store(int64(g.Interval()))
	s := l.snapshot(0)
	l.status.Store(&s)
	return l, nil
}

// Tick runs one step of the loop: advance the position, set the strobe,
// pulse the motor and, when due, emit a snapshot.
//
// A Tick called while another is still running returns immediately and is
// counted as an overrun.
func (l *Loop) Tick() {
	if !l.busy.CompareAndSwap(false, true) {
		l.overruns.Add(1)
		l.obs.Overrun()
		return
	}
	defer l.busy.Store(false)
	start := time.Now()

	_, frameChanged := l.tr.Advance()
	now := l.clock.Millis()
	ledChanged, err := l.led.Set(strobe.Desired(l.tr.StepsInFrame(), l.flash), now)
	if err != nil {
		l.ioErrors++
		l.obs.IOError()
	}
	if err := l.drv.Step(l.dir); err != nil {
		l.ioErrors++
		l.obs.IOError()
	}
	l.ticks++
	l.obs.Stepped(frameChanged, ledChanged)

	if now-l.lastStatus >= statusMillis {
		l.lastStatus = now
		s := l.snapshot(now)
		l.status.Store(&s)
	}
	if l.snapshots != nil && now-l.lastDebug >= l.debugEvery {
		l.lastDebug = now
		select {
		case l.snapshots <- l.snapshot(now):
		default:
			l.dropped++
			l.obs.Dropped()
		}
	}

	if time.Since(start) > time.Duration(l.interval.Load()) {
		l.slowTicks++
		l.obs.Slow()
	}
}

func (l *Loop) snapshot(now uint32) Snapshot {
	return Snapshot{
		Millis:         now,
		Position:       l.tr.Position(),
		Frame:          l.tr.Frame(),
		StepsInFrame:   l.tr.StepsInFrame(),
		StepsToFlash:   l.geom.FlashSteps(),
		StepsPerFrame:  l.geom.StepsPerFrame,
		Drift:          l.geom.Drift,
		IntervalMicros: uint32(time.Duration(l.interval.Load()) / time.Microsecond),
		LED:            bool(l.led.Level()),
		Ticks:          l.ticks,
		Overruns:       l.overruns.Load(),
		SlowTicks:      l.slowTicks,
		IOErrors:       l.ioErrors,
		Dropped:        l.dropped,
	}
}

// Status returns the latest snapshot. It is refreshed by Tick every 100ms
// and is safe to call from any goroutine.
func (l *Loop) Status() Snapshot {
	return *l.status.Load()
}

// Interval returns the current step interval.
func (l *Loop) Interval() time.Duration {
	return time.Duration(l.interval.Load())
}

// Start lights the strobe for position 0, energizes the motor and arms t to
// call Tick every step interval.
func (l *Loop) Start(t platform.Timer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timer != nil {
		return ErrRunning
	}
	if _, err := l.led.Set(strobe.Desired(l.tr.StepsInFrame(), l.flash), l.clock.Millis()); err != nil {
		return fmt.Errorf("scheduler: strobe: %w", err)
	}
	if err := l.drv.Enable(); err != nil {
		return fmt.Errorf("scheduler: enable %s: %w", l.drv, err)
	}
	if l.debug != nil {
		l.snapshots = make(chan Snapshot, debugQueue)
		l.workers.Add(1)
		go l.writeDebug(l.snapshots)
	}
	if err := t.Start(l.Interval(), l.Tick); err != nil {
		l.stopDebug()
		return errors.Join(fmt.Errorf("scheduler: %w", err), Idle(l.drv, l.led))
	}
	l.timer = t
	l.log.Info("zoetrope started", slog.String("geometry", l.geom.String()), slog.String("driver", l.drv.String()))
	return nil
}

// Halt disarms the timer, releases the motor and turns the strobe off.
func (l *Loop) Halt() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timer == nil {
		return ErrNotRunning
	}
	err := l.timer.Stop()
	l.timer = nil
	l.stopDebug()
	s := l.snapshot(l.clock.Millis())
	l.status.Store(&s)
	l.log.Info("zoetrope halted", slog.String("status", s.String()))
	return errors.Join(err, Idle(l.drv, l.led))
}

// SetRPM changes the rotation speed. Frame boundaries and the strobe window
// are unchanged; only the step interval is recomputed.
func (l *Loop) SetRPM(rpm float64) error {
	g, err := l.geom.WithRPM(rpm)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timer != nil {
		if err := l.timer.Reset(g.Interval()); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
	}
	l.interval.Store(int64(g.Interval()))
	l.log.Info("speed changed", slog.Float64("rpm", rpm), slog.Duration("interval", g.Interval()))
	return nil
}

func (l *Loop) stopDebug() {
	if l.snapshots == nil {
		return
	}
	close(l.snapshots)
	l.workers.Wait()
	l.snapshots = nil
}

func (l *Loop) writeDebug(c <-chan Snapshot) {
	defer l.workers.Done()
	for s := range c {
		if _, err := io.WriteString(l.debug, s.String()+"\n"); err != nil {
			l.log.Warn("debug write failed", slog.Any("error", err))
		}
	}
}

// Idle puts the hardware in its safe state: motor released, strobe off. Nil
// arguments are skipped. It is used when the loop cannot be started.
func Idle(drv stepper.Driver, led *strobe.LED) error {
	var err error
	if drv != nil {
		err = drv.Disable()
	}
	if led != nil {
		err = errors.Join(err, led.Off())
	}
	return err
}

// IdlePin is Idle for a strobe pin that was never wrapped in a strobe.LED.
func IdlePin(drv stepper.Driver, led gpio.PinOut) error {
	var err error
	if drv != nil {
		err = drv.Disable()
	}
	if led != nil {
		err = errors.Join(err, led.Out(gpio.Low))
	}
	return err
}

type nopObserver struct{}

func (nopObserver) Stepped(bool, bool) {}
func (nopObserver) Overrun()           {}
func (nopObserver) Slow()              {}
func (nopObserver) IOError()           {}
func (nopObserver) Dropped()           {}
