// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package platform

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrTimerRunning is returned by Start on a timer already started.
	ErrTimerRunning = errors.New("platform: timer already running")
	// ErrTimerStopped is returned by Reset and Stop on a timer not running.
	ErrTimerStopped = errors.New("platform: timer not running")
	// ErrInvalidInterval is returned for a non-positive interval.
	ErrInvalidInterval = errors.New("platform: interval must be positive")
)

// Timer invokes a callback periodically.
//
// The callback of one timer never runs concurrently with itself. Reset and
// Stop must not be called from the callback.
type Timer interface {
	// Start arms the timer to call fn every interval.
	Start(interval time.Duration, fn func()) error
	// Reset changes the interval of a running timer.
	Reset(interval time.Duration) error
	// Stop disarms the timer and waits for a running callback to return.
	Stop() error
}

// HostTimer is a Timer driven by a time.Ticker on a dedicated goroutine.
//
// Ticks that fire while the callback is still running are dropped by the
// ticker, so an overrunning callback slows the loop down instead of
// queueing.
type HostTimer struct {
	mu    sync.Mutex
	reset chan time.Duration
	stop  chan struct{}
	done  chan struct{}
}

// Start implements Timer.
func (t *HostTimer) Start(interval time.Duration, fn func()) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return ErrTimerRunning
	}
	t.reset = make(chan time.Duration)
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(interval, fn, t.reset, t.stop, t.done)
	return nil
}

func (t *HostTimer) run(interval time.Duration, fn func(), reset <-chan time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-stop:
			return
		case d := <-reset:
			tk.Reset(d)
		case <-tk.C:
			fn()
		}
	}
}

// Reset implements Timer.
func (t *HostTimer) Reset(interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return ErrTimerStopped
	}
	select {
	case t.reset <- interval:
		return nil
	case <-t.done:
		return ErrTimerStopped
	}
}

// Stop implements Timer.
func (t *HostTimer) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return ErrTimerStopped
	}
	close(t.stop)
	<-t.done
	t.stop, t.reset, t.done = nil, nil, nil
	return nil
}

var _ Timer = &HostTimer{}
