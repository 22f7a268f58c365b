// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package metrics exports the zoetrope loop counters to Prometheus and serves
// them over HTTP along with the loop status.
package metrics

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GermanBionicSystems/zoetrope/geometry"
	"github.com/GermanBionicSystems/zoetrope/scheduler"
)

const namespace = "zoetrope"

// Stats holds the collectors on a private registry. It implements
// scheduler.Observer.
type Stats struct {
	Registry *prometheus.Registry

	steps    prometheus.Counter
	frames   prometheus.Counter
	edges    prometheus.Counter
	overruns prometheus.Counter
	slow     prometheus.Counter
	ioErrors prometheus.Counter
	dropped  prometheus.Counter
	geometry *prometheus.GaugeVec
}

// NewStats returns Stats with every collector registered.
func NewStats() *Stats {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}
	s := &Stats{
		Registry: prometheus.NewRegistry(),
		steps:    counter("steps_total", "Microsteps issued to the motor."),
		frames:   counter("frames_total", "Frame boundaries crossed."),
		edges:    counter("strobe_edges_total", "Strobe LED level changes."),
		overruns: counter("overruns_total", "Ticks rejected because the previous one was still running."),
		slow:     counter("slow_ticks_total", "Ticks that took longer than the step interval."),
		ioErrors: counter("io_errors_total", "Failed pin writes."),
		dropped:  counter("dropped_snapshots_total", "Debug snapshots dropped because the writer fell behind."),
		geometry: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geometry",
			Help:      "Derived rotation geometry.",
		}, []string{"quantity"}),
	}
	s.Registry.MustRegister(s.steps, s.frames, s.edges, s.overruns, s.slow, s.ioErrors, s.dropped, s.geometry)
	return s
}

// SetGeometry publishes the derived values of g.
func (s *Stats) SetGeometry(g *geometry.Geometry) {
	s.geometry.WithLabelValues("total_microsteps").Set(float64(g.TotalMicrosteps))
	s.geometry.WithLabelValues("frames").Set(float64(g.FrameCount))
	s.geometry.WithLabelValues("steps_per_frame").Set(float64(g.StepsPerFrame))
	s.geometry.WithLabelValues("drift").Set(float64(g.Drift))
	s.geometry.WithLabelValues("flash_steps").Set(float64(g.EffectiveFlashSteps()))
	s.geometry.WithLabelValues("interval_us").Set(float64(g.IntervalMicros))
}

// Stepped implements scheduler.Observer.
func (s *Stats) Stepped(frameChanged, ledChanged bool) {
	s.steps.Inc()
	if frameChanged {
		s.frames.Inc()
	}
	if ledChanged {
		s.edges.Inc()
	}
}

// Overrun implements scheduler.Observer.
func (s *Stats) Overrun() { s.overruns.Inc() }

// Slow implements scheduler.Observer.
func (s *Stats) Slow() { s.slow.Inc() }

// IOError implements scheduler.Observer.
func (s *Stats) IOError() { s.ioErrors.Inc() }

// Dropped implements scheduler.Observer.
func (s *Stats) Dropped() { s.dropped.Inc() }

// Handler returns the Prometheus exposition handler for the registry.
func (s *Stats) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})
}

// StatusFunc returns the current loop status.
type StatusFunc func() scheduler.Snapshot

// SetupMux routes:
// - /metrics for Prometheus
// - /status with the latest loop snapshot as JSON
func (s *Stats) SetupMux(status StatusFunc) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", s.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status()); err != nil {
			slog.Error("Could not encode status", slog.Any("Error", err))
		}
	}).Methods(http.MethodGet)
	return r
}

var _ scheduler.Observer = &Stats{}
