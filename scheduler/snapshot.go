// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scheduler

import "fmt"

// Snapshot is a diagnostic view of the loop, taken inside Tick.
type Snapshot struct {
	Millis         uint32 `json:"ms"`
	Position       uint32 `json:"position"`
	Frame          uint32 `json:"frame"`
	StepsInFrame   uint32 `json:"steps_in_frame"`
	StepsToFlash   uint32 `json:"steps_to_flash"`
	StepsPerFrame  uint32 `json:"steps_per_frame"`
	Drift          uint32 `json:"drift"`
	IntervalMicros uint32 `json:"interval_us"`
	LED            bool   `json:"led"`

	Ticks     uint64 `json:"ticks"`
	Overruns  uint64 `json:"overruns"`
	SlowTicks uint64 `json:"slow_ticks"`
	IOErrors  uint64 `json:"io_errors"`
	Dropped   uint64 `json:"dropped_snapshots"`
}

func (s Snapshot) String() string {
	led := "off"
	if s.LED {
		led = "on"
	}
	return fmt.Sprintf("[%dms] position=%d frame=%d step=%d StepsToFlash=%d StepsPerFrame=%d drift=%d interval=%dus led=%s ticks=%d overruns=%d slow=%d io_errors=%d dropped=%d",
		s.Millis, s.Position, s.Frame, s.StepsInFrame, s.StepsToFlash, s.StepsPerFrame, s.Drift, s.IntervalMicros, led,
		s.Ticks, s.Overruns, s.SlowTicks, s.IOErrors, s.Dropped)
}
