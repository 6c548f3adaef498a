// gain_automation.go - Scheduled gain event queue for the block path

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"sync"
)

// GainEvent is a future discrete gate transition, keyed by absolute device
// frame number.
type GainEvent struct {
	Frame int64
	Level float32
}

// GainAutomation is the device-side event queue of the block-scheduled
// path: the scheduler appends future gate transitions, the render goroutine
// consumes them one frame at a time via LevelAt. Events are strictly
// monotonic in time and are retired once their frame has passed; a
// frequency change cancels everything still pending before re-scheduling,
// so no stale transition from the old frequency can ever fire.
type GainAutomation struct {
	mutex  sync.Mutex
	events []GainEvent // Sorted by Frame, pending only
	level  float32     // Last applied level
}

func NewGainAutomation() *GainAutomation {
	return &GainAutomation{
		events: make([]GainEvent, 0, 256),
	}
}

// ScheduleAt appends a transition. Events must arrive in non-decreasing
// frame order; the index-driven refill guarantees that, so violations are
// programming errors and rejected.
func (ga *GainAutomation) ScheduleAt(frame int64, level float32) error {
	ga.mutex.Lock()
	defer ga.mutex.Unlock()

	if n := len(ga.events); n > 0 && frame < ga.events[n-1].Frame {
		return fmt.Errorf("gain event at frame %d precedes pending event at frame %d",
			frame, ga.events[n-1].Frame)
	}
	ga.events = append(ga.events, GainEvent{Frame: frame, Level: level})
	return nil
}

// CancelAfter drops every event that has not yet fired at the given frame.
func (ga *GainAutomation) CancelAfter(frame int64) {
	ga.mutex.Lock()
	defer ga.mutex.Unlock()

	kept := ga.events[:0]
	for _, ev := range ga.events {
		if ev.Frame <= frame {
			kept = append(kept, ev)
		}
	}
	ga.events = kept
}

// ForceLevel applies a level immediately, bypassing the queue. Used to
// close the gate at the instant of a frequency change.
func (ga *GainAutomation) ForceLevel(level float32) {
	ga.mutex.Lock()
	defer ga.mutex.Unlock()
	ga.level = level
}

// LevelAt retires every event due at or before the given frame and returns
// the resulting gate level. Called once per output frame by the render
// goroutine.
func (ga *GainAutomation) LevelAt(frame int64) float32 {
	ga.mutex.Lock()
	defer ga.mutex.Unlock()

	retired := 0
	for _, ev := range ga.events {
		if ev.Frame > frame {
			break
		}
		ga.level = ev.Level
		retired++
	}
	if retired > 0 {
		// Shift in place so the backing array keeps its capacity; the
		// render path must not grow garbage.
		n := copy(ga.events, ga.events[retired:])
		ga.events = ga.events[:n]
	}
	return ga.level
}

// Pending returns the number of not-yet-fired events.
func (ga *GainAutomation) Pending() int {
	ga.mutex.Lock()
	defer ga.mutex.Unlock()
	return len(ga.events)
}

// LastScheduledFrame returns the frame of the most recent pending event,
// or -1 when the queue is empty.
func (ga *GainAutomation) LastScheduledFrame() int64 {
	ga.mutex.Lock()
	defer ga.mutex.Unlock()
	if len(ga.events) == 0 {
		return -1
	}
	return ga.events[len(ga.events)-1].Frame
}
