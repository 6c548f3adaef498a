// scheduled_engine.go - Block-scheduled tone engine (lookahead gain events)

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

const (
	SCHEDULE_LOOKAHEAD_SEC = 0.5 // Forward window of pre-scheduled events
	SCHEDULE_REFILL_MS     = 100 // Refill cadence; safe to skip or coalesce
)

// ScheduledToneEngine is the block/legacy generation path: a continuous
// carrier whose gate transitions are pre-computed into a lookahead window
// and handed to the GainAutomation queue, refilled on a coarse timer.
// Pulse boundaries are always derived as anchor + index*period by
// multiplication, so a skipped or late refill tick only shortens the
// window - it can never shift the pulse grid.
type ScheduledToneEngine struct {
	output AudioOutput
	auto   *GainAutomation

	mutex       sync.RWMutex
	mode        int
	carrierFreq float64
	pulseFreq   float64
	beatFreq    float64
	dutyCycle   float64
	running     bool

	wallStart  time.Time // Shared origin published to visual consumers
	startFrame int64     // Device frame of the current anchor
	nextPulse  int64     // Next unscheduled pulse index

	frame atomic.Int64 // Device clock: frames rendered so far

	// Render-goroutine state, never touched while running
	carrierPhase float64
	rightPhase   float64

	stopCh chan struct{}
	done   chan struct{}
}

func NewScheduledToneEngine(mode, backend int) (*ScheduledToneEngine, error) {
	se := &ScheduledToneEngine{
		auto:        NewGainAutomation(),
		mode:        mode,
		carrierFreq: DEFAULT_CARRIER_FREQ,
		pulseFreq:   DEFAULT_PULSE_FREQ,
		beatFreq:    DEFAULT_BEAT_FREQ,
		dutyCycle:   DEFAULT_DUTY_CYCLE,
	}

	output, err := NewAudioOutput(backend, SAMPLE_RATE, se)
	if err != nil {
		return nil, err
	}
	se.output = output
	return se, nil
}

// ReadSample renders one stereo frame. Called from the output backend's
// render goroutine; parameters are snapshotted under a read lock per frame
// and the gate level comes from the pre-scheduled event queue.
func (se *ScheduledToneEngine) ReadSample() (left, right float32) {
	frame := se.frame.Add(1) - 1

	se.mutex.RLock()
	running := se.running
	mode := se.mode
	carrier := se.carrierFreq
	beat := se.beatFreq
	se.mutex.RUnlock()

	if !running {
		return 0, 0
	}

	const sr = float64(SAMPLE_RATE)

	if mode == MODE_BINAURAL {
		// Continuous tones; the beat is the frequency difference between
		// the ears, not an amplitude envelope.
		l := float32(math.Sin(2*math.Pi*se.carrierPhase)) * TONE_AMPLITUDE
		r := float32(math.Sin(2*math.Pi*se.rightPhase)) * TONE_AMPLITUDE
		se.carrierPhase += carrier / sr
		se.carrierPhase -= math.Floor(se.carrierPhase)
		se.rightPhase += (carrier + beat) / sr
		se.rightPhase -= math.Floor(se.rightPhase)
		return l, r
	}

	level := se.auto.LevelAt(frame)
	s := float32(math.Sin(2*math.Pi*se.carrierPhase)) * level * TONE_AMPLITUDE
	se.carrierPhase += carrier / sr
	se.carrierPhase -= math.Floor(se.carrierPhase)
	return s, s
}

// fillLocked schedules gate transitions for every pulse from the next
// unscheduled index up to the lookahead horizon. Pulse boundaries are
// computed multiplicatively from the anchor; re-invocation only adds
// events beyond the last scheduled index, never duplicates. Callers hold
// the write lock.
func (se *ScheduledToneEngine) fillLocked(nowFrame, horizonFrame int64) {
	if !se.running || se.mode != MODE_ISOCHRONIC || se.pulseFreq <= 0 {
		return
	}

	const sr = float64(SAMPLE_RATE)
	period := 1.0 / se.pulseFreq
	onDuration := period * se.dutyCycle
	anchorSec := float64(se.startFrame) / sr

	for {
		pulseStart := anchorSec + float64(se.nextPulse)*period
		startF := int64(math.Round(pulseStart * sr))
		if startF > horizonFrame {
			return
		}
		endF := int64(math.Round((pulseStart + onDuration) * sr))

		if endF <= nowFrame {
			// Entire pulse already in the past; nothing to emit.
			se.nextPulse++
			continue
		}
		if startF > nowFrame {
			if err := se.auto.ScheduleAt(startF, 1); err != nil {
				return
			}
		} else {
			// The pulse is underway at the anchor instant (pulse 0 right
			// after a re-anchor): open the gate immediately instead of
			// handing the hardware an event in the past.
			se.auto.ForceLevel(1)
		}
		if err := se.auto.ScheduleAt(endF, 0); err != nil {
			return
		}
		se.nextPulse++
	}
}

func (se *ScheduledToneEngine) fill() {
	se.mutex.Lock()
	defer se.mutex.Unlock()
	now := se.frame.Load()
	se.fillLocked(now, now+int64(SCHEDULE_LOOKAHEAD_SEC*SAMPLE_RATE))
}

func (se *ScheduledToneEngine) refillLoop(stopCh, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(SCHEDULE_REFILL_MS * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			se.fill()
		}
	}
}

// Start anchors the pulse grid at "now", performs the initial fill and
// begins the periodic refill. Calling Start on a running engine is a no-op.
func (se *ScheduledToneEngine) Start() error {
	se.mutex.Lock()
	if se.running {
		se.mutex.Unlock()
		return nil
	}
	now := se.frame.Load()
	se.running = true
	se.wallStart = time.Now()
	se.startFrame = now
	se.nextPulse = 0
	se.carrierPhase = 0
	se.rightPhase = 0
	se.auto.CancelAfter(now)
	se.auto.ForceLevel(0)
	se.fillLocked(now, now+int64(SCHEDULE_LOOKAHEAD_SEC*SAMPLE_RATE))
	stopCh := make(chan struct{})
	done := make(chan struct{})
	se.stopCh = stopCh
	se.done = done
	se.mutex.Unlock()

	if err := se.output.Start(); err != nil {
		se.mutex.Lock()
		se.running = false
		se.stopCh = nil
		se.done = nil
		se.mutex.Unlock()
		return err
	}
	go se.refillLoop(stopCh, done)
	return nil
}

// StartOffline anchors the engine and schedules every pulse for the whole
// duration in one pass - the deterministic batch path, no refill timer.
// The caller drains ReadSample itself.
func (se *ScheduledToneEngine) StartOffline(duration float64) error {
	se.mutex.Lock()
	if se.running {
		se.mutex.Unlock()
		return nil
	}
	now := se.frame.Load()
	se.running = true
	se.wallStart = time.Now()
	se.startFrame = now
	se.nextPulse = 0
	se.carrierPhase = 0
	se.rightPhase = 0
	se.auto.CancelAfter(now)
	se.auto.ForceLevel(0)
	se.fillLocked(now, now+int64(duration*SAMPLE_RATE))
	se.mutex.Unlock()

	return se.output.Start()
}

// ScheduleForDuration extends the schedule to cover the given span from
// the current anchor, for offline rendering beyond the lookahead window.
func (se *ScheduledToneEngine) ScheduleForDuration(duration float64) {
	se.mutex.Lock()
	defer se.mutex.Unlock()
	now := se.frame.Load()
	se.fillLocked(now, se.startFrame+int64(duration*SAMPLE_RATE))
}

// Stop halts the refill timer and the output synchronously. Idempotent;
// calling when not running is a no-op.
func (se *ScheduledToneEngine) Stop() {
	se.mutex.Lock()
	if !se.running {
		se.mutex.Unlock()
		return
	}
	se.running = false
	stopCh := se.stopCh
	done := se.done
	se.stopCh = nil
	se.done = nil
	se.mutex.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}
	se.output.Stop()
}

func (se *ScheduledToneEngine) Running() bool {
	se.mutex.RLock()
	defer se.mutex.RUnlock()
	return se.running
}

// SetFrequency cancels every pending gate event, closes the gate, and
// re-anchors the pulse grid at "now" with index 0. The cycle restarts at
// phase 0 rather than gliding - intentional, and kept identical to the
// realtime path's re-anchor message.
func (se *ScheduledToneEngine) SetFrequency(hz float64) {
	se.mutex.Lock()
	defer se.mutex.Unlock()

	se.pulseFreq = hz
	se.beatFreq = hz
	now := se.frame.Load()
	se.auto.CancelAfter(now)
	se.auto.ForceLevel(0)
	se.wallStart = time.Now()
	se.startFrame = now
	se.nextPulse = 0
	se.fillLocked(now, now+int64(SCHEDULE_LOOKAHEAD_SEC*SAMPLE_RATE))
}

func (se *ScheduledToneEngine) SetCarrierFrequency(hz float64) {
	se.mutex.Lock()
	defer se.mutex.Unlock()
	se.carrierFreq = hz
}

func (se *ScheduledToneEngine) SetBeatFrequency(hz float64) {
	se.mutex.Lock()
	defer se.mutex.Unlock()
	se.beatFreq = hz
}

// SetDutyCycle keeps the anchor (duty edits do not restart the cycle) but
// pending gate-off events carry the old on-duration, so the window is
// cancelled and rebuilt from the first pulse still in the future.
func (se *ScheduledToneEngine) SetDutyCycle(fraction float64) {
	se.mutex.Lock()
	defer se.mutex.Unlock()

	se.dutyCycle = fraction
	if !se.running || se.pulseFreq <= 0 {
		return
	}
	now := se.frame.Load()
	se.auto.CancelAfter(now)
	period := 1.0 / se.pulseFreq
	elapsed := float64(now-se.startFrame) / SAMPLE_RATE
	idx := int64(math.Floor(elapsed / period))
	if idx < 0 {
		idx = 0
	}
	se.nextPulse = idx
	// The cancelled window may have owned the current pulse's gate-off;
	// restate the gate from the phase clock before rebuilding.
	if PulseIsOn(elapsed, 0, se.pulseFreq, se.dutyCycle) {
		se.auto.ForceLevel(1)
	} else {
		se.auto.ForceLevel(0)
	}
	se.fillLocked(now, now+int64(SCHEDULE_LOOKAHEAD_SEC*SAMPLE_RATE))
}

// PushFrequency retunes the pulse grid phase-continuously: the anchor is
// moved so the current position within the cycle is preserved under the
// new period, pending events are rebuilt, and the gate is restated from
// the phase clock. Unlike SetFrequency there is no restart - sweep sources
// push at tick cadence, and re-anchoring per push would never let a cycle
// slower than the tick interval complete.
func (se *ScheduledToneEngine) PushFrequency(hz float64) {
	se.mutex.Lock()
	defer se.mutex.Unlock()

	if !se.running || se.mode != MODE_ISOCHRONIC || hz <= 0 {
		se.pulseFreq = hz
		se.beatFreq = hz
		return
	}

	now := se.frame.Load()
	elapsed := float64(now-se.startFrame) / SAMPLE_RATE
	phase := PulsePhase(elapsed, 0, se.pulseFreq)
	se.pulseFreq = hz
	se.beatFreq = hz

	// Same phase, new period: the current pulse began offset seconds ago
	// on the retuned grid.
	offset := phase / hz
	se.startFrame = now - int64(math.Round(offset*SAMPLE_RATE))
	se.wallStart = time.Now().Add(-time.Duration(offset * float64(time.Second)))
	se.nextPulse = 0
	se.auto.CancelAfter(now)
	if phase < se.dutyCycle {
		se.auto.ForceLevel(1)
	} else {
		se.auto.ForceLevel(0)
	}
	se.fillLocked(now, now+int64(SCHEDULE_LOOKAHEAD_SEC*SAMPLE_RATE))
}

func (se *ScheduledToneEngine) TimeRef() TimeReference {
	se.mutex.RLock()
	defer se.mutex.RUnlock()
	return TimeReference{
		Start:     se.wallStart,
		PulseFreq: se.pulseFreq,
		DutyCycle: se.dutyCycle,
	}
}

func (se *ScheduledToneEngine) Path() string {
	return "scheduled"
}

// PendingEvents exposes the queue depth for diagnostics and tests.
func (se *ScheduledToneEngine) PendingEvents() int {
	return se.auto.Pending()
}
