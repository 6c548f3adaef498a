// realtime_engine.go - Per-sample tone engine (realtime path)

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

// CONTROL_BLOCK_FRAMES is the cadence at which the render path picks up a
// fresh parameter snapshot. Parameter changes land atomically on a block
// boundary, never mid-pulse-sample.
const CONTROL_BLOCK_FRAMES = 128

// toneParams is the immutable parameter block exchanged between the
// control side and the render goroutine. The control side builds a new
// block and swaps the pointer; the render side loads it at block
// boundaries. Single writer, lock-free reader.
type toneParams struct {
	carrierFreq float64
	pulseFreq   float64
	beatFreq    float64
	dutyCycle   float64
	mode        int
	resetSeq    uint64 // Bumped to request a pulse-phase re-anchor
}

// RealtimeToneEngine computes every output sample at generation time with
// running phase accumulators, so it needs no lookahead and no event queue.
// This is the reference path for precision-sensitive work; the scheduled
// path is the fallback.
type RealtimeToneEngine struct {
	output  AudioOutput
	params  atomic.Pointer[toneParams]
	timeRef atomic.Pointer[TimeReference]
	running atomic.Bool

	// Render-goroutine state. Accumulators live in [0,1) and are wrapped
	// every sample so they never grow into float precision loss.
	carrierPhase float64
	pulsePhase   float64
	leftPhase    float64
	rightPhase   float64
	active       toneParams // Last validated snapshot; survives bad updates
	appliedReset uint64
	blockLeft    int

	mutex sync.Mutex // Serializes setters (control side)
}

func NewRealtimeToneEngine(mode, backend int) (*RealtimeToneEngine, error) {
	re := &RealtimeToneEngine{}
	initial := &toneParams{
		carrierFreq: DEFAULT_CARRIER_FREQ,
		pulseFreq:   DEFAULT_PULSE_FREQ,
		beatFreq:    DEFAULT_BEAT_FREQ,
		dutyCycle:   DEFAULT_DUTY_CYCLE,
		mode:        mode,
	}
	re.params.Store(initial)
	re.active = *initial

	output, err := NewAudioOutput(backend, SAMPLE_RATE, re)
	if err != nil {
		return nil, err
	}
	re.output = output
	return re, nil
}

// clampParam bounds a parameter for the render path. A malformed value
// (NaN, Inf) falls back to the last known good one: a momentarily wrong
// frequency beats an audio dropout.
func clampParam(v, min, max, lastGood float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return lastGood
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// applyParams validates and adopts the pending parameter block. Runs on
// the render goroutine at block boundaries only.
func (re *RealtimeToneEngine) applyParams() {
	p := re.params.Load()
	if p == nil {
		return
	}
	next := *p
	next.carrierFreq = clampParam(next.carrierFreq, CARRIER_FREQ_MIN, CARRIER_FREQ_MAX, re.active.carrierFreq)
	next.pulseFreq = clampParam(next.pulseFreq, PULSE_FREQ_MIN, PULSE_FREQ_MAX, re.active.pulseFreq)
	next.beatFreq = clampParam(next.beatFreq, PULSE_FREQ_MIN, PULSE_FREQ_MAX, re.active.beatFreq)
	next.dutyCycle = clampParam(next.dutyCycle, DUTY_CYCLE_MIN, DUTY_CYCLE_MAX, re.active.dutyCycle)

	if next.resetSeq != re.appliedReset {
		// Explicit re-anchor after a frequency change: restart the pulse
		// cycle at phase 0, discarding accumulated phase. Same policy as
		// the scheduled path's cancel-and-refill.
		re.pulsePhase = 0
		re.appliedReset = next.resetSeq
	}
	re.active = next
}

// ReadSample synthesizes one stereo frame. No locks, no allocation, no
// branches that can panic: this runs on the device's render goroutine.
func (re *RealtimeToneEngine) ReadSample() (left, right float32) {
	if !re.running.Load() {
		return 0, 0
	}
	if re.blockLeft <= 0 {
		re.applyParams()
		re.blockLeft = CONTROL_BLOCK_FRAMES
	}
	re.blockLeft--

	p := &re.active
	const sr = float64(SAMPLE_RATE)

	if p.mode == MODE_BINAURAL {
		l := float32(math.Sin(2*math.Pi*re.leftPhase)) * TONE_AMPLITUDE
		r := float32(math.Sin(2*math.Pi*re.rightPhase)) * TONE_AMPLITUDE
		re.leftPhase += p.carrierFreq / sr
		re.leftPhase -= math.Floor(re.leftPhase)
		re.rightPhase += (p.carrierFreq + p.beatFreq) / sr
		re.rightPhase -= math.Floor(re.rightPhase)
		return l, r
	}

	var gate float32
	if re.pulsePhase < p.dutyCycle {
		gate = 1
	}
	s := float32(math.Sin(2*math.Pi*re.carrierPhase)) * gate * TONE_AMPLITUDE
	re.carrierPhase += p.carrierFreq / sr
	re.carrierPhase -= math.Floor(re.carrierPhase)
	re.pulsePhase += p.pulseFreq / sr
	re.pulsePhase -= math.Floor(re.pulsePhase)
	return s, s
}

func (re *RealtimeToneEngine) Start() error {
	if re.running.Load() {
		return nil
	}
	re.mutex.Lock()
	re.carrierPhase = 0
	re.pulsePhase = 0
	re.leftPhase = 0
	re.rightPhase = 0
	re.blockLeft = 0
	p := re.params.Load()
	re.publishTimeRef(p)
	re.mutex.Unlock()

	re.running.Store(true)
	return re.output.Start()
}

// Stop halts output synchronously. Idempotent; safe when never started.
func (re *RealtimeToneEngine) Stop() {
	if !re.running.Swap(false) {
		return
	}
	re.output.Stop()
}

func (re *RealtimeToneEngine) Running() bool {
	return re.running.Load()
}

func (re *RealtimeToneEngine) publishTimeRef(p *toneParams) {
	re.timeRef.Store(&TimeReference{
		Start:     time.Now(),
		PulseFreq: p.pulseFreq,
		DutyCycle: p.dutyCycle,
	})
}

// SetFrequency swaps in a new pulse/beat frequency and bumps the re-anchor
// sequence: the render path zeroes its pulse phase at the next block
// boundary and the published origin moves to "now".
func (re *RealtimeToneEngine) SetFrequency(hz float64) {
	re.mutex.Lock()
	defer re.mutex.Unlock()
	next := *re.params.Load()
	next.pulseFreq = hz
	next.beatFreq = hz
	next.resetSeq++
	re.params.Store(&next)
	re.publishTimeRef(&next)
}

func (re *RealtimeToneEngine) SetCarrierFrequency(hz float64) {
	re.mutex.Lock()
	defer re.mutex.Unlock()
	next := *re.params.Load()
	next.carrierFreq = hz
	re.params.Store(&next)
}

func (re *RealtimeToneEngine) SetBeatFrequency(hz float64) {
	re.mutex.Lock()
	defer re.mutex.Unlock()
	next := *re.params.Load()
	next.beatFreq = hz
	re.params.Store(&next)
}

func (re *RealtimeToneEngine) SetDutyCycle(fraction float64) {
	re.mutex.Lock()
	defer re.mutex.Unlock()
	next := *re.params.Load()
	next.dutyCycle = fraction
	re.params.Store(&next)
	if ref := re.timeRef.Load(); ref != nil {
		re.timeRef.Store(&TimeReference{
			Start:     ref.Start,
			PulseFreq: ref.PulseFreq,
			DutyCycle: fraction,
		})
	}
}

// PushFrequency retunes the pulse/beat frequency without touching the
// phase accumulator: no resetSeq bump, so the running cycle completes at
// the new rate instead of restarting. Sweep sources push at tick cadence,
// and a re-anchor per push would cap the audible pulse rate at the tick
// rate for any target slower than the tick interval. The published origin
// is moved so the visual consumer lands on the same phase under the new
// frequency.
func (re *RealtimeToneEngine) PushFrequency(hz float64) {
	re.mutex.Lock()
	defer re.mutex.Unlock()
	next := *re.params.Load()
	next.pulseFreq = hz
	next.beatFreq = hz
	re.params.Store(&next)

	if ref := re.timeRef.Load(); ref != nil && hz > 0 {
		now := time.Now()
		phase := ref.PhaseAt(now)
		start := now.Add(-time.Duration(phase / hz * float64(time.Second)))
		re.timeRef.Store(&TimeReference{
			Start:     start,
			PulseFreq: hz,
			DutyCycle: ref.DutyCycle,
		})
	}
}

func (re *RealtimeToneEngine) TimeRef() TimeReference {
	if ref := re.timeRef.Load(); ref != nil {
		return *ref
	}
	p := re.params.Load()
	return TimeReference{PulseFreq: p.pulseFreq, DutyCycle: p.dutyCycle}
}

func (re *RealtimeToneEngine) Path() string {
	return "realtime"
}
