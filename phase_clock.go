// phase_clock.go - Drift-free pulse phase computation

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import (
	"math"
	"time"
)

// PulsePhase returns the position within the current pulse cycle as a
// fraction of the period in [0,1). Phase is always the direct product
// (now - startTime) * freq reduced mod 1, never an accumulated sum of
// per-period increments: accumulating t += 1/freq picks up rounding error
// on every pulse and drifts over millions of cycles, while the product is
// error-bounded by the magnitude of elapsed alone. Every consumer - both
// tone engines, the flicker window and the diagnostics oracle - evaluates
// this exact formula against the same published origin, which is what
// keeps audio and visuals phase-locked without locks or shared state.
func PulsePhase(now, startTime, freq float64) float64 {
	elapsed := now - startTime
	if elapsed < 0 {
		return 0
	}
	phase := elapsed * freq
	return phase - math.Floor(phase)
}

// PulseIsOn reports whether the gate is open at the given instant: the
// phase lies within the first dutyCycle fraction of the period. Before
// startTime the gate is closed.
func PulseIsOn(now, startTime, freq, dutyCycle float64) bool {
	if now < startTime {
		return false
	}
	return PulsePhase(now, startTime, freq) < dutyCycle
}

// TimeReference is the timing origin published by the active tone engine.
// Consumers receive it by value and only ever read it; the visual path and
// the audio path agree on pulse phase because both recompute the same pure
// function of the same origin, not because they coordinate at runtime.
type TimeReference struct {
	Start     time.Time
	PulseFreq float64
	DutyCycle float64
}

// PhaseAt returns the pulse phase at a wall-clock instant.
func (tr TimeReference) PhaseAt(t time.Time) float64 {
	return PulsePhase(t.Sub(tr.Start).Seconds(), 0, tr.PulseFreq)
}

// IsOnAt returns the gate state at a wall-clock instant.
func (tr TimeReference) IsOnAt(t time.Time) bool {
	return PulseIsOn(t.Sub(tr.Start).Seconds(), 0, tr.PulseFreq, tr.DutyCycle)
}
