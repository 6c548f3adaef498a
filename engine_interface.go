// engine_interface.go - Tone engine interface and path selection

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

// Generation modes
const (
	MODE_ISOCHRONIC = iota // Single gated carrier
	MODE_BINAURAL          // Dual continuous carriers, one per ear
)

// Engine kinds. ENGINE_AUTO probes the realtime per-sample path and falls
// back to the block-scheduled path; the choice is made once at
// construction and exposed via Path().
const (
	ENGINE_AUTO = iota
	ENGINE_REALTIME
	ENGINE_SCHEDULED
)

// Default parameters, used until the session overrides them.
const (
	DEFAULT_CARRIER_FREQ = 200.0
	DEFAULT_PULSE_FREQ   = 10.0
	DEFAULT_BEAT_FREQ    = 10.0
	DEFAULT_DUTY_CYCLE   = 0.5
)

// Master output level. Gated sine at full scale is harsh on headphones.
const TONE_AMPLITUDE = 0.8

// ToneEngine is the one capability surface shared by both generation
// strategies. Two independent implementations exist: RealtimeToneEngine
// computes every output sample at generation time, ScheduledToneEngine
// pre-schedules gate transitions into a lookahead window. Same contract,
// same phase math, selected once at construction - no inheritance.
type ToneEngine interface {
	SampleSource

	Start() error
	Stop()
	Running() bool

	// Setters assume range-validated inputs; the Session owns validation.
	// SetFrequency re-anchors the pulse cycle at "now" (intentional
	// restart rather than phase-continuous glide).
	SetFrequency(hz float64)
	SetCarrierFrequency(hz float64)
	SetBeatFrequency(hz float64)
	SetDutyCycle(fraction float64)

	// PushFrequency is the protocol sweep engine's sink. Pushes retune
	// phase-continuously; the restart semantics belong to SetFrequency
	// only.
	PushFrequency(hz float64)

	// TimeRef publishes the current timing origin for visual consumers.
	TimeRef() TimeReference

	// Path names the active generation strategy ("realtime"/"scheduled").
	Path() string
}

// NewToneEngine builds a tone engine of the requested kind. ENGINE_AUTO
// tries the realtime path first and transparently falls back to the
// scheduled path when the realtime output cannot be brought up; only when
// both paths fail is the error surfaced.
func NewToneEngine(kind, mode, backend int) (ToneEngine, error) {
	switch kind {
	case ENGINE_REALTIME:
		return NewRealtimeToneEngine(mode, backend)
	case ENGINE_SCHEDULED:
		return NewScheduledToneEngine(mode, backend)
	case ENGINE_AUTO:
		engine, err := NewRealtimeToneEngine(mode, backend)
		if err == nil {
			return engine, nil
		}
		return NewScheduledToneEngine(mode, backend)
	}
	return nil, &AudioError{
		Operation: "engine creation",
		Details:   "unknown engine kind",
	}
}
