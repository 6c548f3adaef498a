// protocol_engine.go - Timed frequency-sweep protocol engine

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"math"
	"sync"
	"time"
)

const PROTOCOL_TICK_MS = 100

// Phase shapes
const (
	SHAPE_RAMP   = "ramp"   // Cosine-eased glide FreqStart -> FreqEnd
	SHAPE_SINE   = "sine"   // Center - Amplitude*sin(2πt/Period)
	SHAPE_CUSTOM = "custom" // Arbitrary f(t-start), supplied by a script
)

// ProtocolPhase is one contiguous segment of a protocol. Phases must
// cover [0, duration) with no gaps or overlaps; exactly one phase is
// current for any in-range elapsed time.
type ProtocolPhase struct {
	Name     string
	StartSec float64
	EndSec   float64
	Shape    string

	// ramp
	FreqStart float64
	FreqEnd   float64

	// sine
	Center    float64
	Amplitude float64
	Period    float64

	// custom: frequency as a function of time within the phase
	Custom func(t float64) float64
}

// FrequencySink receives the computed target frequency at tick cadence.
// The engine only ever changes frequency; starting and stopping audio
// output belongs to the orchestrator.
type FrequencySink interface {
	PushFrequency(hz float64)
}

// ProtocolObserver is notified on every tick with the elapsed time, the
// current phase name and the pushed frequency.
type ProtocolObserver func(elapsed float64, phase string, freq float64)

// ProtocolEngine is a state machine over elapsed time, not events: every
// tick recomputes the current phase and frequency from a monotonic start
// instant. Delayed or coalesced ticks therefore cost only update cadence,
// never drift.
type ProtocolEngine struct {
	phases   []ProtocolPhase
	sink     FrequencySink
	observer ProtocolObserver
	complete func()

	mutex    sync.Mutex
	running  bool
	notified bool // Completion delivered; never delivered twice
	start    time.Time
	stopCh   chan struct{}
	done     chan struct{}
}

// ValidateProtocol checks that phases are contiguous from zero and well
// formed.
func ValidateProtocol(phases []ProtocolPhase) error {
	if len(phases) == 0 {
		return fmt.Errorf("protocol has no phases")
	}
	expected := 0.0
	for i, ph := range phases {
		if ph.StartSec != expected {
			return fmt.Errorf("phase %q starts at %gs, want %gs (phases must be contiguous)",
				ph.Name, ph.StartSec, expected)
		}
		if ph.EndSec <= ph.StartSec {
			return fmt.Errorf("phase %q ends at %gs, before its start", ph.Name, ph.EndSec)
		}
		switch ph.Shape {
		case SHAPE_RAMP:
		case SHAPE_SINE:
			if ph.Period <= 0 {
				return fmt.Errorf("sine phase %q needs a positive period", ph.Name)
			}
		case SHAPE_CUSTOM:
			if ph.Custom == nil {
				return fmt.Errorf("custom phase %q has no frequency function", ph.Name)
			}
		default:
			return fmt.Errorf("phase %d (%q) has unknown shape %q", i, ph.Name, ph.Shape)
		}
		expected = ph.EndSec
	}
	return nil
}

func NewProtocolEngine(phases []ProtocolPhase, sink FrequencySink) (*ProtocolEngine, error) {
	if err := ValidateProtocol(phases); err != nil {
		return nil, err
	}
	return &ProtocolEngine{phases: phases, sink: sink}, nil
}

// SetObserver registers the per-tick observer. Call before Start.
func (pe *ProtocolEngine) SetObserver(obs ProtocolObserver) {
	pe.observer = obs
}

// SetCompletionFunc registers the end-of-protocol callback, delivered
// exactly once. Call before Start.
func (pe *ProtocolEngine) SetCompletionFunc(fn func()) {
	pe.complete = fn
}

// Duration returns the total protocol length in seconds.
func (pe *ProtocolEngine) Duration() float64 {
	return pe.phases[len(pe.phases)-1].EndSec
}

// CurrentPhase returns the phase owning the given elapsed time: the first
// phase whose end lies beyond it, clamped (not wrapped) to the last phase
// past the total duration.
func (pe *ProtocolEngine) CurrentPhase(t float64) ProtocolPhase {
	for _, ph := range pe.phases {
		if ph.EndSec > t {
			return ph
		}
	}
	return pe.phases[len(pe.phases)-1]
}

// ComputeFrequency evaluates the protocol's target frequency at elapsed
// time t.
//
// Ramps use a cosine ease with zero slope at both ends, so the frequency
// derivative is continuous across phase boundaries. Sine phases start
// descending, matching the direction the preceding ramp arrives with.
func (pe *ProtocolEngine) ComputeFrequency(t float64) float64 {
	ph := pe.CurrentPhase(t)
	local := t - ph.StartSec

	switch ph.Shape {
	case SHAPE_RAMP:
		u := local / (ph.EndSec - ph.StartSec)
		if u < 0 {
			u = 0
		}
		if u > 1 {
			u = 1
		}
		ease := (1 - math.Cos(math.Pi*u)) / 2
		return ph.FreqStart + (ph.FreqEnd-ph.FreqStart)*ease
	case SHAPE_SINE:
		return ph.Center - ph.Amplitude*math.Sin(2*math.Pi/ph.Period*local)
	case SHAPE_CUSTOM:
		return ph.Custom(local)
	}
	return 0
}

// Start begins ticking: one immediate tick, then a fixed-rate timer.
// Elapsed time is always recomputed from the monotonic start instant, so
// a suspended process resumes with the correct frequency, not a replay of
// missed ticks.
func (pe *ProtocolEngine) Start() {
	pe.mutex.Lock()
	if pe.running {
		pe.mutex.Unlock()
		return
	}
	pe.running = true
	pe.notified = false
	pe.start = time.Now()
	stopCh := make(chan struct{})
	done := make(chan struct{})
	pe.stopCh = stopCh
	pe.done = done
	pe.mutex.Unlock()

	pe.tick()

	go func() {
		defer close(done)
		ticker := time.NewTicker(PROTOCOL_TICK_MS * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				if pe.tick() {
					return
				}
			}
		}
	}()
}

// tick pushes the current frequency downstream and reports true once the
// protocol has run to completion.
func (pe *ProtocolEngine) tick() bool {
	pe.mutex.Lock()
	if !pe.running {
		pe.mutex.Unlock()
		return true
	}
	elapsed := time.Since(pe.start).Seconds()
	finished := elapsed >= pe.Duration()
	if finished {
		elapsed = pe.Duration()
	}
	var complete func()
	if finished && !pe.notified {
		pe.notified = true
		complete = pe.complete
	}
	if finished {
		pe.running = false
	}
	pe.mutex.Unlock()

	phase := pe.CurrentPhase(elapsed)
	freq := pe.ComputeFrequency(elapsed)
	if !finished && pe.sink != nil {
		pe.sink.PushFrequency(freq)
	}
	if pe.observer != nil {
		pe.observer(elapsed, phase.Name, freq)
	}
	if complete != nil {
		complete()
	}
	return finished
}

// Stop halts the tick timer. Idempotent, and deliberately leaves the
// downstream sink at whatever frequency it last received.
func (pe *ProtocolEngine) Stop() {
	pe.mutex.Lock()
	if !pe.running && pe.stopCh == nil {
		pe.mutex.Unlock()
		return
	}
	pe.running = false
	stopCh := pe.stopCh
	done := pe.done
	pe.stopCh = nil
	pe.done = nil
	pe.mutex.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}
}

// Running reports whether the protocol is still ticking.
func (pe *ProtocolEngine) Running() bool {
	pe.mutex.Lock()
	defer pe.mutex.Unlock()
	return pe.running
}

// DefaultProtocol is the scripted 20-minute entrainment session: ease from
// an alert 38Hz down to 10Hz, hold a gentle 8-12Hz oscillation, then ease
// back up.
func DefaultProtocol() []ProtocolPhase {
	return []ProtocolPhase{
		{Name: "Adaptation", StartSec: 0, EndSec: 120, Shape: SHAPE_RAMP, FreqStart: 38, FreqEnd: 13},
		{Name: "Transition", StartSec: 120, EndSec: 180, Shape: SHAPE_RAMP, FreqStart: 13, FreqEnd: 10},
		{Name: "Entrainment", StartSec: 180, EndSec: 1080, Shape: SHAPE_SINE, Center: 10, Amplitude: 2, Period: 60},
		{Name: "Recognition", StartSec: 1080, EndSec: 1200, Shape: SHAPE_RAMP, FreqStart: 13, FreqEnd: 38},
	}
}
