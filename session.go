// session.go - Session orchestration and parameter validation

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

// Validated parameter ranges. Enforced here at the boundary; the core
// scheduling math assumes pre-validated inputs.
const (
	PULSE_FREQ_MIN = 0.1
	PULSE_FREQ_MAX = 100.0

	CARRIER_FREQ_MIN = 20.0
	CARRIER_FREQ_MAX = 20000.0

	DUTY_CYCLE_MIN = 0.01
	DUTY_CYCLE_MAX = 0.99
)

// SessionConfig describes one entrainment session.
type SessionConfig struct {
	Mode    int // MODE_ISOCHRONIC or MODE_BINAURAL
	Engine  int // ENGINE_AUTO, ENGINE_REALTIME or ENGINE_SCHEDULED
	Backend int // AUDIO_BACKEND_*

	CarrierFreq float64
	PulseFreq   float64 // Beat frequency in binaural mode
	DutyCycle   float64

	Visuals bool
}

// Validate rejects out-of-range parameters before they reach the engines.
func (cfg *SessionConfig) Validate() error {
	if cfg.PulseFreq < PULSE_FREQ_MIN || cfg.PulseFreq > PULSE_FREQ_MAX {
		return fmt.Errorf("pulse frequency %.2fHz outside %g-%gHz",
			cfg.PulseFreq, PULSE_FREQ_MIN, PULSE_FREQ_MAX)
	}
	if cfg.CarrierFreq < CARRIER_FREQ_MIN || cfg.CarrierFreq > CARRIER_FREQ_MAX {
		return fmt.Errorf("carrier frequency %.2fHz outside %g-%gHz",
			cfg.CarrierFreq, CARRIER_FREQ_MIN, CARRIER_FREQ_MAX)
	}
	if cfg.DutyCycle < DUTY_CYCLE_MIN || cfg.DutyCycle > DUTY_CYCLE_MAX {
		return fmt.Errorf("duty cycle %.2f outside %g-%g",
			cfg.DutyCycle, DUTY_CYCLE_MIN, DUTY_CYCLE_MAX)
	}
	if cfg.Mode != MODE_ISOCHRONIC && cfg.Mode != MODE_BINAURAL {
		return fmt.Errorf("unknown mode %d", cfg.Mode)
	}
	return nil
}

// SessionStatus is a point-in-time snapshot for status displays.
type SessionStatus struct {
	Running     bool
	Path        string // Active generation strategy
	Mode        int
	PulseFreq   float64
	CarrierFreq float64
	DutyCycle   float64
}

// Session owns the active engine, the optional flicker window and the
// optional protocol run, and is the single writer of every parameter.
// Starting a session fully re-initializes phase accumulators and scheduler
// indices; no state survives from a previous session.
type Session struct {
	cfg      SessionConfig
	engine   ToneEngine
	visual   VisualOutput
	protocol *ProtocolEngine

	mutex   sync.Mutex
	running bool
}

// NewSession validates the configuration, probes the generation path and
// builds the visual consumer.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine, err := NewToneEngine(cfg.Engine, cfg.Mode, cfg.Backend)
	if err != nil {
		return nil, err
	}
	engine.SetCarrierFrequency(cfg.CarrierFreq)
	engine.SetDutyCycle(cfg.DutyCycle)
	engine.SetFrequency(cfg.PulseFreq)

	videoBackend := VIDEO_BACKEND_NONE
	if cfg.Visuals {
		videoBackend = VIDEO_BACKEND_EBITEN
	}
	visual, err := NewVisualOutput(videoBackend)
	if err != nil {
		engine.Stop()
		return nil, err
	}

	return &Session{cfg: cfg, engine: engine, visual: visual}, nil
}

func (s *Session) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.running {
		return nil
	}
	if err := s.engine.Start(); err != nil {
		return err
	}
	s.visual.SetTimeReference(s.engine.TimeRef())
	if err := s.visual.Start(); err != nil {
		s.engine.Stop()
		return err
	}
	s.running = true
	return nil
}

// Stop halts audio, visuals and any protocol run. Idempotent. The
// protocol is stopped outside the session lock: its tick goroutine may be
// mid-PushFrequency, waiting on that same lock.
func (s *Session) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	s.running = false
	protocol := s.protocol
	s.protocol = nil
	s.mutex.Unlock()

	if protocol != nil {
		protocol.Stop()
	}
	s.engine.Stop()
	s.visual.Stop()
}

// SetFrequency re-anchors the engine at the clamped frequency and hands
// the new origin to the visual consumer, keeping both sides on the same
// pulse grid.
func (s *Session) SetFrequency(hz float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	// Clamp under the lock: the fallback reads s.cfg, which concurrent
	// setters from the protocol and terminal goroutines also write.
	hz = clampParam(hz, PULSE_FREQ_MIN, PULSE_FREQ_MAX, s.cfg.PulseFreq)
	s.cfg.PulseFreq = hz
	s.engine.SetFrequency(hz)
	s.visual.SetTimeReference(s.engine.TimeRef())
}

func (s *Session) SetCarrierFrequency(hz float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	hz = clampParam(hz, CARRIER_FREQ_MIN, CARRIER_FREQ_MAX, s.cfg.CarrierFreq)
	s.cfg.CarrierFreq = hz
	s.engine.SetCarrierFrequency(hz)
}

func (s *Session) SetDutyCycle(fraction float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	fraction = clampParam(fraction, DUTY_CYCLE_MIN, DUTY_CYCLE_MAX, s.cfg.DutyCycle)
	s.cfg.DutyCycle = fraction
	s.engine.SetDutyCycle(fraction)
	s.visual.SetTimeReference(s.engine.TimeRef())
}

// PushFrequency lets the session act as the protocol engine's sink. Sweep
// pushes retune the engine phase-continuously (no cycle restart) and keep
// the flicker window's origin in step with every update.
func (s *Session) PushFrequency(hz float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	hz = clampParam(hz, PULSE_FREQ_MIN, PULSE_FREQ_MAX, s.cfg.PulseFreq)
	s.cfg.PulseFreq = hz
	s.engine.PushFrequency(hz)
	s.visual.SetTimeReference(s.engine.TimeRef())
}

// RunProtocol starts a protocol sweep driving this session's frequency.
// The observer is optional.
func (s *Session) RunProtocol(phases []ProtocolPhase, observer ProtocolObserver, onComplete func()) error {
	pe, err := NewProtocolEngine(phases, s)
	if err != nil {
		return err
	}
	pe.SetObserver(observer)
	pe.SetCompletionFunc(onComplete)

	s.mutex.Lock()
	previous := s.protocol
	s.protocol = pe
	s.mutex.Unlock()

	if previous != nil {
		previous.Stop()
	}
	pe.Start()
	return nil
}

func (s *Session) Running() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

func (s *Session) Status() SessionStatus {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return SessionStatus{
		Running:     s.running,
		Path:        s.engine.Path(),
		Mode:        s.cfg.Mode,
		PulseFreq:   s.cfg.PulseFreq,
		CarrierFreq: s.cfg.CarrierFreq,
		DutyCycle:   s.cfg.DutyCycle,
	}
}

// Engine exposes the underlying tone engine, mainly for diagnostics.
func (s *Session) Engine() ToneEngine {
	return s.engine
}

// VisualDone is closed when the user closes the flicker window; nil (and
// never selecting) for sessions without visuals.
func (s *Session) VisualDone() <-chan struct{} {
	return s.visual.Done()
}
