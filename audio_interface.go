// audio_interface.go - Audio output interface for the Entrainment Engine

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import "fmt"

const SAMPLE_RATE = 44100

// Predefined audio backend types
const (
	AUDIO_BACKEND_OTO  = iota // Pure Go OTO backend
	AUDIO_BACKEND_ALSA        // Direct ALSA backend using cgo
	AUDIO_BACKEND_NONE        // Null backend for offline rendering and tests
)

// AudioError provides detailed error context for audio operations
type AudioError struct {
	Operation string // What operation was being attempted
	Details   string // Additional error context
	Err       error  // Underlying error if any
}

func (e *AudioError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("audio %s failed: %s", e.Operation, e.Details)
}

// SampleSource produces one stereo frame per call. Implemented by the tone
// engines; called from the backend's render goroutine, so implementations
// must never block or allocate.
type SampleSource interface {
	ReadSample() (left, right float32)
}

// AudioOutput defines the minimal interface that backends must implement
type AudioOutput interface {
	Start() error
	Stop() error
	Close() error
	IsStarted() bool
	SampleRate() int
}

// NullOutput is a pull-less sink used for deterministic offline rendering
// and for tests: callers drain the SampleSource themselves, so starting it
// only flips a flag.
type NullOutput struct {
	started bool
}

func NewNullOutput() *NullOutput       { return &NullOutput{} }
func (no *NullOutput) Start() error    { no.started = true; return nil }
func (no *NullOutput) Stop() error     { no.started = false; return nil }
func (no *NullOutput) Close() error    { no.started = false; return nil }
func (no *NullOutput) IsStarted() bool { return no.started }
func (no *NullOutput) SampleRate() int { return SAMPLE_RATE }
