// video_interface.go - Visual flicker interface for the Entrainment Engine

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import "fmt"

// VideoError provides detailed error context for video operations
type VideoError struct {
	Operation string // What operation was being attempted
	Details   string // Additional error context
	Err       error  // Underlying error if any
}

func (e *VideoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("video %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("video %s failed: %s", e.Operation, e.Details)
}

// VisualOutput is the flicker consumer contract. A backend reads the
// published TimeReference and evaluates the shared phase-clock formula on
// its own refresh cadence; it never mutates engine state, so audio and
// visuals stay in lockstep without coordination.
type VisualOutput interface {
	Start() error
	Stop() error
	Close() error
	IsStarted() bool

	// SetTimeReference replaces the read-only timing copy. Called by the
	// session whenever the engine re-anchors.
	SetTimeReference(ref TimeReference)

	// Done is closed when the backend's display loop exits (the user
	// closed the window). Backends without a window return nil, which
	// never selects.
	Done() <-chan struct{}
}

// Predefined video backend types
const (
	VIDEO_BACKEND_EBITEN = iota // Pure Go Ebiten flicker window
	VIDEO_BACKEND_NONE          // No visuals
)

// NewVisualOutput creates a visual output instance using the specified
// backend.
func NewVisualOutput(backend int) (VisualOutput, error) {
	switch backend {
	case VIDEO_BACKEND_EBITEN:
		return NewFlickerWindow()
	case VIDEO_BACKEND_NONE:
		return NewNullVisual(), nil
	}
	return nil, &VideoError{
		Operation: "backend creation",
		Details:   fmt.Sprintf("unknown backend type: %d", backend),
	}
}

// NullVisual satisfies VisualOutput for sessions without visuals.
type NullVisual struct {
	started bool
}

func NewNullVisual() *NullVisual                       { return &NullVisual{} }
func (nv *NullVisual) Start() error                    { nv.started = true; return nil }
func (nv *NullVisual) Stop() error                     { nv.started = false; return nil }
func (nv *NullVisual) Close() error                    { nv.started = false; return nil }
func (nv *NullVisual) IsStarted() bool                { return nv.started }
func (nv *NullVisual) SetTimeReference(TimeReference) {}
func (nv *NullVisual) Done() <-chan struct{}          { return nil }
