//go:build headless

package main

// Headless builds render no flicker; the stub keeps the session wiring
// identical.

type FlickerWindow struct {
	running bool
	ref     TimeReference
}

func NewFlickerWindow() (*FlickerWindow, error) {
	return &FlickerWindow{}, nil
}

func (fw *FlickerWindow) Start() error {
	fw.running = true
	return nil
}

func (fw *FlickerWindow) Stop() error {
	fw.running = false
	return nil
}

func (fw *FlickerWindow) Close() error {
	fw.running = false
	return nil
}

func (fw *FlickerWindow) IsStarted() bool {
	return fw.running
}

func (fw *FlickerWindow) SetTimeReference(ref TimeReference) {
	fw.ref = ref
}

func (fw *FlickerWindow) Done() <-chan struct{} {
	return nil
}
