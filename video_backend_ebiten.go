//go:build !headless

// video_backend_ebiten.go - Ebiten flicker window implementation

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

const (
	FLICKER_WINDOW_W = 640
	FLICKER_WINDOW_H = 480
)

// FlickerWindow renders the visual half of an entrainment session: a
// full-screen square wave driven by the same phase-clock formula the audio
// engines use. It holds only a read-only TimeReference copy and samples it
// once per display refresh; vsync is the only timing source on this side.
type FlickerWindow struct {
	mutex   sync.RWMutex
	ref     TimeReference
	hasRef  bool
	running bool
	showHUD bool
	done    chan struct{}
}

func NewFlickerWindow() (*FlickerWindow, error) {
	return &FlickerWindow{
		showHUD: true,
		done:    make(chan struct{}),
	}, nil
}

func (fw *FlickerWindow) SetTimeReference(ref TimeReference) {
	fw.mutex.Lock()
	fw.ref = ref
	fw.hasRef = true
	fw.mutex.Unlock()
}

func (fw *FlickerWindow) snapshot() (TimeReference, bool) {
	fw.mutex.RLock()
	defer fw.mutex.RUnlock()
	return fw.ref, fw.hasRef && fw.running
}

func (fw *FlickerWindow) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		fw.mutex.Lock()
		fw.showHUD = !fw.showHUD
		fw.mutex.Unlock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return nil
}

func (fw *FlickerWindow) Draw(screen *ebiten.Image) {
	ref, ok := fw.snapshot()
	if !ok {
		screen.Fill(color.Black)
		return
	}

	now := time.Now()
	if ref.IsOnAt(now) {
		screen.Fill(color.White)
	} else {
		screen.Fill(color.Black)
	}

	fw.mutex.RLock()
	hud := fw.showHUD
	fw.mutex.RUnlock()
	if hud {
		label := fmt.Sprintf("%.2f Hz  duty %.2f  phase %.2f",
			ref.PulseFreq, ref.DutyCycle, ref.PhaseAt(now))
		// Grey stays legible on both flicker colors.
		text.Draw(screen, label, basicfont.Face7x13, 8, FLICKER_WINDOW_H-8,
			color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF})
	}
}

func (fw *FlickerWindow) Layout(outsideWidth, outsideHeight int) (int, int) {
	return FLICKER_WINDOW_W, FLICKER_WINDOW_H
}

func (fw *FlickerWindow) Start() error {
	fw.mutex.Lock()
	if fw.running {
		fw.mutex.Unlock()
		return nil
	}
	fw.running = true
	fw.done = make(chan struct{})
	fw.mutex.Unlock()

	ebiten.SetWindowSize(FLICKER_WINDOW_W, FLICKER_WINDOW_H)
	ebiten.SetWindowTitle("Entrainment Engine")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)

	go func() {
		defer func() {
			fw.mutex.Lock()
			fw.running = false
			done := fw.done
			fw.mutex.Unlock()
			select {
			case <-done:
			default:
				close(done)
			}
		}()
		if err := ebiten.RunGame(fw); err != nil && err != ebiten.Termination {
			fmt.Printf("Ebiten error: %v\n", err)
		}
	}()
	return nil
}

func (fw *FlickerWindow) Stop() error {
	fw.mutex.Lock()
	fw.running = false
	fw.mutex.Unlock()
	return nil
}

func (fw *FlickerWindow) Close() error {
	return fw.Stop()
}

func (fw *FlickerWindow) IsStarted() bool {
	fw.mutex.RLock()
	defer fw.mutex.RUnlock()
	return fw.running
}

// Done is closed when the window loop exits, so the CLI can treat closing
// the window as end of session.
func (fw *FlickerWindow) Done() <-chan struct{} {
	fw.mutex.RLock()
	defer fw.mutex.RUnlock()
	return fw.done
}
