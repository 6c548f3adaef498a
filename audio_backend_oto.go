//go:build !headless

// audio_backend_oto.go - OTO v3 audio output implementation

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// NewAudioOutput creates an audio output using the specified backend.
func NewAudioOutput(backend int, sampleRate int, src SampleSource) (AudioOutput, error) {
	switch backend {
	case AUDIO_BACKEND_OTO:
		return NewOtoPlayer(sampleRate, src)
	case AUDIO_BACKEND_ALSA:
		return NewALSAPlayer(sampleRate, src)
	case AUDIO_BACKEND_NONE:
		return NewNullOutput(), nil
	}
	return nil, &AudioError{
		Operation: "backend creation",
		Details:   fmt.Sprintf("unknown backend type: %d", backend),
	}
}

type sourceHolder struct {
	src SampleSource
}

type OtoPlayer struct {
	ctx        *oto.Context
	player     *oto.Player
	source     atomic.Pointer[sourceHolder] // Atomic for lock-free Read()
	sampleBuf  []float32                    // Pre-allocated interleaved buffer
	sampleRate int
	started    bool
	mutex      sync.Mutex // Only for setup/control operations
}

func NewOtoPlayer(sampleRate int, src SampleSource) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, &AudioError{Operation: "context creation", Details: "oto init", Err: err}
	}
	<-ready

	player := &OtoPlayer{
		ctx:        ctx,
		sampleRate: sampleRate,
		// Pre-allocate for typical oto buffer sizes (4096 bytes = 512 stereo frames)
		sampleBuf: make([]float32, 4096),
	}
	player.source.Store(&sourceHolder{src: src})
	player.player = ctx.NewPlayer(player)
	return player, nil
}

func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	// A panicking source must not kill the device goroutine and silence
	// output for good; emit silence for the rest of this block instead.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "audio render error: %v\n", r)
			for i := range p {
				p[i] = 0
			}
			n, err = len(p), nil
		}
	}()

	// Load source pointer atomically - no lock needed for the hot path
	holder := op.source.Load()
	if holder == nil || holder.src == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	numFrames := len(p) / 8 // 2 channels x 4 bytes

	// Ensure our pre-allocated buffer is large enough
	// This should rarely happen after construction
	if len(op.sampleBuf) < numFrames*2 {
		op.sampleBuf = make([]float32, numFrames*2)
	}
	samples := op.sampleBuf[:numFrames*2]

	for i := 0; i < numFrames; i++ {
		samples[i*2], samples[i*2+1] = holder.src.ReadSample()
	}

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:numFrames*8])
	return numFrames * 8, nil
}

func (op *OtoPlayer) Start() error {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
	return nil
}

func (op *OtoPlayer) Stop() error {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.started && op.player != nil {
		if err := op.player.Close(); err != nil {
			op.started = false
			return &AudioError{Operation: "stop", Details: "player close", Err: err}
		}
		op.started = false
	}
	return nil
}

func (op *OtoPlayer) Close() error {
	if err := op.Stop(); err != nil {
		return err
	}
	op.mutex.Lock()
	defer op.mutex.Unlock()
	op.player = nil
	return nil
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}

func (op *OtoPlayer) SampleRate() int {
	return op.sampleRate
}
