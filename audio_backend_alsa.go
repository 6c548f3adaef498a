//go:build !headless

// audio_backend_alsa.go - ALSA audio output implementation

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

/*
#cgo LDFLAGS: -lasound
#include <alsa/asoundlib.h>
#include <stdlib.h>

static snd_pcm_t* openPCM(const char* device, int* err) {
    snd_pcm_t* handle;
    *err = snd_pcm_open(&handle, device, SND_PCM_STREAM_PLAYBACK, 0);
    return handle;
}

static int setupPCM(snd_pcm_t* handle, unsigned int rate) {
    snd_pcm_hw_params_t* params;
    int err;

    snd_pcm_hw_params_alloca(&params);
    err = snd_pcm_hw_params_any(handle, params);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_access(handle, params, SND_PCM_ACCESS_RW_INTERLEAVED);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_format(handle, params, SND_PCM_FORMAT_FLOAT);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_channels(handle, params, 2);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_rate(handle, params, rate, 0);
    if (err < 0) return err;

    err = snd_pcm_hw_params(handle, params);
    if (err < 0) return err;

    return snd_pcm_prepare(handle);
}

static int writePCM(snd_pcm_t* handle, float* buffer, int frames) {
    return snd_pcm_writei(handle, buffer, frames);
}

static void closePCM(snd_pcm_t* handle) {
    if (handle != NULL) {
        snd_pcm_drain(handle);
        snd_pcm_close(handle);
    }
}
*/
import "C"
import (
	"fmt"
	"os"
	"sync"
	"unsafe"
)

const ALSA_PERIOD_FRAMES = 512

// ALSAPlayer pushes interleaved stereo float frames straight to the PCM
// device from a feeder goroutine that drains the SampleSource.
type ALSAPlayer struct {
	handle     *C.snd_pcm_t
	src        SampleSource
	samples    []float32
	sampleRate int
	started    bool
	stopCh     chan struct{}
	done       chan struct{}
	mutex      sync.Mutex
}

func NewALSAPlayer(sampleRate int, src SampleSource) (*ALSAPlayer, error) {
	var cerr C.int
	dev := C.CString("default")
	defer C.free(unsafe.Pointer(dev))
	handle := C.openPCM(dev, &cerr)
	if cerr < 0 {
		return nil, &AudioError{
			Operation: "device open",
			Details:   C.GoString(C.snd_strerror(cerr)),
		}
	}

	if cerr = C.setupPCM(handle, C.uint(sampleRate)); cerr < 0 {
		C.closePCM(handle)
		return nil, &AudioError{
			Operation: "device setup",
			Details:   C.GoString(C.snd_strerror(cerr)),
		}
	}

	return &ALSAPlayer{
		handle:     handle,
		src:        src,
		sampleRate: sampleRate,
		samples:    make([]float32, ALSA_PERIOD_FRAMES*2),
	}, nil
}

func (ap *ALSAPlayer) feed() {
	defer close(ap.done)
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "audio render error: %v\n", r)
		}
	}()

	for {
		select {
		case <-ap.stopCh:
			return
		default:
		}

		for i := 0; i < ALSA_PERIOD_FRAMES; i++ {
			ap.samples[i*2], ap.samples[i*2+1] = ap.src.ReadSample()
		}

		ap.mutex.Lock()
		handle := ap.handle
		ap.mutex.Unlock()
		if handle == nil {
			return
		}

		frames := C.writePCM(handle, (*C.float)(unsafe.Pointer(&ap.samples[0])), C.int(ALSA_PERIOD_FRAMES))
		if frames < 0 {
			if frames == -C.EPIPE {
				C.snd_pcm_prepare(handle)
				continue
			}
			fmt.Fprintf(os.Stderr, "alsa write failed: %s\n", C.GoString(C.snd_strerror(C.int(frames))))
			return
		}
	}
}

func (ap *ALSAPlayer) Start() error {
	ap.mutex.Lock()
	defer ap.mutex.Unlock()

	if ap.started || ap.handle == nil {
		return nil
	}
	ap.stopCh = make(chan struct{})
	ap.done = make(chan struct{})
	ap.started = true
	go ap.feed()
	return nil
}

func (ap *ALSAPlayer) Stop() error {
	ap.mutex.Lock()
	if !ap.started {
		ap.mutex.Unlock()
		return nil
	}
	ap.started = false
	close(ap.stopCh)
	done := ap.done
	ap.mutex.Unlock()

	<-done
	return nil
}

func (ap *ALSAPlayer) Close() error {
	if err := ap.Stop(); err != nil {
		return err
	}
	ap.mutex.Lock()
	defer ap.mutex.Unlock()

	if ap.handle != nil {
		C.closePCM(ap.handle)
		ap.handle = nil
	}
	return nil
}

func (ap *ALSAPlayer) IsStarted() bool {
	ap.mutex.Lock()
	defer ap.mutex.Unlock()
	return ap.started
}

func (ap *ALSAPlayer) SampleRate() int {
	return ap.sampleRate
}
