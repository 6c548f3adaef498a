// render.go - Deterministic offline session rendering

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import "fmt"

// RenderOffline renders a session of the given duration through the
// requested engine and returns interleaved stereo samples. The engine is
// built on the null backend, so rendering is a pure drain of the sample
// source - byte-identical on every run.
func RenderOffline(cfg SessionConfig, duration float64) ([]float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, fmt.Errorf("render duration must be positive, got %g", duration)
	}

	kind := cfg.Engine
	if kind == ENGINE_AUTO {
		kind = ENGINE_REALTIME
	}

	frames := int(duration * SAMPLE_RATE)
	out := make([]float32, frames*2)

	switch kind {
	case ENGINE_REALTIME:
		engine, err := NewRealtimeToneEngine(cfg.Mode, AUDIO_BACKEND_NONE)
		if err != nil {
			return nil, err
		}
		engine.SetCarrierFrequency(cfg.CarrierFreq)
		engine.SetDutyCycle(cfg.DutyCycle)
		engine.SetFrequency(cfg.PulseFreq)
		if err := engine.Start(); err != nil {
			return nil, err
		}
		defer engine.Stop()
		for i := 0; i < frames; i++ {
			out[i*2], out[i*2+1] = engine.ReadSample()
		}

	case ENGINE_SCHEDULED:
		engine, err := NewScheduledToneEngine(cfg.Mode, AUDIO_BACKEND_NONE)
		if err != nil {
			return nil, err
		}
		engine.SetCarrierFrequency(cfg.CarrierFreq)
		engine.SetDutyCycle(cfg.DutyCycle)
		engine.SetFrequency(cfg.PulseFreq)
		// Batch path: every gate event for the whole duration is
		// scheduled up front, no refill timer involved.
		if err := engine.StartOffline(duration); err != nil {
			return nil, err
		}
		defer engine.Stop()
		for i := 0; i < frames; i++ {
			out[i*2], out[i*2+1] = engine.ReadSample()
		}

	default:
		return nil, fmt.Errorf("unknown engine kind %d", kind)
	}

	return out, nil
}

// MonoMix folds an interleaved stereo buffer to mono for analysis.
func MonoMix(stereo []float32) []float32 {
	mono := make([]float32, len(stereo)/2)
	for i := range mono {
		mono[i] = (stereo[i*2] + stereo[i*2+1]) / 2
	}
	return mono
}

// SplitChannels separates an interleaved stereo buffer.
func SplitChannels(stereo []float32) (left, right []float32) {
	n := len(stereo) / 2
	left = make([]float32, n)
	right = make([]float32, n)
	for i := 0; i < n; i++ {
		left[i] = stereo[i*2]
		right[i] = stereo[i*2+1]
	}
	return left, right
}
