// realtime_engine_test.go - Per-sample engine tests

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import (
	"math"
	"testing"
)

func newOfflineRealtime(t *testing.T, mode int) *RealtimeToneEngine {
	t.Helper()
	engine, err := NewRealtimeToneEngine(mode, AUDIO_BACKEND_NONE)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return engine
}

func TestRealtimePulseAndCarrier(t *testing.T) {
	engine := newOfflineRealtime(t, MODE_ISOCHRONIC)
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer engine.Stop()

	mono := MonoMix(drainStereo(engine, 3.0))
	if got := DetectPulse(mono, SAMPLE_RATE); math.Abs(got-DEFAULT_PULSE_FREQ) > 0.05 {
		t.Errorf("measured pulse %vHz, want %v +/- 0.05", got, DEFAULT_PULSE_FREQ)
	}
	if got := DetectCarrier(mono, SAMPLE_RATE); math.Abs(got-DEFAULT_CARRIER_FREQ) > 2 {
		t.Errorf("measured carrier %vHz, want %v +/- 2", got, DEFAULT_CARRIER_FREQ)
	}
}

func TestRealtimeAmplitude(t *testing.T) {
	engine := newOfflineRealtime(t, MODE_ISOCHRONIC)
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer engine.Stop()

	mono := MonoMix(drainStereo(engine, 1.0))
	var peak float64
	for _, s := range mono {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	if math.Abs(peak-TONE_AMPLITUDE) > 0.01 {
		t.Errorf("peak amplitude %v, want %v", peak, TONE_AMPLITUDE)
	}
}

func TestRealtimeParameterClamping(t *testing.T) {
	engine := newOfflineRealtime(t, MODE_ISOCHRONIC)
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer engine.Stop()

	// Way out of range: the render path must clamp, not glitch. With the
	// null backend the test goroutine is the render goroutine, so the
	// adopted snapshot can be inspected directly after a block boundary.
	engine.SetFrequency(5000)
	engine.SetCarrierFrequency(5)
	engine.SetDutyCycle(3)
	drainStereo(engine, float64(CONTROL_BLOCK_FRAMES+1)/SAMPLE_RATE)
	if got := engine.active.pulseFreq; got != PULSE_FREQ_MAX {
		t.Errorf("adopted pulse freq %v, want clamped to %v", got, PULSE_FREQ_MAX)
	}
	if got := engine.active.carrierFreq; got != CARRIER_FREQ_MIN {
		t.Errorf("adopted carrier freq %v, want clamped to %v", got, CARRIER_FREQ_MIN)
	}
	if got := engine.active.dutyCycle; got != DUTY_CYCLE_MAX {
		t.Errorf("adopted duty %v, want clamped to %v", got, DUTY_CYCLE_MAX)
	}

	// NaN must fall back to the last good value rather than poisoning the
	// phase accumulators.
	engine.SetFrequency(25)
	engine.SetCarrierFrequency(DEFAULT_CARRIER_FREQ)
	drainStereo(engine, 0.5)
	engine.SetCarrierFrequency(math.NaN())
	mono := MonoMix(drainStereo(engine, 2.0))
	if got := DetectCarrier(mono, SAMPLE_RATE); math.Abs(got-DEFAULT_CARRIER_FREQ) > 2 {
		t.Errorf("carrier after NaN request %vHz, want %v retained", got, DEFAULT_CARRIER_FREQ)
	}
	for _, s := range mono {
		if math.IsNaN(float64(s)) {
			t.Fatal("NaN sample escaped into the output")
		}
	}
}

func TestRealtimeSetFrequencyReanchors(t *testing.T) {
	engine := newOfflineRealtime(t, MODE_ISOCHRONIC)
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer engine.Stop()

	drainStereo(engine, 0.237) // Park mid-cycle somewhere awkward
	engine.SetFrequency(4)

	// The pulse cycle restarts at phase 0 on the next control block, so
	// the gate is open for the first 125ms of the new 4Hz cycle.
	head := MonoMix(drainStereo(engine, 0.1))
	var sum float64
	for _, s := range head[CONTROL_BLOCK_FRAMES:] {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(head)-CONTROL_BLOCK_FRAMES))
	if rms < 0.1 {
		t.Errorf("gate not open after re-anchor (rms %v)", rms)
	}

	mono := MonoMix(drainStereo(engine, 3.0))
	if got := DetectPulse(mono, SAMPLE_RATE); math.Abs(got-4) > 0.05 {
		t.Errorf("pulse after change %vHz, want 4 +/- 0.05", got)
	}
}

func TestRealtimePushFrequencyPhaseContinuous(t *testing.T) {
	engine := newOfflineRealtime(t, MODE_ISOCHRONIC)
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer engine.Stop()

	// Sweep sources re-push the target at tick cadence. An 8Hz cycle is
	// 125ms, longer than the 100ms tick: if a push restarted the cycle the
	// way SetFrequency does, no cycle would ever complete and the measured
	// rate would collapse to the tick rate instead of the target.
	engine.SetFrequency(8)
	var mono []float32
	for i := 0; i < 30; i++ {
		mono = append(mono, MonoMix(drainStereo(engine, 0.1))...)
		engine.PushFrequency(8)
	}
	if got := DetectPulse(mono, SAMPLE_RATE); math.Abs(got-8) > 0.05 {
		t.Errorf("pulse under tick-cadence pushes %vHz, want 8 +/- 0.05", got)
	}
}

func TestRealtimeParamsApplyOnBlockBoundary(t *testing.T) {
	engine := newOfflineRealtime(t, MODE_ISOCHRONIC)
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer engine.Stop()

	// Mid-block parameter swaps must not take effect until the boundary.
	buf := make([]float32, 0, CONTROL_BLOCK_FRAMES*2)
	for i := 0; i < CONTROL_BLOCK_FRAMES/2; i++ {
		l, _ := engine.ReadSample()
		buf = append(buf, l)
	}
	engine.SetCarrierFrequency(1000)
	ref := newOfflineRealtime(t, MODE_ISOCHRONIC)
	ref.Start()
	defer ref.Stop()
	refBuf := make([]float32, 0, CONTROL_BLOCK_FRAMES)
	for i := 0; i < CONTROL_BLOCK_FRAMES; i++ {
		l, _ := ref.ReadSample()
		refBuf = append(refBuf, l)
	}
	for i := CONTROL_BLOCK_FRAMES / 2; i < CONTROL_BLOCK_FRAMES; i++ {
		l, _ := engine.ReadSample()
		buf = append(buf, l)
	}
	for i, s := range buf {
		if s != refBuf[i] {
			t.Fatalf("sample %d diverged within the control block: %v vs %v", i, s, refBuf[i])
		}
	}
}

func TestRealtimeBinaural(t *testing.T) {
	engine := newOfflineRealtime(t, MODE_BINAURAL)
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer engine.Stop()

	buf := drainStereo(engine, 2.0)
	left, right := SplitChannels(buf)
	if got := DetectCarrier(left, SAMPLE_RATE); math.Abs(got-DEFAULT_CARRIER_FREQ) > 2 {
		t.Errorf("left carrier %vHz, want %v +/- 2", got, DEFAULT_CARRIER_FREQ)
	}
	want := DEFAULT_CARRIER_FREQ + DEFAULT_BEAT_FREQ
	if got := DetectCarrier(right, SAMPLE_RATE); math.Abs(got-want) > 2 {
		t.Errorf("right carrier %vHz, want %v +/- 2", got, want)
	}
	// Continuous tones: flat envelope, no amplitude pulsing to detect.
	if cv := EnvelopeCV(left, SAMPLE_RATE); cv > 0.05 {
		t.Errorf("left envelope CV %v, want < 0.05 (continuous tone)", cv)
	}
	if got := DetectPulse(left, SAMPLE_RATE); got != 0 {
		t.Errorf("false pulse %vHz detected on continuous left channel", got)
	}
}

func TestRealtimeStopIdempotent(t *testing.T) {
	engine := newOfflineRealtime(t, MODE_ISOCHRONIC)
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	engine.Stop()
	engine.Stop()
	if engine.Running() {
		t.Error("still running after stop")
	}
	l, r := engine.ReadSample()
	if l != 0 || r != 0 {
		t.Errorf("stopped engine produced (%v,%v), want silence", l, r)
	}
}

func TestRealtimeTimeRefTracksParams(t *testing.T) {
	engine := newOfflineRealtime(t, MODE_ISOCHRONIC)
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer engine.Stop()

	engine.SetFrequency(12)
	engine.SetDutyCycle(0.3)
	ref := engine.TimeRef()
	if ref.PulseFreq != 12 {
		t.Errorf("published pulse freq %v, want 12", ref.PulseFreq)
	}
	if ref.DutyCycle != 0.3 {
		t.Errorf("published duty %v, want 0.3", ref.DutyCycle)
	}
	if ref.Start.IsZero() {
		t.Error("published origin is zero time")
	}
}
