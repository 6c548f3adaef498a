// engine_equivalence_test.go - Cross-path output equivalence tests

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

/*
	Both generation strategies must be interchangeable to the listener: same
	pulse rate, same carrier, same loudness, same behavior across parameter
	changes. These tests render the same session through each path and
	compare what the measurement oracles report, rather than comparing
	waveforms sample-for-sample - the paths are allowed to differ in how
	they gate, not in what they produce.
*/

package main

import (
	"math"
	"testing"
)

func renderBoth(t *testing.T, cfg SessionConfig, duration float64) (realtime, scheduled []float32) {
	t.Helper()
	rt := cfg
	rt.Engine = ENGINE_REALTIME
	buf, err := RenderOffline(rt, duration)
	if err != nil {
		t.Fatalf("realtime render: %v", err)
	}
	realtime = buf

	sc := cfg
	sc.Engine = ENGINE_SCHEDULED
	buf, err = RenderOffline(sc, duration)
	if err != nil {
		t.Fatalf("scheduled render: %v", err)
	}
	scheduled = buf
	return realtime, scheduled
}

func rmsOf(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func TestEnginesAgreeOnIsochronicOutput(t *testing.T) {
	cfg := SessionConfig{
		Mode:        MODE_ISOCHRONIC,
		Backend:     AUDIO_BACKEND_NONE,
		CarrierFreq: 200,
		PulseFreq:   10,
		DutyCycle:   0.5,
	}
	realtime, scheduled := renderBoth(t, cfg, 3.0)

	for _, path := range []struct {
		name string
		buf  []float32
	}{
		{"realtime", realtime},
		{"scheduled", scheduled},
	} {
		mono := MonoMix(path.buf)
		if got := DetectPulse(mono, SAMPLE_RATE); math.Abs(got-10) > 0.05 {
			t.Errorf("%s pulse %vHz, want 10 +/- 0.05", path.name, got)
		}
		if got := DetectCarrier(mono, SAMPLE_RATE); math.Abs(got-200) > 2 {
			t.Errorf("%s carrier %vHz, want 200 +/- 2", path.name, got)
		}
	}

	// Loudness parity: same carrier, same duty, same amplitude constant.
	rtRMS := rmsOf(MonoMix(realtime))
	scRMS := rmsOf(MonoMix(scheduled))
	if rtRMS == 0 || math.Abs(rtRMS-scRMS)/rtRMS > 0.2 {
		t.Errorf("RMS mismatch: realtime %v vs scheduled %v", rtRMS, scRMS)
	}
}

func TestEnginesAgreeOnBinauralOutput(t *testing.T) {
	cfg := SessionConfig{
		Mode:        MODE_BINAURAL,
		Backend:     AUDIO_BACKEND_NONE,
		CarrierFreq: 250,
		PulseFreq:   7,
		DutyCycle:   0.5,
	}
	realtime, scheduled := renderBoth(t, cfg, 2.0)

	for _, path := range []struct {
		name string
		buf  []float32
	}{
		{"realtime", realtime},
		{"scheduled", scheduled},
	} {
		left, right := SplitChannels(path.buf)
		if got := DetectCarrier(left, SAMPLE_RATE); math.Abs(got-250) > 2 {
			t.Errorf("%s left carrier %vHz, want 250 +/- 2", path.name, got)
		}
		if got := DetectCarrier(right, SAMPLE_RATE); math.Abs(got-257) > 2 {
			t.Errorf("%s right carrier %vHz, want 257 +/- 2", path.name, got)
		}
		if got := DetectPulse(left, SAMPLE_RATE); got != 0 {
			t.Errorf("%s continuous tone registered pulsing at %vHz", path.name, got)
		}
	}
}

func TestEnginesAgreeAcrossDutyCycles(t *testing.T) {
	for _, duty := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
		cfg := SessionConfig{
			Mode:        MODE_ISOCHRONIC,
			Backend:     AUDIO_BACKEND_NONE,
			CarrierFreq: 200,
			PulseFreq:   10,
			DutyCycle:   duty,
		}
		realtime, scheduled := renderBoth(t, cfg, 2.0)
		rtRMS := rmsOf(MonoMix(realtime))
		scRMS := rmsOf(MonoMix(scheduled))
		if rtRMS == 0 || math.Abs(rtRMS-scRMS)/rtRMS > 0.2 {
			t.Errorf("duty %v: RMS mismatch realtime %v vs scheduled %v", duty, rtRMS, scRMS)
		}
	}
}

// TestLongSessionNoDrift renders a long isochronic session through each
// path and compares the measured pulse rate at the start against the end:
// the multiplicative pulse grid must hold frequency over the full hour.
func TestLongSessionNoDrift(t *testing.T) {
	if testing.Short() {
		t.Skip("long render; skipped with -short")
	}
	cfg := SessionConfig{
		Mode:        MODE_ISOCHRONIC,
		Backend:     AUDIO_BACKEND_NONE,
		CarrierFreq: 200,
		PulseFreq:   10,
		DutyCycle:   0.5,
	}
	const duration = 3600.0
	const windowSec = 10.0
	window := int(windowSec * SAMPLE_RATE)

	for _, kind := range []struct {
		name   string
		engine int
	}{
		{"realtime", ENGINE_REALTIME},
		{"scheduled", ENGINE_SCHEDULED},
	} {
		c := cfg
		c.Engine = kind.engine
		buf, err := RenderOffline(c, duration)
		if err != nil {
			t.Fatalf("%s render: %v", kind.name, err)
		}
		mono := MonoMix(buf)
		head := DetectPulse(mono[:window], SAMPLE_RATE)
		tail := DetectPulse(mono[len(mono)-window:], SAMPLE_RATE)
		if math.Abs(head-tail) > 0.001 {
			t.Errorf("%s drifted: first %vs measure %vHz, last %vs measure %vHz",
				kind.name, windowSec, head, windowSec, tail)
		}
		t.Logf("%s over %vs: head %vHz, tail %vHz", kind.name, duration, head, tail)
	}
}
