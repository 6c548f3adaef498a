// detection_test.go - Measurement oracle self-tests

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

/*
	The detection oracles are what the rest of the test suite trusts, so
	they get checked against synthetic signals with known ground truth
	before anything else leans on them.
*/

package main

import (
	"math"
	"testing"
)

// gatedSine builds an isochronic test signal with exact, known parameters.
func gatedSine(seconds, carrier, pulse, duty, amplitude float64) []float32 {
	n := int(seconds * SAMPLE_RATE)
	out := make([]float32, n)
	for i := range out {
		ts := float64(i) / SAMPLE_RATE
		if PulseIsOn(ts, 0, pulse, duty) {
			out[i] = float32(amplitude * math.Sin(2*math.Pi*carrier*ts))
		}
	}
	return out
}

func plainSine(seconds, freq, amplitude float64) []float32 {
	n := int(seconds * SAMPLE_RATE)
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/SAMPLE_RATE))
	}
	return out
}

func TestDetectPulseKnownSignals(t *testing.T) {
	cases := []struct {
		pulse float64
		duty  float64
	}{
		{1, 0.5},
		{4, 0.5},
		{10, 0.5},
		{10, 0.2},
		{10, 0.8},
		{40, 0.5},
	}
	for _, c := range cases {
		sig := gatedSine(3.0, 200, c.pulse, c.duty, 0.8)
		got := DetectPulse(sig, SAMPLE_RATE)
		tolerance := 0.05
		if c.pulse >= 40 {
			// 4ms envelope windows resolve a 25ms period more coarsely.
			tolerance = 0.5
		}
		if math.Abs(got-c.pulse) > tolerance {
			t.Errorf("pulse %vHz duty %v: measured %vHz", c.pulse, c.duty, got)
		}
	}
}

func TestDetectPulseRejectsContinuousTone(t *testing.T) {
	if got := DetectPulse(plainSine(2.0, 200, 0.8), SAMPLE_RATE); got != 0 {
		t.Errorf("continuous 200Hz tone measured as pulsing at %vHz", got)
	}
	// Silence is not pulsing either.
	if got := DetectPulse(make([]float32, 2*SAMPLE_RATE), SAMPLE_RATE); got != 0 {
		t.Errorf("silence measured as pulsing at %vHz", got)
	}
	// Nor is a buffer too short to hold a single envelope window.
	if got := DetectPulse(make([]float32, 10), SAMPLE_RATE); got != 0 {
		t.Errorf("10-sample buffer measured as pulsing at %vHz", got)
	}
}

func TestDetectPulseDetailIntervals(t *testing.T) {
	result := DetectPulseDetail(gatedSine(3.0, 200, 10, 0.5, 0.8), SAMPLE_RATE)
	if math.Abs(result.Frequency-10) > 0.05 {
		t.Fatalf("frequency %v, want 10", result.Frequency)
	}
	// ~29 intervals in 3s minus edge effects; a perfectly regular signal
	// must also measure as regular.
	if len(result.Periods) < 25 {
		t.Errorf("only %d intervals measured over 3s at 10Hz", len(result.Periods))
	}
	if result.StdDev > 0.002 {
		t.Errorf("interval spread %vs for a perfectly periodic signal", result.StdDev)
	}
}

func TestDetectCarrierKnownSignals(t *testing.T) {
	for _, freq := range []float64{100, 200, 440, 1000} {
		got := DetectCarrier(plainSine(1.0, freq, 0.8), SAMPLE_RATE)
		if math.Abs(got-freq) > 2 {
			t.Errorf("carrier %vHz measured as %vHz", freq, got)
		}
	}
}

func TestDetectCarrierOnGatedSignal(t *testing.T) {
	// The measurement must survive amplitude gating by picking an ON
	// stretch, not averaging across gate edges.
	got := DetectCarrier(gatedSine(2.0, 200, 10, 0.5, 0.8), SAMPLE_RATE)
	if math.Abs(got-200) > 2 {
		t.Errorf("gated carrier measured as %vHz, want 200", got)
	}
}

func TestDetectCarrierDegenerate(t *testing.T) {
	if got := DetectCarrier(make([]float32, SAMPLE_RATE), SAMPLE_RATE); got != 0 {
		t.Errorf("silence measured a carrier of %vHz", got)
	}
	if got := DetectCarrier(make([]float32, 4), SAMPLE_RATE); got != 0 {
		t.Errorf("4-sample buffer measured a carrier of %vHz", got)
	}
}

func TestEnvelopeCVSeparatesGatedFromContinuous(t *testing.T) {
	continuous := EnvelopeCV(plainSine(2.0, 200, 0.8), SAMPLE_RATE)
	if continuous > 0.05 {
		t.Errorf("continuous tone CV %v, want < 0.05", continuous)
	}
	gated := EnvelopeCV(gatedSine(2.0, 200, 10, 0.5, 0.8), SAMPLE_RATE)
	if gated < 0.5 {
		t.Errorf("gated tone CV %v, want well above the continuous band", gated)
	}
}

func TestMovingAverageEdges(t *testing.T) {
	in := []float64{1, 2, 3, 4, 5}
	out := movingAverage(in, 3)
	want := []float64{1.5, 2, 3, 4, 4.5}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
	// Degenerate kernels pass through.
	if got := movingAverage(in, 1); &got[0] != &in[0] {
		t.Error("single-tap kernel should pass the slice through")
	}
}
