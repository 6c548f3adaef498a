// detection.go - Pulse and carrier measurement oracles

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import "math"

const (
	ENVELOPE_WINDOW_SEC      = 0.004 // ~4ms RMS windows
	ENVELOPE_SMOOTH_TAPS     = 3     // Moving-average kernel width
	PULSE_CONTRAST_THRESHOLD = 0.5   // Min (max-min)/max envelope range
	CARRIER_SEGMENT_SEC      = 0.1   // Autocorrelation segment length
)

// DetectionResult carries a pulse measurement with its per-interval
// detail. Derived from raw samples on every call; never session state.
type DetectionResult struct {
	Frequency float64   // Measured pulse rate in Hz, 0 when no pulsing
	Periods   []float64 // Individual inter-edge intervals in seconds
	StdDev    float64   // Spread of those intervals
}

// rmsEnvelope reduces the signal to short-window RMS values: carrier
// ripple averages out inside a window while gate edges survive.
func rmsEnvelope(samples []float32, windowSize int) []float64 {
	if windowSize <= 0 || len(samples) < windowSize {
		return nil
	}
	env := make([]float64, 0, len(samples)/windowSize)
	for i := 0; i+windowSize <= len(samples); i += windowSize {
		var sum float64
		for _, s := range samples[i : i+windowSize] {
			sum += float64(s) * float64(s)
		}
		env = append(env, math.Sqrt(sum/float64(windowSize)))
	}
	return env
}

// movingAverage smooths with a centered kernel, suppressing residual
// ripple without shifting edge positions.
func movingAverage(values []float64, taps int) []float64 {
	if taps <= 1 || len(values) == 0 {
		return values
	}
	half := taps / 2
	out := make([]float64, len(values))
	for i := range values {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi >= len(values) {
			hi = len(values) - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// DetectPulseDetail measures the amplitude-gating rate of a signal.
// Returns a zero-frequency result when the envelope's dynamic range is
// below the contrast threshold - the test that binaural and other
// continuous tones register no false pulsing.
func DetectPulseDetail(samples []float32, sampleRate float64) DetectionResult {
	windowSize := int(sampleRate * ENVELOPE_WINDOW_SEC)
	env := movingAverage(rmsEnvelope(samples, windowSize), ENVELOPE_SMOOTH_TAPS)
	if len(env) < 4 {
		return DetectionResult{}
	}

	minE, maxE := env[0], env[0]
	for _, e := range env {
		if e < minE {
			minE = e
		}
		if e > maxE {
			maxE = e
		}
	}
	if maxE <= 0 || (maxE-minE)/maxE < PULSE_CONTRAST_THRESHOLD {
		return DetectionResult{} // Continuous tone: no pulsing detected
	}

	// Rising-edge crossings of the midpoint threshold, with linear
	// interpolation for sub-window precision.
	threshold := (minE + maxE) / 2
	windowSec := float64(windowSize) / sampleRate
	var edges []float64
	prev := env[0]
	for i := 1; i < len(env); i++ {
		cur := env[i]
		if prev <= threshold && cur > threshold {
			fraction := 0.0
			if cur != prev {
				fraction = (threshold - prev) / (cur - prev)
			}
			edges = append(edges, (float64(i-1)+fraction)*windowSec)
		}
		prev = cur
	}
	if len(edges) < 2 {
		return DetectionResult{}
	}

	periods := make([]float64, 0, len(edges)-1)
	for i := 1; i < len(edges); i++ {
		periods = append(periods, edges[i]-edges[i-1])
	}
	mean := (edges[len(edges)-1] - edges[0]) / float64(len(edges)-1)

	var variance float64
	for _, p := range periods {
		variance += (p - mean) * (p - mean)
	}
	variance /= float64(len(periods))

	return DetectionResult{
		Frequency: 1 / mean,
		Periods:   periods,
		StdDev:    math.Sqrt(variance),
	}
}

// DetectPulse returns the measured pulse rate in Hz, or 0 when the signal
// carries no amplitude gating.
func DetectPulse(samples []float32, sampleRate float64) float64 {
	return DetectPulseDetail(samples, sampleRate).Frequency
}

// DetectCarrier measures the carrier frequency by autocorrelating the
// highest-energy segment and refining the best lag with parabolic
// interpolation for sub-Hz accuracy. Returns 0 when no periodicity is
// found.
func DetectCarrier(samples []float32, sampleRate float64) float64 {
	segLen := int(sampleRate * CARRIER_SEGMENT_SEC)
	if segLen > len(samples) {
		segLen = len(samples)
	}
	if segLen < 8 {
		return 0
	}

	// Pick the highest-energy window so a gated signal is measured over
	// an ON stretch, not across a gate edge.
	windowSize := int(sampleRate * ENVELOPE_WINDOW_SEC)
	if windowSize < 1 {
		windowSize = 1
	}
	bestStart, bestEnergy := 0, -1.0
	for i := 0; i+segLen <= len(samples); i += windowSize {
		var energy float64
		for _, s := range samples[i : i+segLen] {
			energy += float64(s) * float64(s)
		}
		if energy > bestEnergy {
			bestEnergy = energy
			bestStart = i
		}
	}
	seg := samples[bestStart : bestStart+segLen]

	minLag := int(sampleRate / CARRIER_FREQ_MAX)
	if minLag < 2 {
		minLag = 2
	}
	maxLag := int(sampleRate / CARRIER_FREQ_MIN)
	if maxLag > segLen/2 {
		maxLag = segLen / 2
	}
	if maxLag <= minLag {
		return 0
	}

	corr := make([]float64, maxLag+2)
	var zeroLag float64
	for _, s := range seg {
		zeroLag += float64(s) * float64(s)
	}
	if zeroLag == 0 {
		return 0
	}
	bestLag, bestCorr := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var sum float64
		for i := 0; i < segLen-lag; i++ {
			sum += float64(seg[i]) * float64(seg[i+lag])
		}
		corr[lag] = sum / zeroLag
		if corr[lag] > bestCorr {
			bestCorr = corr[lag]
			bestLag = lag
		}
	}
	if bestLag == 0 || bestCorr <= 0 {
		return 0
	}

	// Parabolic sub-bin interpolation around the peak lag.
	lag := float64(bestLag)
	if bestLag > minLag && bestLag < maxLag {
		prev := corr[bestLag-1]
		curr := corr[bestLag]
		next := corr[bestLag+1]
		denom := prev - 2*curr + next
		if denom != 0 {
			lag += (prev - next) / (2 * denom)
		}
	}
	return sampleRate / lag
}

// EnvelopeCV returns the coefficient of variation of the RMS envelope: a
// continuous tone sits well under 0.05, a gated tone far above it.
func EnvelopeCV(samples []float32, sampleRate float64) float64 {
	env := rmsEnvelope(samples, int(sampleRate*ENVELOPE_WINDOW_SEC))
	if len(env) == 0 {
		return 0
	}
	var mean float64
	for _, e := range env {
		mean += e
	}
	mean /= float64(len(env))
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, e := range env {
		variance += (e - mean) * (e - mean)
	}
	variance /= float64(len(env))
	return math.Sqrt(variance) / mean
}
