// wav_export.go - WAV export of offline renders

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// bufferStreamer adapts an interleaved stereo float32 buffer to a
// beep.Streamer, so encoding reuses beep's WAV writer.
type bufferStreamer struct {
	samples []float32
	pos     int
}

func (bs *bufferStreamer) Stream(out [][2]float64) (n int, ok bool) {
	for n < len(out) && bs.pos*2 < len(bs.samples) {
		out[n][0] = float64(bs.samples[bs.pos*2])
		out[n][1] = float64(bs.samples[bs.pos*2+1])
		bs.pos++
		n++
	}
	return n, n > 0
}

func (bs *bufferStreamer) Err() error {
	return nil
}

// WriteWAV writes an interleaved stereo buffer as a 16-bit WAV file.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 2,
		Precision:   2,
	}
	if err := wav.Encode(f, &bufferStreamer{samples: samples}, format); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
