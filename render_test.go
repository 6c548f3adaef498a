// render_test.go - Offline rendering and WAV export tests

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestRenderOfflineDeterministic(t *testing.T) {
	cfg := testConfig()
	a, err := RenderOffline(cfg, 1.0)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	b, err := RenderOffline(cfg, 1.0)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(a) != 2*SAMPLE_RATE {
		t.Fatalf("rendered %d samples, want %d", len(a), 2*SAMPLE_RATE)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("renders diverge at sample %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestRenderOfflineSchedulesWholeDuration(t *testing.T) {
	// Past the realtime lookahead horizon the batch path must still be
	// gating: the last second of a long render carries pulses.
	cfg := testConfig()
	cfg.Engine = ENGINE_SCHEDULED
	buf, err := RenderOffline(cfg, 10.0)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	mono := MonoMix(buf)
	tail := mono[len(mono)-SAMPLE_RATE:]
	if got := DetectPulse(tail, SAMPLE_RATE); got == 0 {
		t.Error("no pulsing in the final second of a 10s batch render")
	}
}

func TestRenderOfflineRejectsBadInput(t *testing.T) {
	cfg := testConfig()
	if _, err := RenderOffline(cfg, 0); err == nil {
		t.Error("zero duration accepted")
	}
	if _, err := RenderOffline(cfg, -1); err == nil {
		t.Error("negative duration accepted")
	}
	cfg.PulseFreq = 1000
	if _, err := RenderOffline(cfg, 1); err == nil {
		t.Error("out-of-range config accepted")
	}
}

func TestMonoMixAndSplit(t *testing.T) {
	stereo := []float32{1, 0, 0, 1, 0.5, 0.5}
	mono := MonoMix(stereo)
	want := []float32{0.5, 0.5, 0.5}
	if len(mono) != len(want) {
		t.Fatalf("mono length %d, want %d", len(mono), len(want))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("mono[%d] = %v, want %v", i, mono[i], want[i])
		}
	}
	left, right := SplitChannels(stereo)
	if left[0] != 1 || left[1] != 0 || left[2] != 0.5 {
		t.Errorf("left = %v", left)
	}
	if right[0] != 0 || right[1] != 1 || right[2] != 0.5 {
		t.Errorf("right = %v", right)
	}
}

func TestWriteWAV(t *testing.T) {
	cfg := testConfig()
	samples, err := RenderOffline(cfg, 0.5)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := WriteWAV(path, samples, SAMPLE_RATE); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Contains(data[:16], []byte("WAVE")) {
		t.Error("output is not a RIFF/WAVE file")
	}
	// 0.5s of 16-bit stereo plus headers.
	if want := SAMPLE_RATE / 2 * 4; len(data) < want {
		t.Errorf("file is %d bytes, want at least %d of sample data", len(data), want)
	}
}
