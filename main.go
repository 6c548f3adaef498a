// main.go - Entrainment Engine CLI

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const Version = "v1.2.0"

func boilerPlate() {
	fmt.Println("Entrainment Engine " + Version)
	fmt.Println("Isochronic tones, binaural beats and synchronized visual flicker.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/EntrainmentEngine")
	fmt.Println("License: GPLv3 or later")
	fmt.Println()
}

func main() {
	var (
		mode     string
		engine   string
		pulse    float64
		carrier  float64
		duty     float64
		visuals  bool
		duration float64
		wavPath  string
		preset   string
		script   string
		savePath string
		verify   bool
	)

	flag.StringVar(&mode, "mode", "isochronic", "isochronic, binaural or protocol")
	flag.StringVar(&engine, "engine", "auto", "auto, realtime or scheduled")
	flag.Float64Var(&pulse, "pulse", DEFAULT_PULSE_FREQ, "pulse/beat frequency in Hz")
	flag.Float64Var(&carrier, "carrier", DEFAULT_CARRIER_FREQ, "carrier frequency in Hz")
	flag.Float64Var(&duty, "duty", DEFAULT_DUTY_CYCLE, "duty cycle fraction")
	flag.BoolVar(&visuals, "visuals", false, "open the flicker window")
	flag.Float64Var(&duration, "duration", 0, "render duration in seconds (offline modes)")
	flag.StringVar(&wavPath, "wav", "", "render offline to a WAV file instead of playing")
	flag.StringVar(&preset, "preset", "", "protocol preset YAML file")
	flag.StringVar(&script, "script", "", "protocol Lua script")
	flag.StringVar(&savePath, "save-preset", "", "write the default protocol preset to this path and exit")
	flag.BoolVar(&verify, "verify", false, "render short test buffers and report measured output")
	flag.Parse()

	boilerPlate()

	if savePath != "" {
		if err := SaveProtocolPreset(savePath, "default", DefaultProtocol()); err != nil {
			fmt.Fprintf(os.Stderr, "save preset: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default protocol written to %s\n", savePath)
		return
	}

	cfg := SessionConfig{
		Mode:        MODE_ISOCHRONIC,
		Engine:      ENGINE_AUTO,
		Backend:     AUDIO_BACKEND_OTO,
		CarrierFreq: carrier,
		PulseFreq:   pulse,
		DutyCycle:   duty,
		Visuals:     visuals,
	}
	switch mode {
	case "isochronic", "protocol":
	case "binaural":
		cfg.Mode = MODE_BINAURAL
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", mode)
		os.Exit(1)
	}
	switch engine {
	case "auto":
	case "realtime":
		cfg.Engine = ENGINE_REALTIME
	case "scheduled":
		cfg.Engine = ENGINE_SCHEDULED
	default:
		fmt.Fprintf(os.Stderr, "unknown engine %q\n", engine)
		os.Exit(1)
	}

	if verify {
		if err := runVerify(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "verify: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if wavPath != "" {
		if duration <= 0 {
			duration = 60
		}
		cfg.Visuals = false
		fmt.Printf("Rendering %.0fs to %s...\n", duration, wavPath)
		samples, err := RenderOffline(cfg, duration)
		if err != nil {
			fmt.Fprintf(os.Stderr, "render: %v\n", err)
			os.Exit(1)
		}
		if err := WriteWAV(wavPath, samples, SAMPLE_RATE); err != nil {
			fmt.Fprintf(os.Stderr, "write: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Done.")
		return
	}

	session, err := NewSession(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "session: %v\n", err)
		os.Exit(1)
	}
	if err := session.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		os.Exit(1)
	}
	defer session.Stop()

	st := session.Status()
	fmt.Printf("Playing (%s path). Keys: +/- pulse, [/] duty, q quit.\n", st.Path)

	protocolDone := make(chan struct{})
	if mode == "protocol" {
		phases, scriptHandle, err := loadProtocol(preset, script)
		if err != nil {
			fmt.Fprintf(os.Stderr, "protocol: %v\n", err)
			os.Exit(1)
		}
		if scriptHandle != nil {
			defer scriptHandle.Close()
		}
		observer := func(elapsed float64, phase string, freq float64) {
			fmt.Printf("\r%7.1fs  %-12s %6.2fHz   ", elapsed, phase, freq)
		}
		err = session.RunProtocol(phases, observer, func() {
			fmt.Println("\nProtocol complete.")
			close(protocolDone)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "protocol: %v\n", err)
			os.Exit(1)
		}
	}

	control := NewTerminalControl(session)
	control.Start()
	defer control.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
	case <-control.Quit():
	case <-session.VisualDone():
	case <-protocolDoneIf(mode == "protocol", protocolDone):
	}
	fmt.Println("\nStopping.")
}

// protocolDoneIf returns the channel only when a protocol is running;
// otherwise a nil channel, which never selects.
func protocolDoneIf(active bool, ch chan struct{}) <-chan struct{} {
	if active {
		return ch
	}
	return nil
}

func loadProtocol(preset, script string) ([]ProtocolPhase, *ProtocolScript, error) {
	switch {
	case preset != "" && script != "":
		return nil, nil, fmt.Errorf("use either -preset or -script, not both")
	case preset != "":
		phases, err := LoadProtocolPreset(preset)
		return phases, nil, err
	case script != "":
		ps, err := LoadProtocolScript(script)
		if err != nil {
			return nil, nil, err
		}
		return ps.Phases, ps, nil
	default:
		return DefaultProtocol(), nil, nil
	}
}

// runVerify renders short sessions through both generation paths and
// reports what the detection oracles measure - a quick self-test that the
// installed build produces what it claims.
func runVerify(cfg SessionConfig) error {
	const testDuration = 5.0

	fmt.Printf("Requested: carrier %.1fHz, pulse %.2fHz, duty %.2f\n\n",
		cfg.CarrierFreq, cfg.PulseFreq, cfg.DutyCycle)

	for _, kind := range []int{ENGINE_REALTIME, ENGINE_SCHEDULED} {
		c := cfg
		c.Engine = kind
		samples, err := RenderOffline(c, testDuration)
		if err != nil {
			return err
		}
		name := "realtime "
		if kind == ENGINE_SCHEDULED {
			name = "scheduled"
		}
		if cfg.Mode == MODE_BINAURAL {
			left, right := SplitChannels(samples)
			fmt.Printf("%s  left %.1fHz  right %.1fHz  envelope CV %.3f  pulse %.2fHz\n",
				name,
				DetectCarrier(left, SAMPLE_RATE),
				DetectCarrier(right, SAMPLE_RATE),
				EnvelopeCV(MonoMix(samples), SAMPLE_RATE),
				DetectPulse(MonoMix(samples), SAMPLE_RATE))
			continue
		}
		mono := MonoMix(samples)
		result := DetectPulseDetail(mono, SAMPLE_RATE)
		fmt.Printf("%s  carrier %.1fHz  pulse %.2fHz (stddev %.4fs over %d intervals)\n",
			name,
			DetectCarrier(mono, SAMPLE_RATE),
			result.Frequency, result.StdDev, len(result.Periods))
	}
	return nil
}
