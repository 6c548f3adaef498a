// protocol_preset.go - YAML protocol preset files

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/EntrainmentEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// presetFile is the on-disk shape of a protocol preset.
type presetFile struct {
	Name   string        `yaml:"name"`
	Phases []presetPhase `yaml:"phases"`
}

type presetPhase struct {
	Name      string  `yaml:"name"`
	StartSec  float64 `yaml:"start_sec"`
	EndSec    float64 `yaml:"end_sec"`
	Shape     string  `yaml:"shape"`
	FreqStart float64 `yaml:"freq_start,omitempty"`
	FreqEnd   float64 `yaml:"freq_end,omitempty"`
	Center    float64 `yaml:"center,omitempty"`
	Amplitude float64 `yaml:"amplitude,omitempty"`
	Period    float64 `yaml:"period,omitempty"`
}

// LoadProtocolPreset reads a protocol phase table from a YAML file and
// validates it.
func LoadProtocolPreset(path string) ([]ProtocolPhase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset: %w", err)
	}
	var pf presetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse preset: %w", err)
	}

	phases := make([]ProtocolPhase, 0, len(pf.Phases))
	for _, pp := range pf.Phases {
		phases = append(phases, ProtocolPhase{
			Name:      pp.Name,
			StartSec:  pp.StartSec,
			EndSec:    pp.EndSec,
			Shape:     pp.Shape,
			FreqStart: pp.FreqStart,
			FreqEnd:   pp.FreqEnd,
			Center:    pp.Center,
			Amplitude: pp.Amplitude,
			Period:    pp.Period,
		})
	}
	if err := ValidateProtocol(phases); err != nil {
		return nil, fmt.Errorf("preset %q: %w", pf.Name, err)
	}
	return phases, nil
}

// SaveProtocolPreset writes a phase table as YAML, mainly so users can
// dump the default protocol and edit it.
func SaveProtocolPreset(path, name string, phases []ProtocolPhase) error {
	pf := presetFile{Name: name}
	for _, ph := range phases {
		if ph.Shape == SHAPE_CUSTOM {
			return fmt.Errorf("phase %q: script-defined phases cannot be saved as YAML", ph.Name)
		}
		pf.Phases = append(pf.Phases, presetPhase{
			Name:      ph.Name,
			StartSec:  ph.StartSec,
			EndSec:    ph.EndSec,
			Shape:     ph.Shape,
			FreqStart: ph.FreqStart,
			FreqEnd:   ph.FreqEnd,
			Center:    ph.Center,
			Amplitude: ph.Amplitude,
			Period:    ph.Period,
		})
	}
	data, err := yaml.Marshal(&pf)
	if err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
