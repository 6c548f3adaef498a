//go:build headless

package main

// Headless builds have no audio hardware; every backend resolves to the
// same stub so the engines and schedulers still run end to end.

func NewAudioOutput(backend int, sampleRate int, src SampleSource) (AudioOutput, error) {
	if backend == AUDIO_BACKEND_NONE {
		return NewNullOutput(), nil
	}
	return &OtoPlayer{sampleRate: sampleRate, src: src}, nil
}

type OtoPlayer struct {
	started    bool
	sampleRate int
	src        SampleSource
}

func NewOtoPlayer(sampleRate int, src SampleSource) (*OtoPlayer, error) {
	return &OtoPlayer{sampleRate: sampleRate, src: src}, nil
}

func (op *OtoPlayer) Start() error {
	op.started = true
	return nil
}

func (op *OtoPlayer) Stop() error {
	op.started = false
	return nil
}

func (op *OtoPlayer) Close() error {
	op.started = false
	return nil
}

func (op *OtoPlayer) IsStarted() bool {
	return op.started
}

func (op *OtoPlayer) SampleRate() int {
	return op.sampleRate
}
