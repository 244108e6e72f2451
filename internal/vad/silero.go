//go:build cgo

package vad

import (
	"fmt"
	"os"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/chaz8081/langid/internal/audio"
)

// Silero is a Segmenter backed by the Silero VAD ONNX model through
// sherpa-onnx.
type Silero struct {
	config sherpa.VadModelConfig
}

// NewSilero validates the model path and prepares the detector config.
// The detector itself is created per clip, sized to the clip's length.
func NewSilero(opts Options) (*Silero, error) {
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("vad: silero model %q: %w", opts.ModelPath, err)
	}

	config := sherpa.VadModelConfig{}
	config.SileroVad.Model = opts.ModelPath
	config.SileroVad.Threshold = float32(opts.Threshold)
	config.SileroVad.MinSilenceDuration = float32(opts.MinSilenceMs) / 1000
	config.SileroVad.MinSpeechDuration = float32(opts.MinSpeechMs) / 1000
	config.SileroVad.MaxSpeechDuration = float32(opts.MaxSpeechS)
	config.SileroVad.WindowSize = windowSize
	config.SampleRate = audio.SampleRate
	config.NumThreads = 1
	config.Provider = "cpu"
	config.Debug = 0

	return &Silero{config: config}, nil
}

// Segment implements Segmenter.
func (s *Silero) Segment(samples []float32) ([]Span, error) {
	bufferSeconds := float32(len(samples))/audio.SampleRate + 1
	detector := sherpa.NewVoiceActivityDetector(&s.config, bufferSeconds)
	if detector == nil {
		return nil, fmt.Errorf("vad: failed to create silero detector")
	}
	defer sherpa.DeleteVoiceActivityDetector(detector)

	var spans []Span
	drain := func() {
		for !detector.IsEmpty() {
			seg := detector.Front()
			detector.Pop()
			spans = append(spans, Span{Start: seg.Start, End: seg.Start + len(seg.Samples)})
		}
	}

	for _, w := range windows(samples, windowSize) {
		detector.AcceptWaveform(w)
		drain()
	}
	detector.Flush()
	drain()

	return spans, nil
}

// Close implements Segmenter.
func (s *Silero) Close() error { return nil }
