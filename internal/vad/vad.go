// Package vad finds the speech regions of a clip so that language detection
// only sees voiced audio.
//
// Two segmenters are available: a built-in energy detector, and Silero VAD
// via sherpa-onnx when a model file is configured. Both report raw speech
// spans; Pad and Collect turn them into the audio handed to the model.
package vad

import (
	"fmt"

	"github.com/chaz8081/langid/internal/audio"
)

const (
	// windowSize is the analysis window in samples (32 ms at 16 kHz).
	windowSize = 512
	// thresholdGap separates the speech-on and speech-off thresholds.
	thresholdGap = 0.15
)

// Options tunes speech segmentation.
type Options struct {
	Threshold    float64 // speech probability needed to open a segment
	MinSpeechMs  int     // shorter segments are dropped
	MaxSpeechS   float64 // longer segments are split
	SpeechPadMs  int     // padding added on each side of a segment
	MinSilenceMs int     // silence needed to close a segment
	ModelPath    string  // Silero ONNX model; empty selects the energy detector
}

// DefaultOptions mirrors the command line tuning defaults. It names no model
// file, so it selects the energy detector.
func DefaultOptions() Options {
	return Options{
		Threshold:    0.5,
		MinSpeechMs:  250,
		MaxSpeechS:   30,
		SpeechPadMs:  30,
		MinSilenceMs: 2000,
	}
}

// PadSamples returns SpeechPadMs in samples.
func (o Options) PadSamples() int {
	return msToSamples(o.SpeechPadMs)
}

// Span is a half-open range [Start, End) of sample indices.
type Span struct {
	Start int
	End   int
}

// Len returns the number of samples in the span.
func (s Span) Len() int { return s.End - s.Start }

// Segmenter reports the speech spans of mono 16 kHz samples.
type Segmenter interface {
	Segment(samples []float32) ([]Span, error)
	Close() error
}

// New returns the Silero segmenter when opts.ModelPath is set, otherwise the
// energy segmenter.
func New(opts Options) (Segmenter, error) {
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("vad: threshold must be within (0, 1], got %g", opts.Threshold)
	}
	if opts.ModelPath != "" {
		s, err := NewSilero(opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return NewEnergy(opts), nil
}

// Pad widens each span by padSamples on both sides without letting spans
// overlap: when the gap between neighbours is shorter than twice the
// padding, it is split evenly between them. Spans are clamped to [0, total).
// The input must be sorted and non-overlapping; it is not modified.
func Pad(spans []Span, padSamples, total int) []Span {
	out := make([]Span, len(spans))
	copy(out, spans)

	for i := range out {
		if i == 0 {
			out[i].Start = max(0, out[i].Start-padSamples)
		}
		if i == len(out)-1 {
			out[i].End = min(total, out[i].End+padSamples)
			continue
		}

		gap := out[i+1].Start - out[i].End
		if gap < 2*padSamples {
			out[i].End += gap / 2
			out[i+1].Start = max(0, out[i+1].Start-gap/2)
		} else {
			out[i].End = min(total, out[i].End+padSamples)
			out[i+1].Start = max(0, out[i+1].Start-padSamples)
		}
	}
	return out
}

// Collect concatenates the samples covered by spans.
func Collect(samples []float32, spans []Span) []float32 {
	n := 0
	for _, s := range spans {
		n += s.Len()
	}
	out := make([]float32, 0, n)
	for _, s := range spans {
		start := max(0, s.Start)
		end := min(len(samples), s.End)
		if start < end {
			out = append(out, samples[start:end]...)
		}
	}
	return out
}

// windows splits samples into consecutive chunks of size samples. The last
// chunk holds the remainder and may be shorter.
func windows(samples []float32, size int) [][]float32 {
	var out [][]float32
	for start := 0; start < len(samples); start += size {
		out = append(out, samples[start:min(start+size, len(samples))])
	}
	return out
}

func msToSamples(ms int) int {
	return ms * audio.SampleRate / 1000
}
