// Package langid identifies the spoken language of an audio clip.
//
// Supported backends:
//   - whisper: whisper.cpp language auto-detection via Go bindings (default)
//   - sherpa: sherpa-onnx spoken language identification (no confidence)
package langid

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrBackendUnavailable is returned when the binary was built without the
// requested backend.
var ErrBackendUnavailable = errors.New("langid: backend unavailable")

// Detector identifies the language of mono 16 kHz float32 samples.
type Detector interface {
	// Detect returns the most likely language of samples.
	Detect(samples []float32) (Result, error)
	// Close releases backend resources.
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend string
	// ModelPath is the ggml file for whisper.
	ModelPath string
	// Encoder and Decoder are the ONNX files for sherpa.
	Encoder string
	Decoder string
	Device  string
	Threads int // 0 = all CPUs
}

func (o Options) threads() int {
	if o.Threads > 0 {
		return o.Threads
	}
	return runtime.NumCPU()
}

// Available reports whether backend was compiled into this binary.
func Available(backend string) error {
	switch backend {
	case "whisper", "":
		return whisperAvailable()
	case "sherpa":
		return sherpaAvailable()
	default:
		return fmt.Errorf("langid: unknown backend %q (supported: whisper, sherpa)", backend)
	}
}

// New creates a Detector for opts.Backend.
func New(opts Options) (Detector, error) {
	switch opts.Backend {
	case "sherpa":
		d, err := NewSherpaDetector(opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	case "whisper", "":
		d, err := NewWhisperDetector(opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("langid: unknown backend %q (supported: whisper, sherpa)", opts.Backend)
	}
}
