//go:build !cgo

package langid

import "fmt"

// NewWhisperDetector is unavailable without cgo.
func NewWhisperDetector(opts Options) (Detector, error) {
	return nil, whisperAvailable()
}

func whisperAvailable() error {
	return fmt.Errorf("%w: whisper.cpp bindings not compiled in (cgo disabled)", ErrBackendUnavailable)
}
