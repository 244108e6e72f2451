//go:build !cgo

package langid

import "fmt"

// NewSherpaDetector is unavailable without cgo.
func NewSherpaDetector(opts Options) (Detector, error) {
	return nil, sherpaAvailable()
}

func sherpaAvailable() error {
	return fmt.Errorf("%w: sherpa-onnx not compiled in (cgo disabled)", ErrBackendUnavailable)
}
