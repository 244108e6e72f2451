//go:build !cgo

package vad

import "errors"

// NewSilero is unavailable without cgo.
func NewSilero(opts Options) (Segmenter, error) {
	return nil, errors.New("vad: silero support not compiled in (cgo disabled)")
}
