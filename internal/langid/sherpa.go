//go:build cgo

package langid

import (
	"fmt"
	"os"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/chaz8081/langid/internal/audio"
)

// SherpaDetector identifies languages with sherpa-onnx's whisper-based
// spoken language identification. It reports no confidence.
type SherpaDetector struct {
	slid *sherpa.SpokenLanguageIdentification
}

// NewSherpaDetector loads the whisper encoder/decoder ONNX pair.
func NewSherpaDetector(opts Options) (*SherpaDetector, error) {
	for _, path := range []string{opts.Encoder, opts.Decoder} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("langid: sherpa model: %w", err)
		}
	}

	config := sherpa.SpokenLanguageIdentificationConfig{}
	config.Whisper.Encoder = opts.Encoder
	config.Whisper.Decoder = opts.Decoder
	config.NumThreads = opts.threads()
	config.Provider = onnxProvider(opts.Device)
	config.Debug = 0

	slid := sherpa.NewSpokenLanguageIdentification(&config)
	if slid == nil {
		return nil, fmt.Errorf("langid: failed to create sherpa language identifier")
	}
	return &SherpaDetector{slid: slid}, nil
}

// Close releases the sherpa resources.
func (d *SherpaDetector) Close() error {
	if d.slid != nil {
		sherpa.DeleteSpokenLanguageIdentification(d.slid)
		d.slid = nil
	}
	return nil
}

// Detect implements Detector.
func (d *SherpaDetector) Detect(samples []float32) (Result, error) {
	if d.slid == nil {
		return Result{}, fmt.Errorf("langid: sherpa language identifier is closed")
	}
	if len(samples) == 0 {
		return Result{}, nil
	}

	stream := d.slid.CreateStream()
	if stream == nil {
		return Result{}, fmt.Errorf("langid: failed to create sherpa stream")
	}
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(audio.SampleRate, samples)
	res := d.slid.Compute(stream)
	if res == nil || res.Lang == "" {
		return Result{}, nil
	}
	return LanguageOnly(res.Lang), nil
}

// onnxProvider maps a device name to an onnxruntime execution provider.
func onnxProvider(device string) string {
	if device == "cuda" {
		return "cuda"
	}
	return "cpu"
}

func sherpaAvailable() error { return nil }
