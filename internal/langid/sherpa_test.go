//go:build cgo

package langid

import "testing"

func TestNewSherpaDetectorMissingModel(t *testing.T) {
	_, err := NewSherpaDetector(Options{Encoder: "/nonexistent/encoder.onnx", Decoder: "/nonexistent/decoder.onnx"})
	if err == nil {
		t.Fatal("NewSherpaDetector with missing files should return error")
	}
}

func TestOnnxProvider(t *testing.T) {
	tests := map[string]string{"cuda": "cuda", "cpu": "cpu", "auto": "cpu"}
	for in, want := range tests {
		if got := onnxProvider(in); got != want {
			t.Errorf("onnxProvider(%q) = %q, want %q", in, got, want)
		}
	}
}
