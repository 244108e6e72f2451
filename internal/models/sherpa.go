package models

import (
	"fmt"
	"os"
	"path/filepath"
)

// SherpaFiles locates the whisper encoder/decoder pair used by sherpa-onnx
// spoken language identification.
type SherpaFiles struct {
	Encoder string
	Decoder string
}

// SherpaLID resolves a sherpa-onnx whisper model. model is either a directory
// holding the ONNX files or a size name looked up as
// <dir>/sherpa-onnx-whisper-<size>/. int8 compute types prefer the .int8.onnx
// files when present. sherpa-onnx models are not downloaded automatically.
func SherpaLID(dir, model, computeType string) (SherpaFiles, error) {
	modelDir := model
	if info, err := os.Stat(model); err != nil || !info.IsDir() {
		modelDir = filepath.Join(dir, "sherpa-onnx-whisper-"+model)
	}

	encoder, err := findONNX(modelDir, "encoder", computeType)
	if err != nil {
		return SherpaFiles{}, err
	}
	decoder, err := findONNX(modelDir, "decoder", computeType)
	if err != nil {
		return SherpaFiles{}, err
	}
	return SherpaFiles{Encoder: encoder, Decoder: decoder}, nil
}

func findONNX(dir, part, computeType string) (string, error) {
	plain, err := filepath.Glob(filepath.Join(dir, "*-"+part+".onnx"))
	if err != nil {
		return "", fmt.Errorf("models: %w", err)
	}
	quant, err := filepath.Glob(filepath.Join(dir, "*-"+part+".int8.onnx"))
	if err != nil {
		return "", fmt.Errorf("models: %w", err)
	}

	order := [][]string{plain, quant}
	if Quantized(computeType) {
		order = [][]string{quant, plain}
	}
	for _, matches := range order {
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", fmt.Errorf("models: no sherpa-onnx whisper %s found in %s", part, dir)
}
