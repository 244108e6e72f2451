// Package models resolves model sizes to files on disk and downloads
// whisper.cpp ggml models and the Silero VAD model on demand.
package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const defaultBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// SileroFile is the cached file name of the Silero VAD model.
const SileroFile = "silero_vad.onnx"

// Download locations, swapped out by tests.
var (
	baseURL   = defaultBaseURL
	sileroURL = "https://github.com/k2-fsa/sherpa-onnx/releases/download/asr-models/" + SileroFile
)

// ErrUnknownModel is returned for model names missing from the size table.
var ErrUnknownModel = errors.New("unknown model")

// ErrNotDownloaded is returned when a model is missing and downloads are off.
var ErrNotDownloaded = errors.New("model not downloaded")

// whisperSizes maps accepted model names to ggml base names.
var whisperSizes = map[string]string{
	"tiny":           "tiny",
	"tiny.en":        "tiny.en",
	"base":           "base",
	"base.en":        "base.en",
	"small":          "small",
	"small.en":       "small.en",
	"medium":         "medium",
	"medium.en":      "medium.en",
	"large-v1":       "large-v1",
	"large-v2":       "large-v2",
	"large-v3":       "large-v3",
	"large":          "large-v3",
	"large-v3-turbo": "large-v3-turbo",
	"turbo":          "large-v3-turbo",
}

// q8Published lists base names with a q8_0 quantized file upstream.
var q8Published = map[string]bool{
	"tiny":           true,
	"tiny.en":        true,
	"base":           true,
	"base.en":        true,
	"small":          true,
	"small.en":       true,
	"medium":         true,
	"medium.en":      true,
	"large-v2":       true,
	"large-v3-turbo": true,
}

// Sizes returns the accepted model names, sorted.
func Sizes() []string {
	names := make([]string, 0, len(whisperSizes))
	for name := range whisperSizes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Quantized reports whether computeType asks for 8-bit integer weights.
func Quantized(computeType string) bool {
	return strings.HasPrefix(computeType, "int8")
}

// WhisperFile returns the ggml file name for a model size and compute type.
// int8 compute types pick the q8_0 file when one is published.
func WhisperFile(size, computeType string) (string, error) {
	base, ok := whisperSizes[size]
	if !ok {
		return "", fmt.Errorf("%w %q; valid models: %s", ErrUnknownModel, size, strings.Join(Sizes(), ", "))
	}
	if Quantized(computeType) && q8Published[base] {
		return "ggml-" + base + "-q8_0.bin", nil
	}
	return "ggml-" + base + ".bin", nil
}

// WhisperURL returns the HuggingFace download URL for a model file.
func WhisperURL(file string) string {
	return baseURL + file
}

// EnsureWhisper returns a local path for the requested whisper model.
// model may be a path to an existing file, which is returned as is. Otherwise
// it is looked up in dir and downloaded there when missing and allowed.
// Download progress is written to progress.
func EnsureWhisper(ctx context.Context, dir, model, computeType string, allowDownload bool, progress io.Writer) (string, error) {
	if info, err := os.Stat(model); err == nil && !info.IsDir() {
		return model, nil
	}

	file, err := WhisperFile(model, computeType)
	if err != nil {
		return "", fmt.Errorf("models: %w", err)
	}

	destPath := filepath.Join(dir, file)
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		return destPath, nil
	}

	if !allowDownload {
		return "", fmt.Errorf("models: %w: %s not found in %s", ErrNotDownloaded, file, dir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("models: creating models dir: %w", err)
	}
	if err := download(ctx, WhisperURL(file), destPath, file, progress); err != nil {
		return "", fmt.Errorf("models: downloading %s: %w", file, err)
	}
	return destPath, nil
}

// EnsureSilero returns the path of the Silero VAD model in dir, downloading
// it when missing and allowed.
func EnsureSilero(ctx context.Context, dir string, allowDownload bool, progress io.Writer) (string, error) {
	destPath := filepath.Join(dir, SileroFile)
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		return destPath, nil
	}

	if !allowDownload {
		return "", fmt.Errorf("models: %w: %s not found in %s", ErrNotDownloaded, SileroFile, dir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("models: creating models dir: %w", err)
	}
	if err := download(ctx, sileroURL, destPath, SileroFile, progress); err != nil {
		return "", fmt.Errorf("models: downloading %s: %w", SileroFile, err)
	}
	return destPath, nil
}

// download fetches url into destPath through a temp file and an atomic rename.
func download(ctx context.Context, url, destPath, label string, progress io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	pw := &progressWriter{
		writer: f,
		out:    progress,
		total:  resp.ContentLength,
		label:  label,
	}

	_, err = io.Copy(pw, resp.Body)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing model file: %w", err)
	}
	pw.done()

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("moving model file: %w", err)
	}
	return nil
}

// progressWriter wraps an io.Writer and reports download progress.
type progressWriter struct {
	writer  io.Writer
	out     io.Writer
	total   int64
	written int64
	label   string
	lastPct int
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.written += int64(n)
	if pw.out == nil {
		return n, err
	}

	if pw.total > 0 {
		pct := int(pw.written * 100 / pw.total)
		if pct/10 > pw.lastPct/10 {
			fmt.Fprintf(pw.out, "\r  %s: %.1f MB / %.1f MB (%d%%)",
				pw.label,
				float64(pw.written)/(1024*1024),
				float64(pw.total)/(1024*1024),
				pct)
			pw.lastPct = pct
		}
	}
	return n, err
}

func (pw *progressWriter) done() {
	if pw.out != nil {
		fmt.Fprintf(pw.out, "\n  %s: downloaded %.1f MB\n", pw.label, float64(pw.written)/(1024*1024))
	}
}
