package models

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWhisperFile(t *testing.T) {
	tests := []struct {
		size    string
		compute string
		want    string
	}{
		{"tiny", "int8", "ggml-tiny-q8_0.bin"},
		{"tiny", "int8_float16", "ggml-tiny-q8_0.bin"},
		{"tiny", "float16", "ggml-tiny.bin"},
		{"tiny", "float32", "ggml-tiny.bin"},
		{"base.en", "int8", "ggml-base.en-q8_0.bin"},
		{"large", "float16", "ggml-large-v3.bin"},
		{"large", "int8", "ggml-large-v3.bin"}, // no q8_0 upstream
		{"turbo", "int8", "ggml-large-v3-turbo-q8_0.bin"},
		{"large-v1", "int8", "ggml-large-v1.bin"},
	}

	for _, tt := range tests {
		t.Run(tt.size+"/"+tt.compute, func(t *testing.T) {
			got, err := WhisperFile(tt.size, tt.compute)
			if err != nil {
				t.Fatalf("WhisperFile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("WhisperFile(%q, %q) = %q, want %q", tt.size, tt.compute, got, tt.want)
			}
		})
	}
}

func TestWhisperFileUnknown(t *testing.T) {
	_, err := WhisperFile("gigantic", "int8")
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("WhisperFile(gigantic) error = %v, want ErrUnknownModel", err)
	}
}

func TestSizesSorted(t *testing.T) {
	sizes := Sizes()
	if len(sizes) != len(whisperSizes) {
		t.Fatalf("Sizes() returned %d names, want %d", len(sizes), len(whisperSizes))
	}
	for i := 1; i < len(sizes); i++ {
		if sizes[i-1] > sizes[i] {
			t.Errorf("Sizes() not sorted at %d: %q > %q", i, sizes[i-1], sizes[i])
		}
	}
}

func TestEnsureWhisperExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.bin")
	if err := os.WriteFile(path, []byte("model"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := EnsureWhisper(context.Background(), t.TempDir(), path, "int8", false, nil)
	if err != nil {
		t.Fatalf("EnsureWhisper() error = %v", err)
	}
	if got != path {
		t.Errorf("EnsureWhisper() = %q, want %q", got, path)
	}
}

func TestEnsureWhisperCached(t *testing.T) {
	dir := t.TempDir()
	cached := filepath.Join(dir, "ggml-tiny-q8_0.bin")
	if err := os.WriteFile(cached, []byte("model"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := EnsureWhisper(context.Background(), dir, "tiny", "int8", false, nil)
	if err != nil {
		t.Fatalf("EnsureWhisper() error = %v", err)
	}
	if got != cached {
		t.Errorf("EnsureWhisper() = %q, want %q", got, cached)
	}
}

func TestEnsureWhisperNoDownload(t *testing.T) {
	_, err := EnsureWhisper(context.Background(), t.TempDir(), "tiny", "int8", false, nil)
	if !errors.Is(err, ErrNotDownloaded) {
		t.Errorf("EnsureWhisper() error = %v, want ErrNotDownloaded", err)
	}
}

func TestEnsureWhisperDownloads(t *testing.T) {
	payload := bytes.Repeat([]byte("w"), 4096)
	var requested string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	old := baseURL
	baseURL = srv.URL + "/"
	defer func() { baseURL = old }()

	dir := filepath.Join(t.TempDir(), "nested", "models")
	var progress bytes.Buffer
	got, err := EnsureWhisper(context.Background(), dir, "base", "float16", true, &progress)
	if err != nil {
		t.Fatalf("EnsureWhisper() error = %v", err)
	}

	if requested != "/ggml-base.bin" {
		t.Errorf("requested %q, want /ggml-base.bin", requested)
	}
	if want := filepath.Join(dir, "ggml-base.bin"); got != want {
		t.Errorf("EnsureWhisper() = %q, want %q", got, want)
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("reading downloaded model: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Error("downloaded model content mismatch")
	}
	if _, err := os.Stat(got + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should be gone after download")
	}
	if !strings.Contains(progress.String(), "ggml-base.bin") {
		t.Errorf("progress output %q should mention the file", progress.String())
	}
}

func TestEnsureWhisperHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	old := baseURL
	baseURL = srv.URL + "/"
	defer func() { baseURL = old }()

	dir := t.TempDir()
	_, err := EnsureWhisper(context.Background(), dir, "tiny", "int8", true, nil)
	if err == nil {
		t.Fatal("EnsureWhisper() should fail on HTTP 404")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error %q should mention the status", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ggml-tiny-q8_0.bin")); !os.IsNotExist(err) {
		t.Error("no model file should be left behind")
	}
}

func TestEnsureSileroDownloadsOnce(t *testing.T) {
	payload := []byte("onnx")
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	old := sileroURL
	sileroURL = srv.URL + "/" + SileroFile
	defer func() { sileroURL = old }()

	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		got, err := EnsureSilero(context.Background(), dir, true, nil)
		if err != nil {
			t.Fatalf("EnsureSilero() error = %v", err)
		}
		if want := filepath.Join(dir, SileroFile); got != want {
			t.Errorf("EnsureSilero() = %q, want %q", got, want)
		}
	}
	if requests != 1 {
		t.Errorf("server saw %d requests, want 1 (second call should hit the cache)", requests)
	}
}

func TestEnsureSileroNoDownload(t *testing.T) {
	_, err := EnsureSilero(context.Background(), t.TempDir(), false, nil)
	if !errors.Is(err, ErrNotDownloaded) {
		t.Errorf("EnsureSilero() error = %v, want ErrNotDownloaded", err)
	}
}

func TestProgressWriter(t *testing.T) {
	var sink, out bytes.Buffer
	pw := &progressWriter{
		writer: &sink,
		out:    &out,
		total:  100,
		label:  "test",
	}

	n, err := pw.Write(make([]byte, 50))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 50 {
		t.Errorf("Write() n = %d, want 50", n)
	}
	if pw.written != 50 {
		t.Errorf("written = %d, want 50", pw.written)
	}
	if sink.Len() != 50 {
		t.Errorf("sink got %d bytes, want 50", sink.Len())
	}
	if !strings.Contains(out.String(), "50%") {
		t.Errorf("progress output %q should report 50%%", out.String())
	}
}
