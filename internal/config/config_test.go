package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Backend != "whisper" {
		t.Errorf("Backend = %q, want %q", cfg.Backend, "whisper")
	}
	if cfg.Model != "tiny" {
		t.Errorf("Model = %q, want %q", cfg.Model, "tiny")
	}
	if cfg.Device != "cpu" {
		t.Errorf("Device = %q, want %q", cfg.Device, "cpu")
	}
	if cfg.ComputeType != "int8" {
		t.Errorf("ComputeType = %q, want %q", cfg.ComputeType, "int8")
	}
	if cfg.NoSpeechThreshold != 0.6 {
		t.Errorf("NoSpeechThreshold = %g, want 0.6", cfg.NoSpeechThreshold)
	}
	if cfg.VAD.MinSpeechMs != 250 {
		t.Errorf("VAD.MinSpeechMs = %d, want 250", cfg.VAD.MinSpeechMs)
	}
	if cfg.VAD.MaxSpeechS != 30 {
		t.Errorf("VAD.MaxSpeechS = %g, want 30", cfg.VAD.MaxSpeechS)
	}
	if cfg.VAD.SpeechPadMs != 30 {
		t.Errorf("VAD.SpeechPadMs = %d, want 30", cfg.VAD.SpeechPadMs)
	}
	if cfg.VAD.ModelPath != VADSilero {
		t.Errorf("VAD.ModelPath = %q, want %q", cfg.VAD.ModelPath, VADSilero)
	}
	if cfg.Snippet.Seconds != 0 || cfg.Snippet.RetrySeconds != 0 {
		t.Errorf("Snippet = %+v, want both windows disabled", cfg.Snippet)
	}
	if cfg.ModelsDir == "" {
		t.Error("ModelsDir should not be empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v, want nil", err)
	}
}

func TestDefaultModelsDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	got := DefaultModelsDir()
	want := filepath.Join("/tmp/xdg-cache", "langid", "models")
	if got != want {
		t.Errorf("DefaultModelsDir() = %q, want %q", got, want)
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
backend: sherpa
model: small
device: cuda
compute_type: float16
no_speech_threshold: 0.4
threads: 2
vad:
  min_speech_ms: 100
  max_speech_s: 10
  speech_pad_ms: 50
  model_path: /opt/vad/silero_vad.onnx
snippet:
  seconds: 5
  retry_seconds: 8
  min_confidence: 0.75
log_level: debug
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend != "sherpa" {
		t.Errorf("Backend = %q, want %q", cfg.Backend, "sherpa")
	}
	if cfg.Model != "small" {
		t.Errorf("Model = %q, want %q", cfg.Model, "small")
	}
	if cfg.Device != "cuda" {
		t.Errorf("Device = %q, want %q", cfg.Device, "cuda")
	}
	if cfg.ComputeType != "float16" {
		t.Errorf("ComputeType = %q, want %q", cfg.ComputeType, "float16")
	}
	if cfg.NoSpeechThreshold != 0.4 {
		t.Errorf("NoSpeechThreshold = %g, want 0.4", cfg.NoSpeechThreshold)
	}
	if cfg.Threads != 2 {
		t.Errorf("Threads = %d, want 2", cfg.Threads)
	}
	if cfg.VAD.MinSpeechMs != 100 || cfg.VAD.MaxSpeechS != 10 || cfg.VAD.SpeechPadMs != 50 {
		t.Errorf("VAD = %+v", cfg.VAD)
	}
	if cfg.VAD.ModelPath != "/opt/vad/silero_vad.onnx" {
		t.Errorf("VAD.ModelPath = %q", cfg.VAD.ModelPath)
	}
	// Not set in the file, so the default survives.
	if cfg.VAD.MinSilenceMs != 2000 {
		t.Errorf("VAD.MinSilenceMs = %d, want 2000", cfg.VAD.MinSilenceMs)
	}
	if cfg.Snippet.Seconds != 5 || cfg.Snippet.RetrySeconds != 8 || cfg.Snippet.MinConfidence != 0.75 {
		t.Errorf("Snippet = %+v", cfg.Snippet)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	yamlContent := `
models_dir: ~/models
vad:
  model_path: ~/models/silero_vad.onnx
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := filepath.Join(home, "models"); cfg.ModelsDir != want {
		t.Errorf("ModelsDir = %q, want %q", cfg.ModelsDir, want)
	}
	if want := filepath.Join(home, "models", "silero_vad.onnx"); cfg.VAD.ModelPath != want {
		t.Errorf("VAD.ModelPath = %q, want %q", cfg.VAD.ModelPath, want)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() should return error for missing file")
	}
}

func TestLoadMalformed(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("vad: [not, a, map"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(cfgPath); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"sherpa backend", func(c *Config) { c.Backend = "sherpa" }, false},
		{"unknown backend", func(c *Config) { c.Backend = "vosk" }, true},
		{"empty model", func(c *Config) { c.Model = "" }, true},
		{"cuda device", func(c *Config) { c.Device = "cuda" }, false},
		{"unknown device", func(c *Config) { c.Device = "tpu" }, true},
		{"float16", func(c *Config) { c.ComputeType = "float16" }, false},
		{"int8_float16", func(c *Config) { c.ComputeType = "int8_float16" }, false},
		{"unknown compute type", func(c *Config) { c.ComputeType = "int4" }, true},
		{"no speech threshold is not range checked", func(c *Config) { c.NoSpeechThreshold = 1.5 }, false},
		{"negative threads", func(c *Config) { c.Threads = -1 }, true},
		{"negative vad min", func(c *Config) { c.VAD.MinSpeechMs = -1 }, true},
		{"zero vad max", func(c *Config) { c.VAD.MaxSpeechS = 0 }, true},
		{"negative vad pad", func(c *Config) { c.VAD.SpeechPadMs = -5 }, true},
		{"zero vad pad", func(c *Config) { c.VAD.SpeechPadMs = 0 }, false},
		{"zero vad threshold", func(c *Config) { c.VAD.Threshold = 0 }, true},
		{"empty vad model", func(c *Config) { c.VAD.ModelPath = "" }, true},
		{"energy vad", func(c *Config) { c.VAD.ModelPath = VADEnergy }, false},
		{"negative snippet", func(c *Config) { c.Snippet.Seconds = -1 }, true},
		{"negative retry", func(c *Config) { c.Snippet.RetrySeconds = -1 }, true},
		{"min confidence above one", func(c *Config) { c.Snippet.MinConfidence = 2 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
