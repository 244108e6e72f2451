package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every knob of a single detection run. It is filled once from
// defaults, an optional YAML file and the command line, and is read-only
// afterwards.
type Config struct {
	Input string `yaml:"-"`

	Backend           string  `yaml:"backend"` // "whisper" or "sherpa"
	Model             string  `yaml:"model"`   // size name or path to model file/dir
	Device            string  `yaml:"device"`
	ComputeType       string  `yaml:"compute_type"`
	NoSpeechThreshold float64 `yaml:"no_speech_threshold"`
	ModelsDir         string  `yaml:"models_dir"`
	Threads           int     `yaml:"threads"` // 0 = all CPUs
	NoDownload        bool    `yaml:"no_download"`

	VAD      VADConfig     `yaml:"vad"`
	Snippet  SnippetConfig `yaml:"snippet"`
	LogLevel string        `yaml:"log_level"`
}

// VADConfig holds voice activity detection settings.
type VADConfig struct {
	MinSpeechMs  int     `yaml:"min_speech_ms"`
	MaxSpeechS   float64 `yaml:"max_speech_s"`
	SpeechPadMs  int     `yaml:"speech_pad_ms"`
	MinSilenceMs int     `yaml:"min_silence_ms"`
	Threshold    float64 `yaml:"threshold"`
	ModelPath    string  `yaml:"model_path"` // VADSilero, VADEnergy or a Silero ONNX file
}

// VAD model selectors accepted in VADConfig.ModelPath besides a file path.
const (
	VADSilero = "silero" // cached Silero model, downloaded on first use
	VADEnergy = "energy" // built-in energy detector, no model file
)

// SnippetConfig controls two-pass detection on the head of the clip.
type SnippetConfig struct {
	Seconds       float64 `yaml:"seconds"`       // 0 = whole clip
	RetrySeconds  float64 `yaml:"retry_seconds"` // 0 = no second pass
	MinConfidence float64 `yaml:"min_confidence"`
}

var computeTypes = []string{
	"default", "auto",
	"int8", "int8_float32", "int8_float16", "int8_bfloat16",
	"int16", "float16", "bfloat16", "float32",
}

// DefaultModelsDir returns the directory model files are cached in.
func DefaultModelsDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "langid", "models")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "langid", "models")
	}
	return filepath.Join(home, ".cache", "langid", "models")
}

// Default returns a Config with the documented default values.
func Default() *Config {
	return &Config{
		Backend:           "whisper",
		Model:             "tiny",
		Device:            "cpu",
		ComputeType:       "int8",
		NoSpeechThreshold: 0.6,
		ModelsDir:         DefaultModelsDir(),
		VAD: VADConfig{
			MinSpeechMs:  250,
			MaxSpeechS:   30,
			SpeechPadMs:  30,
			MinSilenceMs: 2000,
			Threshold:    0.5,
			ModelPath:    VADSilero,
		},
		Snippet: SnippetConfig{
			MinConfidence: 0.7,
		},
		LogLevel: "warn",
	}
}

// Load reads and parses a YAML config file. Missing fields keep their
// defaults. A leading ~ in path fields is expanded to the home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ModelsDir = expandTilde(cfg.ModelsDir)
	cfg.VAD.ModelPath = expandTilde(cfg.VAD.ModelPath)
	cfg.Model = expandTilde(cfg.Model)

	return cfg, nil
}

// Validate checks the config for invalid values. It does not touch the
// filesystem.
func (c *Config) Validate() error {
	switch c.Backend {
	case "whisper", "sherpa":
	default:
		return fmt.Errorf("backend must be \"whisper\" or \"sherpa\", got %q", c.Backend)
	}

	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}

	switch c.Device {
	case "cpu", "cuda", "auto":
	default:
		return fmt.Errorf("device must be cpu, cuda, or auto, got %q", c.Device)
	}

	if !slices.Contains(computeTypes, c.ComputeType) {
		return fmt.Errorf("compute_type must be one of %s, got %q", strings.Join(computeTypes, ", "), c.ComputeType)
	}

	if c.Threads < 0 {
		return fmt.Errorf("threads must be >= 0, got %d", c.Threads)
	}

	if c.VAD.MinSpeechMs < 0 {
		return fmt.Errorf("vad_min_ms must be >= 0, got %d", c.VAD.MinSpeechMs)
	}
	if c.VAD.MaxSpeechS <= 0 {
		return fmt.Errorf("vad_max_s must be > 0, got %g", c.VAD.MaxSpeechS)
	}
	if c.VAD.SpeechPadMs < 0 {
		return fmt.Errorf("vad_pad_ms must be >= 0, got %d", c.VAD.SpeechPadMs)
	}
	if c.VAD.MinSilenceMs < 0 {
		return fmt.Errorf("vad.min_silence_ms must be >= 0, got %d", c.VAD.MinSilenceMs)
	}
	if c.VAD.ModelPath == "" {
		return fmt.Errorf("vad_model must be %q, %q or a file path", VADSilero, VADEnergy)
	}
	if c.VAD.Threshold <= 0 || c.VAD.Threshold > 1 {
		return fmt.Errorf("vad_threshold must be within (0, 1], got %g", c.VAD.Threshold)
	}

	if c.Snippet.Seconds < 0 {
		return fmt.Errorf("snippet_s must be >= 0, got %g", c.Snippet.Seconds)
	}
	if c.Snippet.RetrySeconds < 0 {
		return fmt.Errorf("retry_snippet_s must be >= 0, got %g", c.Snippet.RetrySeconds)
	}
	if c.Snippet.MinConfidence < 0 || c.Snippet.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be within [0, 1], got %g", c.Snippet.MinConfidence)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// ParseLogLevel converts a log level string to slog.Level.
// Unknown values fall back to info.
func ParseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
