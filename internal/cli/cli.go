// Package cli implements the langid command line: flag and config handling,
// the detection run, and the record and models subcommands. Every command
// prints exactly one JSON document per result on stdout; logs go to stderr.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/chaz8081/langid/internal/audio"
	"github.com/chaz8081/langid/internal/config"
	"github.com/chaz8081/langid/internal/hotkey"
	"github.com/chaz8081/langid/internal/langid"
	"github.com/chaz8081/langid/internal/models"
	"github.com/chaz8081/langid/internal/vad"
)

// deps are the side-effecting pieces of a run, swapped out in tests.
type deps struct {
	available    func(backend string) error
	newDetector  func(ctx context.Context, cfg *config.Config, progress io.Writer) (langid.Detector, error)
	newSegmenter func(opts vad.Options) (vad.Segmenter, error)
	ensureSilero func(ctx context.Context, dir string, allowDownload bool, progress io.Writer) (string, error)
	decode       func(path string) (*audio.Clip, error)
	record       func(ctx context.Context, stop <-chan struct{}, limit time.Duration) (*audio.Clip, error)
	hotkeys      func(keys []string, mode hotkey.Mode) (hotkeyListener, error)
}

func defaultDeps() deps {
	return deps{
		available:    langid.Available,
		newDetector:  openDetector,
		newSegmenter: vad.New,
		ensureSilero: models.EnsureSilero,
		decode:       audio.Decode,
		record:       audio.Record,
		hotkeys:      newHotkeyListener,
	}
}

// Execute runs the command line with args (without the program name) and
// returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return run(ctx, args, stdout, stderr, defaultDeps())
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, d deps) int {
	a := &app{
		cfg:    config.Default(),
		stdout: stdout,
		stderr: stderr,
		deps:   d,
	}

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		_ = writeError(stdout, err)
	}
	return exitCode(err)
}

// app holds the state shared by all commands of one invocation.
type app struct {
	cfg        *config.Config // bound to the command line flags
	configPath string
	stdout     io.Writer
	stderr     io.Writer
	deps       deps
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "langid --input <file>",
		Short: "Identify the spoken language of an audio file",
		Long: `langid decodes an audio file, keeps the voiced parts found by voice
activity detection, and prints the most likely spoken language as JSON:

  {"language": "en", "confidence": 0.97}`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          a.detect,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	bindFlags(cmd.Flags(), a.cfg)
	bindPersistentFlags(cmd.PersistentFlags(), a.cfg)
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(a.recordCmd(), a.modelsCmd())
	return cmd
}

// bindFlags registers the detection flags on fs, using cfg's current values
// as defaults.
func bindFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Input, "input", cfg.Input, "path to the audio file to identify")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "detection backend: whisper or sherpa")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "model size (tiny, base, small, medium, large-v3, ...) or a path to a model file or directory")
	fs.StringVar(&cfg.Device, "device", cfg.Device, "inference device: cpu, cuda or auto")
	fs.StringVar(&cfg.ComputeType, "compute_type", cfg.ComputeType, "model precision: int8 selects quantized weights")
	fs.Float64Var(&cfg.NoSpeechThreshold, "no_speech_threshold", cfg.NoSpeechThreshold, "no-speech probability threshold")
	fs.IntVar(&cfg.Threads, "threads", cfg.Threads, "inference threads (0 = all CPUs)")
	fs.BoolVar(&cfg.NoDownload, "no_download", cfg.NoDownload, "fail instead of downloading a missing model")

	fs.IntVar(&cfg.VAD.MinSpeechMs, "vad_min_ms", cfg.VAD.MinSpeechMs, "minimum speech segment length in ms")
	fs.Float64Var(&cfg.VAD.MaxSpeechS, "vad_max_s", cfg.VAD.MaxSpeechS, "maximum speech segment length in seconds")
	fs.IntVar(&cfg.VAD.SpeechPadMs, "vad_pad_ms", cfg.VAD.SpeechPadMs, "padding around speech segments in ms")
	fs.IntVar(&cfg.VAD.MinSilenceMs, "vad_min_silence_ms", cfg.VAD.MinSilenceMs, "silence needed to end a speech segment in ms")
	fs.Float64Var(&cfg.VAD.Threshold, "vad_threshold", cfg.VAD.Threshold, "speech probability threshold")
	fs.StringVar(&cfg.VAD.ModelPath, "vad_model", cfg.VAD.ModelPath, "VAD model: silero (cached, downloaded on first use), energy (built-in, no model) or a Silero ONNX file")

	fs.Float64Var(&cfg.Snippet.Seconds, "snippet_s", cfg.Snippet.Seconds, "only analyse the first N seconds (0 = whole file)")
	fs.Float64Var(&cfg.Snippet.RetrySeconds, "retry_snippet_s", cfg.Snippet.RetrySeconds, "longer window for a second pass when confidence is low (0 = off)")
	fs.Float64Var(&cfg.Snippet.MinConfidence, "min_confidence", cfg.Snippet.MinConfidence, "confidence below which the second pass runs")
}

func bindPersistentFlags(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.ModelsDir, "models_dir", cfg.ModelsDir, "directory model files are cached in")
	fs.StringVar(&cfg.LogLevel, "log_level", cfg.LogLevel, "log level on stderr: debug, info, warn or error")
}

// resolve returns the effective config for cmd: defaults, overlaid by the
// --config file, overlaid by the flags given explicitly on the command line.
func (a *app) resolve(cmd *cobra.Command) (*config.Config, error) {
	if a.configPath == "" {
		return a.cfg, nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, &usageError{err: err}
	}

	overlay := pflag.NewFlagSet("overlay", pflag.ContinueOnError)
	bindFlags(overlay, cfg)
	bindPersistentFlags(overlay, cfg)

	var setErr error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if setErr != nil || overlay.Lookup(f.Name) == nil {
			return
		}
		setErr = overlay.Set(f.Name, f.Value.String())
	})
	if setErr != nil {
		return nil, &usageError{err: setErr}
	}
	return cfg, nil
}

func (a *app) logger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	}))
}

func (a *app) detect(cmd *cobra.Command, _ []string) error {
	cfg, err := a.resolve(cmd)
	if err != nil {
		return err
	}

	// Backend availability is reported ahead of every other problem.
	if err := a.deps.available(cfg.Backend); errors.Is(err, langid.ErrBackendUnavailable) {
		return err
	}
	if cfg.Input == "" {
		return usagef("missing required flag: --input")
	}
	if _, err := os.Stat(cfg.Input); err != nil {
		return inputNotFound(cfg.Input)
	}
	// Out-of-domain values surface while building the model, like any
	// other construction failure.
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	log := a.logger(cfg)
	log.Info("detecting language",
		"input", cfg.Input,
		"backend", cfg.Backend,
		"model", cfg.Model,
		"compute_type", cfg.ComputeType,
		"no_speech_threshold", cfg.NoSpeechThreshold)
	if cfg.Backend == "whisper" && cfg.Device != "cpu" {
		log.Info("whisper.cpp picks its GPU backend at build time; device is advisory", "device", cfg.Device)
	}

	start := time.Now()
	det, err := a.deps.newDetector(cmd.Context(), cfg, a.stderr)
	if err != nil {
		return err
	}
	defer func() { _ = det.Close() }()
	log.Debug("model loaded", "elapsed", time.Since(start).Round(time.Millisecond))

	opts := vadOptions(cfg)
	if opts.ModelPath, err = a.vadModelPath(cmd.Context(), cfg, log); err != nil {
		return err
	}
	seg, err := a.deps.newSegmenter(opts)
	if err != nil {
		return err
	}
	defer func() { _ = seg.Close() }()

	p := &langid.Pipeline{
		Detector:  det,
		Segmenter: seg,
		VAD:       opts,
		Snippet: langid.Snippet{
			Seconds:       cfg.Snippet.Seconds,
			RetrySeconds:  cfg.Snippet.RetrySeconds,
			MinConfidence: cfg.Snippet.MinConfidence,
		},
		Decode: a.deps.decode,
		Logger: log,
	}

	res, err := p.RunFile(cfg.Input)
	if err != nil {
		return err
	}
	log.Debug("detection finished", "elapsed", time.Since(start).Round(time.Millisecond))
	return writeResult(a.stdout, res)
}

func vadOptions(cfg *config.Config) vad.Options {
	return vad.Options{
		Threshold:    cfg.VAD.Threshold,
		MinSpeechMs:  cfg.VAD.MinSpeechMs,
		MaxSpeechS:   cfg.VAD.MaxSpeechS,
		SpeechPadMs:  cfg.VAD.SpeechPadMs,
		MinSilenceMs: cfg.VAD.MinSilenceMs,
	}
}

// vadModelPath maps the vad_model setting to a Silero model file, or to ""
// for the energy detector. A missing Silero model with downloads off falls
// back to the energy detector.
func (a *app) vadModelPath(ctx context.Context, cfg *config.Config, log *slog.Logger) (string, error) {
	switch cfg.VAD.ModelPath {
	case config.VADEnergy:
		return "", nil
	case config.VADSilero:
		path, err := a.deps.ensureSilero(ctx, cfg.ModelsDir, !cfg.NoDownload, a.stderr)
		if errors.Is(err, models.ErrNotDownloaded) {
			log.Warn("silero vad model not cached and downloads are off, using energy vad",
				"models_dir", cfg.ModelsDir)
			return "", nil
		}
		return path, err
	default:
		return cfg.VAD.ModelPath, nil
	}
}

// openDetector resolves the model files for cfg, downloading whisper models
// when allowed, and loads the backend.
func openDetector(ctx context.Context, cfg *config.Config, progress io.Writer) (langid.Detector, error) {
	opts := langid.Options{
		Backend: cfg.Backend,
		Device:  cfg.Device,
		Threads: cfg.Threads,
	}

	switch cfg.Backend {
	case "sherpa":
		files, err := models.SherpaLID(cfg.ModelsDir, cfg.Model, cfg.ComputeType)
		if err != nil {
			return nil, err
		}
		opts.Encoder, opts.Decoder = files.Encoder, files.Decoder
	default:
		path, err := models.EnsureWhisper(ctx, cfg.ModelsDir, cfg.Model, cfg.ComputeType, !cfg.NoDownload, progress)
		if err != nil {
			return nil, err
		}
		opts.ModelPath = path
	}

	det, err := langid.New(opts)
	if err != nil {
		return nil, fmt.Errorf("loading %s model: %w", cfg.Backend, err)
	}
	return det, nil
}

// usageArgs turns positional argument errors into usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
