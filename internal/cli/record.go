package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/langid/internal/audio"
	"github.com/chaz8081/langid/internal/hotkey"
)

// hotkeyMaxRecording caps push-to-talk recordings when --seconds is not given.
const hotkeyMaxRecording = 2 * time.Minute

// hotkeyListener is the part of hotkey.Listener the record command uses.
type hotkeyListener interface {
	Start()
	Stop()
	Events() <-chan hotkey.Event
}

func newHotkeyListener(keys []string, mode hotkey.Mode) (hotkeyListener, error) {
	l, err := hotkey.NewListener(keys, mode)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (a *app) recordCmd() *cobra.Command {
	var (
		out     string
		seconds float64
		combo   string
		mode    string
	)

	cmd := &cobra.Command{
		Use:   "record --out <file.wav>",
		Short: "Record a clip from the default microphone into a WAV file",
		Long: `Record a clip from the default microphone into a 16 kHz mono WAV file that
can be passed to --input.

With --hotkey, recording starts when the key combination is pressed and stops
when it is released (hold mode) or pressed again (toggle mode).`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.resolve(cmd)
			if err != nil {
				return err
			}
			if out == "" {
				return usagef("missing required flag: --out")
			}
			if seconds <= 0 {
				return usagef("--seconds must be > 0, got %g", seconds)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid options: %w", err)
			}

			log := a.logger(cfg)
			limit := time.Duration(seconds * float64(time.Second))

			var clip *audio.Clip
			if combo != "" {
				if !cmd.Flags().Changed("seconds") {
					limit = hotkeyMaxRecording
				}
				clip, err = a.recordWithHotkey(cmd.Context(), combo, mode, limit, log)
			} else {
				log.Info("recording", "seconds", seconds, "output", out)
				clip, err = a.deps.record(cmd.Context(), nil, limit)
			}
			if err != nil {
				return fmt.Errorf("recording: %w", err)
			}
			if len(clip.Samples) == 0 {
				return fmt.Errorf("recording: no audio captured")
			}
			if err := audio.WriteWAV(out, clip.Samples, audio.SampleRate); err != nil {
				return err
			}

			log.Info("saved recording", "output", out, "duration", clip.Duration())
			return writeObject(a.stdout,
				field{"output", out},
				field{"seconds", clip.Duration().Seconds()},
			)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "WAV file to write")
	cmd.Flags().Float64Var(&seconds, "seconds", 5, "how long to record (with --hotkey: the maximum length)")
	cmd.Flags().StringVar(&combo, "hotkey", "", "record while this key combination is active, e.g. ctrl+shift+l")
	cmd.Flags().StringVar(&mode, "hotkey_mode", string(hotkey.ModeHold), "hotkey mode: hold or toggle")
	return cmd
}

// recordWithHotkey waits for the hotkey to start a recording and stops it on
// the matching stop event.
func (a *app) recordWithHotkey(ctx context.Context, combo, modeName string, limit time.Duration, log *slog.Logger) (*audio.Clip, error) {
	keys, err := hotkey.ParseCombo(combo)
	if err != nil {
		return nil, &usageError{err: err}
	}
	mode, err := hotkey.ParseMode(modeName)
	if err != nil {
		return nil, &usageError{err: err}
	}

	l, err := a.deps.hotkeys(keys, mode)
	if err != nil {
		return nil, err
	}
	go l.Start()
	defer l.Stop()

	events := l.Events()
	fmt.Fprintf(a.stderr, "Press %s to start recording.\n", strings.Join(keys, "+"))
	if err := waitFor(ctx, events, hotkey.EventStart); err != nil {
		return nil, err
	}
	log.Info("recording", "hotkey", combo, "mode", mode, "max", limit)

	stop := make(chan struct{})
	go func() {
		_ = waitFor(ctx, events, hotkey.EventStop)
		close(stop)
	}()
	return a.deps.record(ctx, stop, limit)
}

var errListenerClosed = errors.New("hotkey listener stopped")

// waitFor blocks until an event of type want arrives.
func waitFor(ctx context.Context, events <-chan hotkey.Event, want hotkey.EventType) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return errListenerClosed
			}
			if ev.Type == want {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
