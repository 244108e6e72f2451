// Package hotkey provides a global hotkey listener using gohook, used to
// start and stop microphone recordings from any application.
// It supports "hold" mode (press to start, release to stop) and
// "toggle" mode (press to start, press again to stop).
package hotkey

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnavailable is returned by NewListener in builds without cgo.
var ErrUnavailable = errors.New("hotkey: global hotkeys not compiled in (cgo disabled)")

// Mode selects how key presses map to start/stop events.
type Mode string

const (
	ModeHold   Mode = "hold"
	ModeToggle Mode = "toggle"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeHold, ModeToggle:
		return m, nil
	default:
		return "", fmt.Errorf("hotkey: mode must be \"hold\" or \"toggle\", got %q", s)
	}
}

// ParseCombo splits a combination like "ctrl+shift+l" into lowercase key
// names.
func ParseCombo(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("hotkey: empty key combination")
	}
	parts := strings.Split(s, "+")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		k := strings.ToLower(strings.TrimSpace(p))
		if k == "" {
			return nil, fmt.Errorf("hotkey: empty key in combination %q", s)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// EventType indicates whether recording should start or stop.
type EventType int

const (
	// EventStart signals that the hotkey was activated (start recording).
	EventStart EventType = iota
	// EventStop signals that the hotkey was deactivated (stop recording).
	EventStop
)

func (t EventType) String() string {
	if t == EventStart {
		return "start"
	}
	return "stop"
}

// Event is emitted on the channel returned by Events.
type Event struct {
	Type EventType
}

// Listener manages a global hotkey and emits start/stop events.
type Listener struct {
	keys []string
	mode Mode
	ch   chan Event
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	active bool // toggle state
}

// NewListener creates a Listener for the given key combo and mode.
// keys should be lowercase key names (e.g., ["ctrl", "shift", "l"]).
func NewListener(keys []string, mode Mode) (*Listener, error) {
	if err := available(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("hotkey: no keys given")
	}
	return newListener(keys, mode), nil
}

func newListener(keys []string, mode Mode) *Listener {
	return &Listener{
		keys: keys,
		mode: mode,
		ch:   make(chan Event, 16),
		done: make(chan struct{}),
	}
}

// Events returns the channel that receives hotkey events.
// The channel is closed once Start returns.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}

// keyDown handles a press of the full combination.
func (l *Listener) keyDown() {
	if l.mode != ModeToggle {
		l.send(EventStart)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active {
		l.send(EventStop)
	} else {
		l.send(EventStart)
	}
	l.active = !l.active
}

// keyUp handles a release of the combination. Only hold mode reacts.
func (l *Listener) keyUp() {
	if l.mode == ModeHold {
		l.send(EventStop)
	}
}

func (l *Listener) send(t EventType) {
	select {
	case l.ch <- Event{Type: t}:
	default: // don't block the hook thread if nobody is reading
	}
}
