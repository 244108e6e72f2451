//go:build cgo

package hotkey

import (
	hook "github.com/robotn/gohook"
)

func available() error { return nil }

// Start begins listening for the global hotkey.
// It blocks until Stop is called, so run it in a goroutine.
func (l *Listener) Start() {
	hook.Register(hook.KeyDown, l.keys, func(hook.Event) { l.keyDown() })
	if l.mode == ModeHold {
		hook.Register(hook.KeyUp, l.keys, func(hook.Event) { l.keyUp() })
	}

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}
