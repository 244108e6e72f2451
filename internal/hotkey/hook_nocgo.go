//go:build !cgo

package hotkey

func available() error { return ErrUnavailable }

// Start returns immediately without cgo.
func (l *Listener) Start() {
	close(l.ch)
}
