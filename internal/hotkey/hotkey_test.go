package hotkey

import (
	"slices"
	"testing"
)

func TestParseCombo(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{in: "ctrl+shift+l", want: []string{"ctrl", "shift", "l"}},
		{in: "Ctrl + Alt + F9", want: []string{"ctrl", "alt", "f9"}},
		{in: "space", want: []string{"space"}},
		{in: "", wantErr: true},
		{in: "ctrl++l", wantErr: true},
		{in: "ctrl+", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCombo(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseCombo(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCombo(%q): %v", tt.in, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseCombo(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, in := range []string{"hold", "toggle", " Toggle "} {
		if _, err := ParseMode(in); err != nil {
			t.Errorf("ParseMode(%q): %v", in, err)
		}
	}
	if _, err := ParseMode("tap"); err == nil {
		t.Error("ParseMode(tap) should fail")
	}
}

func drain(l *Listener) []EventType {
	var got []EventType
	for {
		select {
		case ev := <-l.ch:
			got = append(got, ev.Type)
		default:
			return got
		}
	}
}

func TestHoldMode(t *testing.T) {
	l := newListener([]string{"ctrl", "l"}, ModeHold)
	l.keyDown()
	l.keyUp()
	l.keyDown()

	want := []EventType{EventStart, EventStop, EventStart}
	if got := drain(l); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestToggleMode(t *testing.T) {
	l := newListener([]string{"ctrl", "l"}, ModeToggle)
	l.keyDown()
	l.keyUp()
	l.keyDown()
	l.keyDown()

	want := []EventType{EventStart, EventStop, EventStart}
	if got := drain(l); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestSendDoesNotBlockWhenFull(t *testing.T) {
	l := newListener([]string{"l"}, ModeHold)
	for i := 0; i < cap(l.ch)+5; i++ {
		l.keyDown()
	}
	if n := len(drain(l)); n != cap(l.ch) {
		t.Errorf("buffered %d events, want %d", n, cap(l.ch))
	}
}

func TestStopIsIdempotent(t *testing.T) {
	l := newListener([]string{"l"}, ModeHold)
	l.Stop()
	l.Stop()
	select {
	case <-l.done:
	default:
		t.Error("done not closed after Stop")
	}
}
