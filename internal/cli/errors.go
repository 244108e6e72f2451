package cli

import (
	"errors"
	"fmt"

	"github.com/chaz8081/langid/internal/audio"
	"github.com/chaz8081/langid/internal/hotkey"
	"github.com/chaz8081/langid/internal/langid"
)

// Exit codes.
const (
	exitOK          = 0
	exitUnavailable = 1
	exitUsage       = 2
	exitFailure     = 3
)

// ErrInputNotFound is returned when --input does not name an existing file.
// The message is part of the output contract.
var ErrInputNotFound = errors.New("Input file not found")

// usageError marks invocations the argument parser rejects: unknown flags,
// unparseable flag values, missing required flags, unreadable --config files.
// Flag values that parse but are out of range are ordinary failures.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func inputNotFound(path string) error {
	return fmt.Errorf("%w: %s", ErrInputNotFound, path)
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, langid.ErrBackendUnavailable), errors.Is(err, audio.ErrUnavailable),
		errors.Is(err, hotkey.ErrUnavailable):
		return exitUnavailable
	case errors.Is(err, ErrInputNotFound), errors.As(err, &ue):
		return exitUsage
	default:
		return exitFailure
	}
}
