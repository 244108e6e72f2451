//go:build !cgo

package audio

import (
	"context"
	"time"
)

// Record is unavailable without cgo.
func Record(ctx context.Context, stop <-chan struct{}, limit time.Duration) (*Clip, error) {
	return nil, ErrUnavailable
}
