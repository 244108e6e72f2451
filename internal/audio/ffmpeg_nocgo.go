//go:build !cgo

package audio

func decodeFFmpeg(path string) (*Clip, error) {
	return nil, ErrUnavailable
}
