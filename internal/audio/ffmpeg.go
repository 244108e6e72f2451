//go:build cgo

package audio

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/asticode/go-astiav"
)

func init() {
	astiav.SetLogLevel(astiav.LogLevelError)
}

// decodeFFmpeg decodes the first audio stream of a media file and resamples
// it to SampleRate mono float32.
func decodeFFmpeg(path string) (*Clip, error) {
	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, fmt.Errorf("allocating format context")
	}
	defer fc.CloseInput()

	if err := fc.OpenInput(path, nil, nil); err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}

	if err := fc.FindStreamInfo(nil); err != nil {
		return nil, fmt.Errorf("finding stream info: %w", err)
	}

	var stream *astiav.Stream
	for _, s := range fc.Streams() {
		if s.CodecParameters().MediaType() == astiav.MediaTypeAudio {
			stream = s
			break
		}
	}
	if stream == nil {
		return nil, fmt.Errorf("no audio stream found")
	}

	codecParams := stream.CodecParameters()
	codec := astiav.FindDecoder(codecParams.CodecID())
	if codec == nil {
		return nil, fmt.Errorf("decoder not found for codec %s", codecParams.CodecID().Name())
	}

	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return nil, fmt.Errorf("allocating codec context")
	}
	defer cc.Free()

	if err := codecParams.ToCodecContext(cc); err != nil {
		return nil, fmt.Errorf("copying codec parameters: %w", err)
	}
	if err := cc.Open(codec, nil); err != nil {
		return nil, fmt.Errorf("opening codec: %w", err)
	}

	swr := astiav.AllocSoftwareResampleContext()
	if swr == nil {
		return nil, fmt.Errorf("allocating resample context")
	}
	defer swr.Free()

	src := astiav.AllocFrame()
	if src == nil {
		return nil, fmt.Errorf("allocating source frame")
	}
	defer src.Free()

	dst := astiav.AllocFrame()
	if dst == nil {
		return nil, fmt.Errorf("allocating destination frame")
	}
	defer dst.Free()

	pkt := astiav.AllocPacket()
	if pkt == nil {
		return nil, fmt.Errorf("allocating packet")
	}
	defer pkt.Free()

	d := &ffmpegDecoder{cc: cc, swr: swr, src: src, dst: dst}

	for {
		if err := fc.ReadFrame(pkt); err != nil {
			if errors.Is(err, astiav.ErrEof) {
				break
			}
			return nil, fmt.Errorf("reading frame: %w", err)
		}
		if pkt.StreamIndex() != stream.Index() {
			pkt.Unref()
			continue
		}

		err := cc.SendPacket(pkt)
		pkt.Unref()
		if err != nil {
			return nil, fmt.Errorf("sending packet: %w", err)
		}
		if err := d.drain(); err != nil {
			return nil, err
		}
	}

	// Flush decoder, then resampler.
	if err := cc.SendPacket(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
		return nil, fmt.Errorf("flushing decoder: %w", err)
	}
	if err := d.drain(); err != nil {
		return nil, err
	}
	if err := d.convert(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
		return nil, fmt.Errorf("flushing resampler: %w", err)
	}

	return &Clip{Samples: d.samples}, nil
}

type ffmpegDecoder struct {
	cc      *astiav.CodecContext
	swr     *astiav.SoftwareResampleContext
	src     *astiav.Frame
	dst     *astiav.Frame
	samples []float32
}

// drain receives every frame the decoder has ready and resamples it.
func (d *ffmpegDecoder) drain() error {
	for {
		err := d.cc.ReceiveFrame(d.src)
		if err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return nil
			}
			return fmt.Errorf("receiving frame: %w", err)
		}

		err = d.convert(d.src)
		d.src.Unref()
		if err != nil {
			return fmt.Errorf("converting frame: %w", err)
		}
	}
}

// convert resamples src (nil flushes) into 16 kHz mono float32 and appends
// the result.
func (d *ffmpegDecoder) convert(src *astiav.Frame) error {
	d.dst.Unref()
	d.dst.SetSampleRate(SampleRate)
	d.dst.SetSampleFormat(astiav.SampleFormatFlt)
	d.dst.SetChannelLayout(astiav.ChannelLayoutMono)

	if err := d.swr.ConvertFrame(src, d.dst); err != nil {
		return err
	}
	if d.dst.NbSamples() == 0 {
		return nil
	}

	size, err := d.dst.SamplesBufferSize(1)
	if err != nil {
		return fmt.Errorf("getting samples buffer size: %w", err)
	}
	buf := make([]byte, size)
	if _, err := d.dst.SamplesCopyToBuffer(buf, 1); err != nil {
		return fmt.Errorf("copying samples: %w", err)
	}
	if len(buf) < 4 {
		return nil
	}

	floats := unsafe.Slice((*float32)(unsafe.Pointer(&buf[0])), len(buf)/4)
	d.samples = append(d.samples, floats...)
	return nil
}
