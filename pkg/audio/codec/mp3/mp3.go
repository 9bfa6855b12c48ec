// Package mp3 decodes MP3 audio with the pure Go go-mp3 decoder.
//
// go-mp3 always produces 16-bit little-endian stereo; Decode folds it to
// a mono pcm.Buffer.
package mp3

import (
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/haivivi/nanonanoda/pkg/audio/pcm"
)

// ErrUnsupported is returned when the stream cannot be decoded as MP3.
var ErrUnsupported = errors.New("mp3: unsupported stream")

const outputChannels = 2

// Decoder streams 16-bit stereo PCM from an MP3 source.
type Decoder struct {
	dec *gomp3.Decoder
}

// NewDecoder reads the stream header from r.
func NewDecoder(r io.Reader) (*Decoder, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	return &Decoder{dec: dec}, nil
}

// SampleRate returns the sample rate in Hz.
func (d *Decoder) SampleRate() int {
	return d.dec.SampleRate()
}

// Channels returns the channel count of the decoded PCM.
func (d *Decoder) Channels() int {
	return outputChannels
}

// Read reads interleaved 16-bit little-endian PCM into p.
func (d *Decoder) Read(p []byte) (int, error) {
	return d.dec.Read(p)
}

// Decode decodes the entire stream.
func Decode(r io.Reader) (pcm.Buffer, error) {
	dec, err := NewDecoder(r)
	if err != nil {
		return pcm.Buffer{}, err
	}
	data, err := io.ReadAll(dec)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	return pcm.FromInt16LE(data, dec.Channels(), dec.SampleRate()), nil
}
