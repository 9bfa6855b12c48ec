// Package wav reads and writes WAV files through go-audio/wav.
//
// Decode accepts integer PCM of any bit depth go-audio supports and 32-bit
// IEEE float, and downmixes to a mono pcm.Buffer. Encode writes 16-bit
// mono PCM.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"

	"github.com/haivivi/nanonanoda/pkg/audio/pcm"
)

// ErrUnsupported is returned for files that are neither integer PCM nor
// 32-bit float WAV.
var ErrUnsupported = errors.New("wav: unsupported file")

const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE

	// maxFmtSize bounds the fmt chunk read by sampleFormat.
	maxFmtSize = 1 << 10
)

// Decode reads a whole WAV stream into memory.
func Decode(r io.ReadSeeker) (pcm.Buffer, error) {
	format, err := sampleFormat(r)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("%w: not a RIFF/WAVE stream: %w", ErrUnsupported, err)
	}
	if format != formatPCM && format != formatFloat {
		return pcm.Buffer{}, fmt.Errorf("%w: audio format %d", ErrUnsupported, format)
	}

	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return pcm.Buffer{}, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrUnsupported)
	}
	if dec.BitDepth == 0 || dec.BitDepth > 32 || dec.NumChans == 0 {
		return pcm.Buffer{}, fmt.Errorf("%w: %d channels at %d bits", ErrUnsupported, dec.NumChans, dec.BitDepth)
	}
	if format == formatFloat && dec.BitDepth != 32 {
		return pcm.Buffer{}, fmt.Errorf("%w: %d-bit float", ErrUnsupported, dec.BitDepth)
	}
	ib, err := dec.FullPCMBuffer()
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}

	samples := make([]float32, len(ib.Data))
	if format == formatFloat {
		// go-audio hands 32-bit words over as ints; the bits are IEEE 754.
		for i, v := range ib.Data {
			samples[i] = math.Float32frombits(uint32(v))
		}
	} else {
		// 8-bit WAV is unsigned; wider depths are signed.
		var offset, scale float64
		if dec.BitDepth == 8 {
			offset, scale = 128, 128
		} else {
			scale = float64(int64(1) << (dec.BitDepth - 1))
		}
		for i, v := range ib.Data {
			samples[i] = float32((float64(v) - offset) / scale)
		}
	}
	return pcm.Buffer{
		Samples:    pcm.Mix(samples, int(dec.NumChans)),
		SampleRate: int(dec.SampleRate),
	}, nil
}

// sampleFormat returns the sample format code of the fmt chunk, resolving
// WAVE_FORMAT_EXTENSIBLE to its sub-format, and rewinds r.
func sampleFormat(r io.ReadSeeker) (uint16, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	defer r.Seek(0, io.SeekStart)

	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return 0, err
	}
	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, err
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}
		if ch.Size < 16 || ch.Size > maxFmtSize {
			return 0, fmt.Errorf("fmt chunk of %d bytes", ch.Size)
		}
		body := make([]byte, ch.Size)
		if _, err := io.ReadFull(ch, body); err != nil {
			return 0, err
		}
		format := binary.LittleEndian.Uint16(body)
		// The sub-format GUID starts at byte 24 and leads with the code.
		if format == formatExtensible && len(body) >= 26 {
			format = binary.LittleEndian.Uint16(body[24:])
		}
		return format, nil
	}
}

// Encode writes buf as a 16-bit mono WAV file.
func Encode(w io.WriteSeeker, buf pcm.Buffer) error {
	if buf.SampleRate <= 0 {
		return fmt.Errorf("wav: invalid sample rate %d", buf.SampleRate)
	}
	enc := wav.NewEncoder(w, buf.SampleRate, 16, 1, formatPCM)
	data := make([]int, buf.Len())
	for i, s := range buf.Int16s() {
		data[i] = int(s)
	}
	ib := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: buf.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("wav: write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: finish file: %w", err)
	}
	return nil
}
