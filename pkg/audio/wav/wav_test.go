package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/haivivi/nanonanoda/pkg/audio/pcm"
)

func TestEncodeDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	in := pcm.Tone(22050, 2205, 441, 0.5)

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := Encode(f, in); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	f, err = os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	out, err := Decode(f)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out.SampleRate != 22050 {
		t.Errorf("SampleRate = %d, want 22050", out.SampleRate)
	}
	if out.Len() != in.Len() {
		t.Fatalf("Len() = %d, want %d", out.Len(), in.Len())
	}
	for i := range in.Samples {
		if d := math.Abs(float64(in.Samples[i] - out.Samples[i])); d > 1e-3 {
			t.Fatalf("sample %d = %v, want %v", i, out.Samples[i], in.Samples[i])
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("definitely not a wave file, just text")))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Decode error = %v, want ErrUnsupported", err)
	}
}

func TestEncodeRejectsBadRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := Encode(f, pcm.Buffer{Samples: []float32{0}}); err == nil {
		t.Error("Encode with zero sample rate succeeded")
	}
}

// floatWAV builds a mono 32-bit float WAV. With extensible set the fmt
// chunk uses WAVE_FORMAT_EXTENSIBLE with the IEEE float sub-format.
func floatWAV(rate int, samples []float32, extensible bool) []byte {
	var fmtChunk bytes.Buffer
	le := binary.LittleEndian
	tag := uint16(3)
	if extensible {
		tag = 0xFFFE
	}
	binary.Write(&fmtChunk, le, tag)
	binary.Write(&fmtChunk, le, uint16(1))      // channels
	binary.Write(&fmtChunk, le, uint32(rate))   // sample rate
	binary.Write(&fmtChunk, le, uint32(rate*4)) // byte rate
	binary.Write(&fmtChunk, le, uint16(4))      // block align
	binary.Write(&fmtChunk, le, uint16(32))     // bits per sample
	if extensible {
		binary.Write(&fmtChunk, le, uint16(22))  // extension size
		binary.Write(&fmtChunk, le, uint16(32))  // valid bits
		binary.Write(&fmtChunk, le, uint32(0x4)) // channel mask
		binary.Write(&fmtChunk, le, uint16(3))   // sub-format code
		fmtChunk.Write([]byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71})
	}

	var data bytes.Buffer
	for _, v := range samples {
		binary.Write(&data, le, math.Float32bits(v))
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, le, uint32(4+8+fmtChunk.Len()+8+data.Len()))
	out.WriteString("WAVE")
	out.WriteString("fmt ")
	binary.Write(&out, le, uint32(fmtChunk.Len()))
	out.Write(fmtChunk.Bytes())
	out.WriteString("data")
	binary.Write(&out, le, uint32(data.Len()))
	out.Write(data.Bytes())
	return out.Bytes()
}

func TestDecodeFloat(t *testing.T) {
	want := []float32{0, 0.5, -0.5, 0.25, -1, 0.125}
	tests := []struct {
		name       string
		extensible bool
	}{
		{"ieee float", false},
		{"extensible float", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := Decode(bytes.NewReader(floatWAV(48000, want, tt.extensible)))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if buf.SampleRate != 48000 {
				t.Errorf("SampleRate = %d, want 48000", buf.SampleRate)
			}
			if buf.Len() != len(want) {
				t.Fatalf("Len() = %d, want %d", buf.Len(), len(want))
			}
			for i, v := range want {
				if buf.Samples[i] != v {
					t.Errorf("sample %d = %v, want %v", i, buf.Samples[i], v)
				}
			}
		})
	}
}

func TestDecodeRejectsOtherFormats(t *testing.T) {
	data := floatWAV(8000, []float32{0, 0}, false)
	// Patch the format tag to A-law.
	binary.LittleEndian.PutUint16(data[20:], 6)
	_, err := Decode(bytes.NewReader(data))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Decode error = %v, want ErrUnsupported", err)
	}
}
