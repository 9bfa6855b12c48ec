package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/haivivi/nanonanoda/pkg/audio/codec/mp3"
	"github.com/haivivi/nanonanoda/pkg/audio/pcm"
	"github.com/haivivi/nanonanoda/pkg/audio/wav"
	"github.com/haivivi/nanonanoda/pkg/resynth"
)

// loadInput decodes a WAV or MP3 file by extension.
func loadInput(path string) (pcm.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("%w: %w", resynth.ErrUnsupportedInput, err)
	}
	defer f.Close()

	var buf pcm.Buffer
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		buf, err = wav.Decode(f)
	case ".mp3":
		buf, err = mp3.Decode(f)
	default:
		return pcm.Buffer{}, fmt.Errorf("%w: %s: unknown extension %q (want .wav or .mp3)", resynth.ErrUnsupportedInput, path, ext)
	}
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("%w: %s: %w", resynth.ErrUnsupportedInput, path, err)
	}
	return buf, nil
}

// defaultOutput returns the output path beside the input.
func defaultOutput(input string, format resynth.Format) string {
	stem := strings.TrimSuffix(input, filepath.Ext(input))
	if format == resynth.FormatVGM {
		return stem + "_resynth_ym.vgm"
	}
	return stem + "_resynth.wav"
}
