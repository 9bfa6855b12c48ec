package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/nanonanoda/pkg/audio/pcm"
	"github.com/haivivi/nanonanoda/pkg/audio/wav"
	"github.com/haivivi/nanonanoda/pkg/cli"
)

var toneFlags struct {
	freq     float64
	duration time.Duration
	rate     int
	amp      float64
	output   string
}

var toneCmd = &cobra.Command{
	Use:   "tone",
	Short: "Write a sine test tone as WAV",
	Long: `Write a mono 16-bit sine wave, useful as a known input for conversion.

Example:
  nanonanoda tone --freq 440 --duration 2s -o a4.wav`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if toneFlags.output == "" {
			return errors.New("--output is required")
		}
		if toneFlags.rate <= 0 || toneFlags.duration <= 0 {
			return fmt.Errorf("rate and duration must be positive")
		}
		if toneFlags.freq <= 0 || toneFlags.freq >= float64(toneFlags.rate)/2 {
			return fmt.Errorf("frequency %g Hz not below Nyquist of %d Hz", toneFlags.freq, toneFlags.rate)
		}
		if toneFlags.amp <= 0 || toneFlags.amp > 1 {
			return fmt.Errorf("amplitude %g not in (0, 1]", toneFlags.amp)
		}
		n := int(time.Duration(toneFlags.rate) * toneFlags.duration / time.Second)
		buf := pcm.Tone(toneFlags.rate, n, toneFlags.freq, toneFlags.amp)
		err := cli.WriteFileAtomic(toneFlags.output, func(f *os.File) error {
			return wav.Encode(f, buf)
		})
		if err != nil {
			return err
		}
		cli.PrintSuccess("wrote %s (%s)", toneFlags.output, cli.FormatSamples(n, toneFlags.rate))
		return nil
	},
}

func init() {
	f := toneCmd.Flags()
	f.Float64Var(&toneFlags.freq, "freq", 440, "frequency in Hz")
	f.DurationVar(&toneFlags.duration, "duration", time.Second, "length")
	f.IntVar(&toneFlags.rate, "rate", 44100, "sample rate in Hz")
	f.Float64Var(&toneFlags.amp, "amp", 0.5, "peak amplitude in (0, 1]")
	f.StringVarP(&toneFlags.output, "output", "o", "", "output WAV file")
	rootCmd.AddCommand(toneCmd)
}
