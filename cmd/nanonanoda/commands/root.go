package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/nanonanoda/cmd/nanonanoda/internal/build"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "nanonanoda [flags] <INPUT>",
	Short: "Convert PCM audio into FM chip register logs",
	Long: `nanonanoda - resynthesize audio with FM sound chips.

The input (WAV or MP3) is split into analysis windows. The strongest
spectral peaks of each window are assigned to the voices of the configured
chips (YMF262/OPL3 and YM2203/OPN) and written as register writes into a
VGM file, or rendered directly as sine partials into a WAV file for
comparison.

Chips are given as name[:count[:voices]] and may be repeated. The default
is one ymf262 with 18 voices and two ym2203 with 3 voices each.

Examples:
  # Render the reference WAV next to the input
  nanonanoda voice.wav

  # Write a looping VGM for one OPL3 and one OPN
  nanonanoda --format vgm --loop --chip ymf262 --chip ym2203:1:3 voice.wav

  # Use a profile and override one option
  nanonanoda --config profile.yaml --window-size 1024 voice.mp3`,
	Version:           build.Version,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	RunE:              runConvert,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(build.String() + "\n")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	addConvertFlags(rootCmd)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
