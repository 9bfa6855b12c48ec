package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/haivivi/nanonanoda/pkg/cache"
	"github.com/haivivi/nanonanoda/pkg/cli"
)

var cacheFlags struct {
	dir    string
	format string
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the analysis cache",
	Long: `Manage the spectral analysis cache written by --cache-dir.

The default directory is ~/.nanonanoda/cache.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached analyses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		frames, closeFn, err := openFrames()
		if err != nil {
			return err
		}
		defer closeFn()

		records := []cache.FrameRecord{}
		for rec, err := range frames.List(cmd.Context()) {
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return cli.Output(records, cli.OutputOptions{
			Format: cli.OutputFormat(cacheFlags.format),
			Indent: "  ",
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached analysis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		frames, closeFn, err := openFrames()
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := frames.Clear(cmd.Context())
		if err != nil {
			return err
		}
		if n == 0 {
			cli.PrintInfo("cache is empty")
			return nil
		}
		cli.PrintSuccess("removed %d cached analyses", n)
		return nil
	},
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheFlags.dir, "cache-dir", "", "cache directory (default: ~/.nanonanoda/cache)")
	cacheListCmd.Flags().StringVarP(&cacheFlags.format, "format", "f", "yaml", "output format: yaml, json or msgpack")
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openFrames() (*cache.Frames, func(), error) {
	dir := cacheFlags.dir
	if dir == "" {
		paths, err := cli.NewPaths()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		if err := paths.EnsureCacheDir(); err != nil {
			return nil, nil, err
		}
		dir = paths.CacheDir()
	}
	store, err := cache.NewBadger(cache.BadgerOptions{Dir: dir, Logger: slog.Default()})
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("cache opened", "dir", dir)
	return cache.NewFrames(store), func() { store.Close() }, nil
}
