package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/nanonanoda/cmd/nanonanoda/internal/build"
	"github.com/haivivi/nanonanoda/pkg/cli"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionFormat != "" {
			return cli.Output(build.Get(), cli.OutputOptions{
				Format: cli.OutputFormat(versionFormat),
				Indent: "  ",
			})
		}
		fmt.Println(build.String())
		if IsVerbose() {
			info := build.Get()
			fmt.Printf("  go:    %s\n", info.Go)
			if paths, err := cli.NewPaths(); err == nil {
				fmt.Printf("  cache: %s\n", paths.CacheDir())
			}
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "", "output format: json, yaml or msgpack")
	rootCmd.AddCommand(versionCmd)
}
