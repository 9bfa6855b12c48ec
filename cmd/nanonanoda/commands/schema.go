package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/nanonanoda/cmd/nanonanoda/internal/config"
	"github.com/haivivi/nanonanoda/pkg/cli"
)

var schemaOutput string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the --config profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Schema()
		if err != nil {
			return err
		}
		return cli.Output(s, cli.OutputOptions{
			Format: cli.FormatJSON,
			File:   schemaOutput,
			Indent: "  ",
		})
	},
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(schemaCmd)
}
