package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/stratum/src/lock"
	"github.com/sofmeright/stratum/src/pipeline"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the fully expanded package list",
	Long: `Expand every package — defaults, environment, overrides, templates,
layer checksums, spec ids — and print the result to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := runPipeline(nil)
		if err != nil {
			return err
		}

		lf := &lock.Lockfile{Packages: pipeline.Records(results)}
		return lf.Encode(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
