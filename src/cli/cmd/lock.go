package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/stratum/src/lock"
	"github.com/sofmeright/stratum/src/output"
	"github.com/sofmeright/stratum/src/pipeline"
)

var lockOut string

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Write the lock artifact",
	Long: `Expand every package and persist the result as the lock artifact.
Nothing is written if any package fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		results, err := runPipeline(nil)
		if err != nil {
			return err
		}

		lf := &lock.Lockfile{Packages: pipeline.Records(results)}
		if err := lf.WriteFile(lockOut); err != nil {
			return fmt.Errorf("writing lock artifact: %w", err)
		}

		color := output.UseColor()
		sec := output.NewSection(os.Stdout, "Lock", time.Since(start), color)
		for _, r := range results {
			sec.Row("%-4d %s  %s", r.Index, r.Record.SpecID[:12], output.Dimmed(recordName(r), color))
		}
		sec.Separator()
		sec.Row("%d package(s) → %s %s", len(results), lockOut, output.StatusIcon("success", color))
		sec.Close()
		return nil
	},
}

func init() {
	lockCmd.Flags().StringVarP(&lockOut, "output", "o", "stratum.lock.yml", "lock artifact path")
	rootCmd.AddCommand(lockCmd)
}

// recordName returns a display name for a result, falling back to the index.
func recordName(r pipeline.Result) string {
	if name := r.Record.Fields["PACKAGE_NAME"]; name != "" {
		return name
	}
	return fmt.Sprintf("package %d", r.Index)
}
