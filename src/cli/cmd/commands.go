package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/stratum/src/command"
	"github.com/sofmeright/stratum/src/layer"
	"github.com/sofmeright/stratum/src/output"
)

var (
	commandsOut   string
	commandsStore string
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Emit per-package build scripts",
	Long: `Write one executable build script per package. Each script passes the
package's fully resolved fields as build args and points at its final layer
Dockerfile in the store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		results, err := runPipeline(nil)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(commandsOut, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}

		store := layer.NewStore(commandsStore)
		color := output.UseColor()
		sec := output.NewSection(os.Stdout, "Commands", time.Since(start), color)

		for _, r := range results {
			var dockerfile string
			if n := len(r.Layers); n > 0 {
				dockerfile = store.DockerfilePath(r.Layers[n-1])
			}

			script, err := command.Script(r.Record, dockerfile)
			if err != nil {
				return fmt.Errorf("package %d: %w", r.Index, err)
			}

			name := r.Record.Fields[command.NameField]
			path := filepath.Join(commandsOut, command.FileName(name))
			if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			sec.Row("%-4d %s", r.Index, path)
		}
		sec.Separator()
		sec.Row("%d script(s) %s", len(results), output.StatusIcon("success", color))
		sec.Close()
		return nil
	},
}

func init() {
	commandsCmd.Flags().StringVarP(&commandsOut, "output", "o", ".stratum/commands", "script output directory")
	commandsCmd.Flags().StringVar(&commandsStore, "store", ".stratum/layers", "layer store directory scripts reference")
	rootCmd.AddCommand(commandsCmd)
}
