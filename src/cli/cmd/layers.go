package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/stratum/src/layer"
	"github.com/sofmeright/stratum/src/output"
	"github.com/sofmeright/stratum/src/scan"
)

var (
	layersStore string
	layersScan  bool
)

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "Materialize the layer store",
	Long: `Render every package's Dockerfile layer chain into the shared
content-addressed store. Identical rendered layers are stored once.

With --scan, the rendered Dockerfiles are checked for leaked secrets and
findings fail the run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		store := layer.NewStore(layersStore)

		results, err := runPipeline(store)
		if err != nil {
			return err
		}

		color := output.UseColor()
		sec := output.NewSection(os.Stdout, "Layers", time.Since(start), color)
		unique := make(map[string]bool)
		for _, r := range results {
			for _, a := range r.Layers {
				if !unique[a.ID] {
					unique[a.ID] = true
					sec.Row("%-16s %s", a.Name, a.Hash[:12])
				}
			}
		}
		sec.Separator()
		sec.Row("%d unique layer(s) → %s %s", len(unique), store.Root(), output.StatusIcon("success", color))
		sec.Close()

		if !layersScan {
			return nil
		}

		scanner, err := scan.New()
		if err != nil {
			return err
		}
		findings, err := scanner.Store(store.Root())
		if err != nil {
			return err
		}
		for _, f := range findings {
			fmt.Fprintf(os.Stderr, "%s:%d: %s (%s)\n", f.Path, f.Line, f.Description, f.RuleID)
		}
		if len(findings) > 0 {
			return fmt.Errorf("%d secret finding(s) in layer store", len(findings))
		}
		return nil
	},
}

func init() {
	layersCmd.Flags().StringVar(&layersStore, "store", ".stratum/layers", "layer store directory")
	layersCmd.Flags().BoolVar(&layersScan, "scan", false, "scan rendered Dockerfiles for secrets")
	rootCmd.AddCommand(layersCmd)
}
