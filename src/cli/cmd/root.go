package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/stratum/src/expand"
	"github.com/sofmeright/stratum/src/gitmeta"
	"github.com/sofmeright/stratum/src/layer"
	"github.com/sofmeright/stratum/src/pipeline"
	"github.com/sofmeright/stratum/src/render"
	"github.com/sofmeright/stratum/src/spec"
)

var (
	specFile string
	verbose  bool
	sp       *spec.Spec
)

var rootCmd = &cobra.Command{
	Use:   "stratum",
	Short: "Deterministic Dockerfile layer build planner",
	Long: `Stratum — expand a package spec into a deterministic build plan:
resolved package records, a content-addressed layer store, and a lock artifact.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Version needs no spec.
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		sp, err = spec.Load(specFile)
		if err != nil {
			return fmt.Errorf("loading spec: %w", err)
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&specFile, "spec", "", "spec file (default: "+spec.DefaultFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

// effectiveDefaults resolves spec defaults against the environment and,
// for the reserved GIT_* keys, against the enclosing git repository.
// Precedence: environment > git metadata > spec value.
func effectiveDefaults() map[string]string {
	lookup := expand.Lookup(os.LookupEnv)
	if meta, err := gitmeta.Detect("."); err == nil {
		lookup = expand.Chain(lookup, meta.Lookup)
	} else if verbose {
		fmt.Fprintf(os.Stderr, "git metadata unavailable: %v\n", err)
	}
	return expand.ResolveDefaults(sp.Defaults, lookup)
}

// runPipeline expands all packages. store may be nil for hash-only runs.
func runPipeline(store *layer.Store) ([]pipeline.Result, error) {
	return pipeline.Run(context.Background(), pipeline.Options{
		Spec:     sp,
		Defaults: effectiveDefaults(),
		Renderer: render.New(),
		Store:    store,
	})
}
