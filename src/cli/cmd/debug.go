package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sofmeright/stratum/src/expand"
	"github.com/sofmeright/stratum/src/pipeline"
	"github.com/sofmeright/stratum/src/render"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Inspect intermediate pipeline stages",
}

var debugDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print effective defaults (spec + git + environment)",
	RunE: func(cmd *cobra.Command, args []string) error {
		printSorted(effectiveDefaults())
		return nil
	},
}

var debugTemplatesCmd = &cobra.Command{
	Use:   "templates INDEX",
	Short: "Print rendered templates for one package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}

		ctx, err := expand.PackageContext(effectiveDefaults(), sp.Packages, index)
		if err != nil {
			return err
		}
		rendered, err := render.New().RenderAll(sp.Templates, ctx)
		if err != nil {
			return err
		}
		printSorted(rendered)
		return nil
	},
}

var debugPackageCmd = &cobra.Command{
	Use:   "package INDEX",
	Short: "Print one fully merged package record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}

		record, artifacts, err := pipeline.BuildPackage(pipeline.Options{
			Spec:     sp,
			Defaults: effectiveDefaults(),
			Renderer: render.New(),
		}, index)
		if err != nil {
			return err
		}

		printSorted(record.Fields)
		for _, a := range artifacts {
			fmt.Printf("layer %s=%s base=%s\n", a.Name, a.Hash, a.Base)
		}
		fmt.Printf("spec_id=%s\n", record.SpecID)
		return nil
	},
}

func parseIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("package index %q is not a number", arg)
	}
	return index, nil
}

func printSorted(m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(os.Stdout, "%s=%s\n", k, m[k])
	}
}

func init() {
	debugCmd.AddCommand(debugDefaultsCmd, debugTemplatesCmd, debugPackageCmd)
	rootCmd.AddCommand(debugCmd)
}
