// Package pipeline runs the expansion for every package in the spec: context
// merge, template rendering, record assembly, layer chain build, and spec id
// computation. Packages are independent of each other at every stage; the
// only shared resource is the layer store, whose writes are idempotent.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/sofmeright/stratum/src/expand"
	"github.com/sofmeright/stratum/src/layer"
	"github.com/sofmeright/stratum/src/lock"
	"github.com/sofmeright/stratum/src/render"
	"github.com/sofmeright/stratum/src/spec"
)

// Options wires one pipeline run. Store may be nil when only hashes are
// needed (list, lock, debug).
type Options struct {
	Spec     *spec.Spec
	Defaults map[string]string // effective defaults, env already applied
	Renderer *render.Renderer
	Store    *layer.Store
	Workers  int // max concurrent packages; <=0 means 2×NumCPU
}

// Result is one package's outcome. Exactly one of Err or Record is
// meaningful.
type Result struct {
	Index  int // 1-based package index
	Record lock.Record
	Layers []layer.Artifact
	Err    error
}

// PackageError attributes a failure to its package index.
type PackageError struct {
	Index int
	Err   error
}

func (e *PackageError) Error() string {
	return fmt.Sprintf("package %d: %v", e.Index, e.Err)
}

func (e *PackageError) Unwrap() error { return e.Err }

// Run expands every package concurrently and returns results in package
// order. Failures are isolated: a failing package never disturbs another
// package's output. The returned error aggregates per-package failures.
func Run(ctx context.Context, opts Options) ([]Result, error) {
	n := len(opts.Spec.Packages)
	results := make([]Result, n)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	sem := semaphore.NewWeighted(int64(workers))

	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i-1] = Result{Index: i, Err: &PackageError{Index: i, Err: err}}
			continue
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer sem.Release(1)

			record, artifacts, err := BuildPackage(opts, idx)
			results[idx-1] = Result{Index: idx, Record: record, Layers: artifacts, Err: err}
		}(i)
	}
	wg.Wait()

	var firstErr error
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%d of %d packages failed (first: %w)", failed, n, firstErr)
	}
	return results, nil
}

// BuildPackage expands a single package by 1-based index. All errors are
// wrapped with the package index.
func BuildPackage(opts Options, index int) (lock.Record, []layer.Artifact, error) {
	fail := func(err error) (lock.Record, []layer.Artifact, error) {
		return lock.Record{}, nil, &PackageError{Index: index, Err: err}
	}

	ctx, err := expand.PackageContext(opts.Defaults, opts.Spec.Packages, index)
	if err != nil {
		return fail(err)
	}

	rendered, err := opts.Renderer.RenderAll(opts.Spec.Templates, ctx)
	if err != nil {
		return fail(err)
	}

	record, err := expand.Assemble(ctx, rendered)
	if err != nil {
		return fail(err)
	}

	builder := &layer.Builder{Renderer: opts.Renderer, Store: opts.Store}
	artifacts, err := builder.Build(record, opts.Spec.Layers)
	if err != nil {
		return fail(err)
	}

	checksums := make([]string, len(artifacts))
	for i, a := range artifacts {
		checksums[i] = a.Hash
	}
	return lock.Identify(record, checksums), artifacts, nil
}

// Records extracts the ordered record list from results. Call only after a
// fully successful Run.
func Records(results []Result) []lock.Record {
	records := make([]lock.Record, len(results))
	for i, r := range results {
		records[i] = r.Record
	}
	return records
}
