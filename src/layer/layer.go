// Package layer renders the ordered Dockerfile layer chain for a package,
// content-addresses each rendered layer, and deduplicates the results into a
// shared store. Within one package the chain is strictly sequential: each
// layer's template sees its predecessor's identity as BASE_LAYER_ID.
package layer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/sofmeright/stratum/src/render"
	"github.com/sofmeright/stratum/src/spec"
)

// BaseNone is the base-layer identity of the first layer in a chain.
const BaseNone = "none"

// BaseKey is the context key under which a layer template sees its
// predecessor's identity.
const BaseKey = "BASE_LAYER_ID"

// Artifact is one rendered, content-addressed layer. Identity is
// (Name, Hash): two artifacts with the same name and hash are the same
// artifact regardless of which package produced them.
type Artifact struct {
	Name          string
	Hash          string // sha256 of the exact rendered bytes
	ID            string // Name + "_" + Hash
	Base          string // predecessor's ID, or BaseNone
	SourceInclude string
	SourceExclude string
}

// RenderError wraps a template failure with the layer that caused it.
type RenderError struct {
	Layer string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("layer %q: %v", e.Layer, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Builder renders layer chains. With a nil Store it only computes hashes,
// which is all the list and lock stages need.
type Builder struct {
	Renderer *render.Renderer
	Store    *Store
}

// Build walks the layer definitions in declared order and returns the
// package's artifact chain. Any rendering failure aborts the chain; already
// published store entries from earlier layers stay valid.
func (b *Builder) Build(record map[string]string, layers []spec.LayerDef) ([]Artifact, error) {
	base := BaseNone
	artifacts := make([]Artifact, 0, len(layers))

	for _, def := range layers {
		ctx := make(map[string]string, len(record)+1)
		for k, v := range record {
			ctx[k] = v
		}
		ctx[BaseKey] = base

		text, err := b.Renderer.Render(def.Name, def.Dockerfile, ctx)
		if err != nil {
			return nil, &RenderError{Layer: def.Name, Err: err}
		}

		content := []byte(text)
		a := Artifact{
			Name:          def.Name,
			Hash:          contentHash(content),
			Base:          base,
			SourceInclude: def.SourceInclude,
			SourceExclude: def.SourceExclude,
		}
		a.ID = a.Name + "_" + a.Hash

		if b.Store != nil {
			if err := b.Store.Put(a, content); err != nil {
				return nil, err
			}
		}

		artifacts = append(artifacts, a)
		base = a.ID
	}

	return artifacts, nil
}

// contentHash returns the hex sha256 of the rendered bytes. This is the
// deduplication key: equal hashes mean equal content.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
