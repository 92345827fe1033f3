// Package lock assembles fully resolved package records into the lock
// artifact. Output is deterministic: record fields serialize in lexicographic
// key order and the banner carries no timestamp, so re-running with unchanged
// inputs reproduces the artifact byte for byte.
package lock

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field names appended to every record in the lock artifact.
const (
	ChecksumsField = "LAYER_CHECKSUMS"
	SpecIDField    = "PACKAGE_SPEC_ID"
)

// Banner marks the lock artifact as generated. It is fixed text: anything
// run-dependent here would break reproducibility.
const Banner = "# Code generated by stratum. DO NOT EDIT.\n"

// Record is one fully resolved package: the merged fields, the ordered layer
// content hashes, and the whole-record spec id.
type Record struct {
	Fields         map[string]string
	LayerChecksums []string
	SpecID         string
}

// Identify extends a package record with its layer hashes and computes the
// final spec id.
func Identify(fields map[string]string, checksums []string) Record {
	return Record{
		Fields:         fields,
		LayerChecksums: checksums,
		SpecID:         SpecID(fields, checksums),
	}
}

// SpecID hashes the canonical serialization of a record: fields as k=v lines
// in lexicographic key order, then the ordered layer checksums. Semantically
// identical records hash identically regardless of construction order.
func SpecID(fields map[string]string, checksums []string) string {
	h := sha256.New()
	for _, k := range sortedKeys(fields) {
		fmt.Fprintf(h, "%s=%s\n", k, fields[k])
	}
	fmt.Fprintf(h, "%s=%s\n", ChecksumsField, strings.Join(checksums, ","))
	return hex.EncodeToString(h.Sum(nil))
}

// Lockfile is the ordered collection of all package records for one run.
type Lockfile struct {
	Packages []Record
}

// Encode writes the banner and the YAML document.
func (l *Lockfile) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, Banner); err != nil {
		return err
	}

	packages := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range l.Packages {
		packages.Content = append(packages.Content, recordNode(r))
	}
	root := &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: []*yaml.Node{strNode("packages"), packages},
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encoding lock artifact: %w", err)
	}
	return enc.Close()
}

// WriteFile publishes the lock artifact via write-then-rename so a failed
// run never leaves a partial artifact that looks complete.
func (l *Lockfile) WriteFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	if err := l.Encode(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// recordNode builds a YAML mapping with deterministic key order: resolved
// fields sorted lexicographically, then LAYER_CHECKSUMS, then
// PACKAGE_SPEC_ID.
func recordNode(r Record) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range sortedKeys(r.Fields) {
		node.Content = append(node.Content, strNode(k), strNode(r.Fields[k]))
	}

	checksums := &yaml.Node{Kind: yaml.SequenceNode}
	for _, c := range r.LayerChecksums {
		checksums.Content = append(checksums.Content, strNode(c))
	}
	node.Content = append(node.Content, strNode(ChecksumsField), checksums)
	node.Content = append(node.Content, strNode(SpecIDField), strNode(r.SpecID))
	return node
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
