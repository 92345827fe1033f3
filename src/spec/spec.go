// Package spec holds the in-memory view of a stratum spec document:
// named defaults, named value templates, the ordered layer list, and the
// ordered package override list. The spec is read once per run and never
// mutated afterwards; everything else in the pipeline is derived from it.
package spec

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const DefaultFile = "stratum.yml"

// Spec is the top-level spec document.
type Spec struct {
	Defaults  map[string]string   `yaml:"defaults" toml:"defaults"`
	Templates map[string]string   `yaml:"templates" toml:"templates"`
	Layers    []LayerDef          `yaml:"layers" toml:"layers"`
	Packages  []map[string]string `yaml:"packages" toml:"packages"`
}

// LayerDef is one Dockerfile-producing stage. Order in Spec.Layers is
// significant: it defines the base-layer chain.
type LayerDef struct {
	Name          string `yaml:"name" toml:"name"`
	Dockerfile    string `yaml:"dockerfile" toml:"dockerfile"`
	SourceInclude string `yaml:"source_include" toml:"source_include"`
	SourceExclude string `yaml:"source_exclude" toml:"source_exclude"`
}

// Load reads and validates a spec document. If path is empty, it tries the
// default file. Files ending in .toml parse as TOML; everything else as YAML.
func Load(path string) (*Spec, error) {
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec: %w", err)
	}

	s := &Spec{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, s)
	} else {
		err = yaml.Unmarshal(data, s)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing spec %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("spec %s: %w", path, err)
	}
	return s, nil
}

// Validate checks the spec for authoring errors: unnamed or duplicate layers,
// layers without a Dockerfile template, empty template names, and a VERSION
// default that is not valid semver.
func (s *Spec) Validate() error {
	seen := make(map[string]bool, len(s.Layers))
	for i, l := range s.Layers {
		if l.Name == "" {
			return fmt.Errorf("layer %d has no name", i+1)
		}
		if l.Dockerfile == "" {
			return fmt.Errorf("layer %q has no dockerfile template", l.Name)
		}
		if seen[l.Name] {
			return fmt.Errorf("duplicate layer name %q", l.Name)
		}
		seen[l.Name] = true
	}

	for name := range s.Templates {
		if name == "" {
			return fmt.Errorf("template with empty name")
		}
	}

	// A VERSION default, when declared, must be parseable so that downstream
	// tags and build args are well-formed.
	if v, ok := s.Defaults["VERSION"]; ok && v != "" {
		if _, err := semver.NewVersion(v); err != nil {
			return fmt.Errorf("default VERSION %q is not valid semver: %w", v, err)
		}
	}

	return nil
}

// TemplateNames returns the template names in lexicographic order, for
// deterministic iteration.
func (s *Spec) TemplateNames() []string {
	names := make([]string, 0, len(s.Templates))
	for name := range s.Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
