// Package command emits per-package build scripts: one directly executable
// docker buildx invocation with every resolved field passed as a build arg.
package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sofmeright/stratum/src/lock"
)

// NameField is the record field naming the package. Scripts and image tags
// derive from it.
const NameField = "PACKAGE_NAME"

// ErrNoPackageName means a record cannot be turned into a build command.
var ErrNoPackageName = errors.New("record has no " + NameField + " field")

// FileName returns the script file name for a package.
func FileName(name string) string {
	return "build-" + name + ".sh"
}

// Script renders the build script for one record. dockerfile is the path to
// the package's final layer Dockerfile; empty means the default ./Dockerfile.
func Script(rec lock.Record, dockerfile string) (string, error) {
	name, ok := rec.Fields[NameField]
	if !ok || name == "" {
		return "", ErrNoPackageName
	}

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString(lock.Banner)
	fmt.Fprintf(&b, "# package: %s\n", name)
	b.WriteString("set -eu\n\n")

	b.WriteString("docker buildx build \\\n")
	for _, k := range sortedKeys(rec.Fields) {
		fmt.Fprintf(&b, "  --build-arg %s \\\n", quote(k+"="+rec.Fields[k]))
	}
	fmt.Fprintf(&b, "  --build-arg %s \\\n", quote(lock.SpecIDField+"="+rec.SpecID))
	fmt.Fprintf(&b, "  --tag %s \\\n", quote(name+":"+shortID(rec.SpecID)))
	if dockerfile != "" {
		fmt.Fprintf(&b, "  --file %s \\\n", quote(dockerfile))
	}
	b.WriteString("  .\n")

	return b.String(), nil
}

// quote single-quotes a value for /bin/sh.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
