// Package scan runs a secret detector over the rendered Dockerfiles in the
// layer store. Rendered layers interpolate resolved variables, so a
// credential that leaked into the spec or environment surfaces here before
// any image is built or pushed.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Finding is one detected secret in a store entry.
type Finding struct {
	Path        string // store-relative path of the Dockerfile
	Line        int
	RuleID      string
	Description string
}

// Scanner wraps a gitleaks detector with its default ruleset.
type Scanner struct {
	detector *detect.Detector
}

func New() (*Scanner, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("initializing secret detector: %w", err)
	}
	return &Scanner{detector: d}, nil
}

// Store scans every .Dockerfile under root and returns all findings.
func (s *Scanner) Store(root string) ([]Finding, error) {
	var findings []Finding

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".Dockerfile") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		for _, h := range s.detector.DetectBytes(data) {
			findings = append(findings, Finding{
				Path:        rel,
				Line:        h.StartLine + 1, // gitleaks is 0-indexed
				RuleID:      h.RuleID,
				Description: h.Description,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning store: %w", err)
	}
	return findings, nil
}
