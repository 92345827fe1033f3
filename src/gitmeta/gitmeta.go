// Package gitmeta resolves commit metadata from the enclosing git
// repository. It backs the reserved GIT_* default variables: a default named
// GIT_SHA, GIT_SHA_SHORT, or GIT_BRANCH that is not set in the environment
// resolves from HEAD instead of its spec value.
package gitmeta

import (
	"fmt"

	git "github.com/go-git/go-git/v5"
)

// Meta holds resolved HEAD metadata.
type Meta struct {
	SHA      string
	ShortSHA string
	Branch   string // empty on detached HEAD
}

// Detect opens the repository containing dir and reads HEAD. A missing
// repository is an error the caller typically downgrades to "no git
// variables available".
func Detect(dir string) (*Meta, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	sha := head.Hash().String()
	m := &Meta{SHA: sha, ShortSHA: sha[:7]}
	if head.Name().IsBranch() {
		m.Branch = head.Name().Short()
	}
	return m, nil
}

// Lookup exposes the metadata under the reserved variable names. It
// satisfies expand.Lookup.
func (m *Meta) Lookup(key string) (string, bool) {
	switch key {
	case "GIT_SHA":
		return m.SHA, true
	case "GIT_SHA_SHORT":
		return m.ShortSHA, true
	case "GIT_BRANCH":
		return m.Branch, m.Branch != ""
	}
	return "", false
}
