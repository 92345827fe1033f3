package layer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// WriteError reports a store entry that could not be published atomically.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store is the shared content-addressed layer store. Layout on disk:
//
//	<root>/<layer-name>/<hash>.Dockerfile   rendered text
//	<root>/<layer-name>/<hash>.yml          chain-of-custody metadata
//
// Put is idempotent and safe for concurrent producers of the same
// (name, hash) entry: content is guaranteed identical for equal hashes, and
// every file is published by write-then-rename, so a reader never observes a
// partial entry.
type Store struct {
	root string

	mu   sync.Mutex
	seen map[string]bool
}

// chainMeta records how a store entry was produced.
type chainMeta struct {
	ID            string `yaml:"id"`
	Base          string `yaml:"base"`
	SourceInclude string `yaml:"source_include"`
	SourceExclude string `yaml:"source_exclude"`
}

func NewStore(root string) *Store {
	return &Store{root: root, seen: make(map[string]bool)}
}

func (s *Store) Root() string { return s.root }

// Put publishes one artifact. Entries already published, in this run or by
// an earlier one, are left untouched.
func (s *Store) Put(a Artifact, content []byte) error {
	key := a.Name + "/" + a.Hash

	s.mu.Lock()
	if s.seen[key] {
		s.mu.Unlock()
		return nil
	}
	s.seen[key] = true
	s.mu.Unlock()

	dir := filepath.Join(s.root, a.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: dir, Err: err}
	}

	dockerfile := filepath.Join(dir, a.Hash+".Dockerfile")
	if _, err := os.Stat(dockerfile); err == nil {
		return nil // published by an earlier run
	}

	meta, err := yaml.Marshal(chainMeta{
		ID:            a.ID,
		Base:          a.Base,
		SourceInclude: a.SourceInclude,
		SourceExclude: a.SourceExclude,
	})
	if err != nil {
		return &WriteError{Path: dockerfile, Err: err}
	}

	// Metadata first, Dockerfile last: an entry only looks complete once the
	// Dockerfile exists.
	metaPath := filepath.Join(dir, a.Hash+".yml")
	if err := writeAtomic(metaPath, meta); err != nil {
		return &WriteError{Path: metaPath, Err: err}
	}
	if err := writeAtomic(dockerfile, content); err != nil {
		return &WriteError{Path: dockerfile, Err: err}
	}
	return nil
}

// DockerfilePath returns where an artifact's rendered text lives in the store.
func (s *Store) DockerfilePath(a Artifact) string {
	return filepath.Join(s.root, a.Name, a.Hash+".Dockerfile")
}

// writeAtomic writes data to a temporary file in the target directory and
// renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
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
