package layer

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"
)

func artifactFor(content string) Artifact {
	hash := contentHash([]byte(content))
	return Artifact{
		Name:          "base",
		Hash:          hash,
		ID:            "base_" + hash,
		Base:          BaseNone,
		SourceInclude: "*.go",
		SourceExclude: "*_test.go",
	}
}

func TestStorePutWritesEntry(t *testing.T) {
	store := NewStore(t.TempDir())
	content := "FROM alpine"
	a := artifactFor(content)

	if err := store.Put(a, []byte(content)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := os.ReadFile(store.DockerfilePath(a))
	if err != nil {
		t.Fatalf("reading Dockerfile: %v", err)
	}
	if string(got) != content {
		t.Errorf("content = %q, want %q", got, content)
	}

	metaData, err := os.ReadFile(filepath.Join(store.Root(), a.Name, a.Hash+".yml"))
	if err != nil {
		t.Fatalf("reading metadata: %v", err)
	}
	var meta chainMeta
	if err := yaml.Unmarshal(metaData, &meta); err != nil {
		t.Fatalf("parsing metadata: %v", err)
	}
	want := chainMeta{ID: a.ID, Base: BaseNone, SourceInclude: "*.go", SourceExclude: "*_test.go"}
	if meta != want {
		t.Errorf("meta = %+v, want %+v", meta, want)
	}
}

func TestStorePutIdempotent(t *testing.T) {
	dir := t.TempDir()
	content := "FROM alpine"
	a := artifactFor(content)

	store := NewStore(dir)
	if err := store.Put(a, []byte(content)); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := store.Put(a, []byte(content)); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	// A fresh store handle on the same directory (a re-run) must also leave
	// the entry alone.
	rerun := NewStore(dir)
	if err := rerun.Put(a, []byte(content)); err != nil {
		t.Fatalf("re-run Put: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, a.Name))
	if err != nil {
		t.Fatalf("reading store dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 2 {
		t.Errorf("store dir has %d entries, want Dockerfile + metadata", len(entries))
	}
}

func TestStoreConcurrentPut(t *testing.T) {
	store := NewStore(t.TempDir())
	content := "FROM alpine\nRUN apk add curl"
	a := artifactFor(content)

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = store.Put(a, []byte(content))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			t.Fatalf("concurrent Put: %v", err)
		}
	}

	got, err := os.ReadFile(store.DockerfilePath(a))
	if err != nil {
		t.Fatalf("reading entry: %v", err)
	}
	if string(got) != content {
		t.Errorf("entry corrupted by concurrent writes: %q", got)
	}
}
