package spec

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeSpec(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeSpec(t, "stratum.yml", `
defaults:
  COLOR: blue
templates:
  GREETING: "hello {{.COLOR}}"
layers:
  - name: base
    dockerfile: "FROM alpine"
    source_include: "*.go"
    source_exclude: "*_test.go"
packages:
  - {}
  - COLOR: red
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.Defaults["COLOR"] != "blue" {
		t.Errorf("COLOR = %q, want blue", s.Defaults["COLOR"])
	}
	if len(s.Packages) != 2 {
		t.Fatalf("packages = %d, want 2", len(s.Packages))
	}
	if s.Packages[1]["COLOR"] != "red" {
		t.Errorf("package 2 COLOR = %q, want red", s.Packages[1]["COLOR"])
	}
	want := LayerDef{Name: "base", Dockerfile: "FROM alpine", SourceInclude: "*.go", SourceExclude: "*_test.go"}
	if !reflect.DeepEqual(s.Layers[0], want) {
		t.Errorf("layer = %+v, want %+v", s.Layers[0], want)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeSpec(t, "stratum.toml", `
[defaults]
COLOR = "blue"

[templates]
GREETING = "hello {{.COLOR}}"

[[layers]]
name = "base"
dockerfile = "FROM alpine"

[[packages]]
COLOR = "red"
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Defaults["COLOR"] != "blue" {
		t.Errorf("COLOR = %q, want blue", s.Defaults["COLOR"])
	}
	if s.Layers[0].Name != "base" {
		t.Errorf("layer name = %q, want base", s.Layers[0].Name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error for missing spec")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr string
	}{
		{
			name: "valid",
			spec: Spec{
				Defaults: map[string]string{"VERSION": "1.2.3"},
				Layers:   []LayerDef{{Name: "base", Dockerfile: "FROM alpine"}},
			},
		},
		{
			name:    "unnamed layer",
			spec:    Spec{Layers: []LayerDef{{Dockerfile: "FROM alpine"}}},
			wantErr: "has no name",
		},
		{
			name:    "layer without dockerfile",
			spec:    Spec{Layers: []LayerDef{{Name: "base"}}},
			wantErr: "no dockerfile template",
		},
		{
			name: "duplicate layer name",
			spec: Spec{Layers: []LayerDef{
				{Name: "base", Dockerfile: "FROM alpine"},
				{Name: "base", Dockerfile: "FROM debian"},
			}},
			wantErr: "duplicate layer name",
		},
		{
			name:    "invalid VERSION default",
			spec:    Spec{Defaults: map[string]string{"VERSION": "not-a-version"}},
			wantErr: "not valid semver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestTemplateNamesSorted(t *testing.T) {
	s := &Spec{Templates: map[string]string{"ZETA": "z", "ALPHA": "a", "MID": "m"}}
	got := s.TemplateNames()
	want := []string{"ALPHA", "MID", "ZETA"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TemplateNames = %v, want %v", got, want)
	}
}
