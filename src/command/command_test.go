package command

import (
	"errors"
	"strings"
	"testing"

	"github.com/sofmeright/stratum/src/lock"
)

func TestScript(t *testing.T) {
	rec := lock.Identify(map[string]string{
		"PACKAGE_NAME": "api",
		"COLOR":        "blue",
		"MOTTO":        "it's fine",
	}, []string{"aaa"})

	script, err := Script(rec, ".stratum/layers/app/aaa.Dockerfile")
	if err != nil {
		t.Fatalf("Script: %v", err)
	}

	if !strings.HasPrefix(script, "#!/bin/sh\n") {
		t.Error("script missing shebang")
	}
	if !strings.Contains(script, lock.Banner) {
		t.Error("script missing generation banner")
	}
	for _, want := range []string{
		"--build-arg 'COLOR=blue'",
		"--build-arg 'PACKAGE_NAME=api'",
		"--build-arg 'PACKAGE_SPEC_ID=" + rec.SpecID + "'",
		"--tag 'api:" + rec.SpecID[:12] + "'",
		"--file '.stratum/layers/app/aaa.Dockerfile'",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q:\n%s", want, script)
		}
	}

	// Single quotes in values must be escaped for /bin/sh.
	if !strings.Contains(script, `'MOTTO=it'\''s fine'`) {
		t.Errorf("single quote not escaped:\n%s", script)
	}

	// Fields appear in sorted order.
	if strings.Index(script, "COLOR=") > strings.Index(script, "MOTTO=") {
		t.Error("build args not sorted")
	}
}

func TestScriptWithoutDockerfile(t *testing.T) {
	rec := lock.Identify(map[string]string{"PACKAGE_NAME": "api"}, nil)

	script, err := Script(rec, "")
	if err != nil {
		t.Fatalf("Script: %v", err)
	}
	if strings.Contains(script, "--file") {
		t.Error("script has --file without a dockerfile path")
	}
}

func TestScriptRequiresName(t *testing.T) {
	rec := lock.Identify(map[string]string{"COLOR": "blue"}, nil)

	_, err := Script(rec, "")
	if !errors.Is(err, ErrNoPackageName) {
		t.Fatalf("err = %v, want ErrNoPackageName", err)
	}
}
