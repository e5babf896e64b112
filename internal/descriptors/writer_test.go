package descriptors

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

func TestWriteDefinition(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "public", "api")

	path, err := WriteDefinition(interfaces.FunctionDescriptor{
		Name:      "ike.Init",
		Signature: "ike.Init(dir string) error",
		Summary:   interfaces.StringPtr("Init scaffolds a project."),
		Args: []interfaces.Arg{
			{Name: "dir", Type: interfaces.StringPtr("string")},
		},
	}, dir)
	if err != nil {
		t.Fatalf("WriteDefinition: %v", err)
	}
	if path != filepath.Join(dir, "ike.Init.json") {
		t.Fatalf("unexpected path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read written file: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "\n    \"name\": \"ike.Init\"") {
		t.Fatalf("expected four-space indentation, got:\n%s", text)
	}
	if !strings.Contains(text, `"examples": []`) {
		t.Fatalf("expected empty examples list, got:\n%s", text)
	}
	if !strings.Contains(text, `"desc": null`) {
		t.Fatalf("expected null desc, got:\n%s", text)
	}

	issues, err := Lint(data)
	if err != nil || len(issues) != 0 {
		t.Fatalf("expected written descriptor to lint clean, got %v %v", issues, err)
	}
}

func TestWriteDefinitionRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"", "a/b", ".."} {
		if _, err := WriteDefinition(interfaces.FunctionDescriptor{Name: name}, dir); err == nil {
			t.Fatalf("expected name %q to be rejected", name)
		}
	}
}
