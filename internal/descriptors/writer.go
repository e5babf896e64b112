package descriptors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

// WriteDefinition writes def to {dir}/{name}.json indented by four spaces,
// creating dir when needed. It returns the written path.
func WriteDefinition(def interfaces.FunctionDescriptor, dir string) (string, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return "", fmt.Errorf("descriptors: definition name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: definition name %q", ErrInvalidPath, name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("descriptors: create %s: %w", dir, err)
	}

	if def.Args == nil {
		def.Args = []interfaces.Arg{}
	}
	if def.Examples == nil {
		def.Examples = []interfaces.Example{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(def); err != nil {
		return "", fmt.Errorf("descriptors: encode %s: %w", name, err)
	}

	target := filepath.Join(dir, name+".json")
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("descriptors: write %s: %w", target, err)
	}
	return target, nil
}
