package extract

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

type captureLogger struct {
	mu       sync.Mutex
	messages []string
}

func (c *captureLogger) Trace(string, ...any) {}
func (c *captureLogger) Debug(string, ...any) {}
func (c *captureLogger) Info(string, ...any)  {}
func (c *captureLogger) Warn(msg string, _ ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}
func (c *captureLogger) Error(string, ...any) {}
func (c *captureLogger) Fatal(string, ...any) {}
func (c *captureLogger) WithFields(map[string]any) interfaces.Logger {
	return c
}
func (c *captureLogger) WithContext(context.Context) interfaces.Logger {
	return c
}

func extractSample(t *testing.T, opts ...Option) map[string]interfaces.FunctionDescriptor {
	t.Helper()
	descs, err := New(opts...).Extract(context.Background(), filepath.Join("testdata", "sample"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	byName := make(map[string]interfaces.FunctionDescriptor, len(descs))
	for _, desc := range descs {
		byName[desc.Name] = desc
	}
	return byName
}

func deref(value *string) string {
	if value == nil {
		return "<nil>"
	}
	return *value
}

func TestExtractNamesExportedFunctions(t *testing.T) {
	descs := extractSample(t)

	want := []string{
		"sample.Greet",
		"sample.NewGreeter",
		"sample.internal.util.Join",
	}
	if len(descs) != len(want) {
		t.Fatalf("expected %d descriptors, got %d: %v", len(want), len(descs), descs)
	}
	for _, name := range want {
		if _, ok := descs[name]; !ok {
			t.Fatalf("missing descriptor %s", name)
		}
		if strings.Contains(name, "/") {
			t.Fatalf("descriptor name %s contains a slash", name)
		}
	}
}

func TestExtractDescribesDocSections(t *testing.T) {
	greet := extractSample(t)["sample.Greet"]

	if greet.Signature != "Greet(name string, excited bool) string" {
		t.Fatalf("unexpected signature %q", greet.Signature)
	}
	if got := deref(greet.Summary); got != "Greet returns a greeting for name." {
		t.Fatalf("unexpected summary %q", got)
	}
	if got := deref(greet.Desc); got != "The greeting is always in English." {
		t.Fatalf("unexpected desc %q", got)
	}
	if got := deref(greet.Returns); got != "the greeting text" {
		t.Fatalf("unexpected returns %q", got)
	}

	if len(greet.Args) != 2 {
		t.Fatalf("expected 2 args, got %+v", greet.Args)
	}
	if greet.Args[0].Name != "name" || deref(greet.Args[0].Type) != "string" || deref(greet.Args[0].Desc) != "who to greet" {
		t.Fatalf("unexpected first arg %+v", greet.Args[0])
	}
	if greet.Args[1].Name != "excited" || deref(greet.Args[1].Type) != "bool" {
		t.Fatalf("unexpected second arg %+v", greet.Args[1])
	}

	if len(greet.Examples) != 2 {
		t.Fatalf("expected 2 examples, got %+v", greet.Examples)
	}
	if deref(greet.Examples[0].Desc) != "Greeting someone politely." {
		t.Fatalf("unexpected example desc %q", deref(greet.Examples[0].Desc))
	}
	if greet.Examples[0].Code != `fmt.Println(sample.Greet("Ada", false))` {
		t.Fatalf("unexpected example code %q", greet.Examples[0].Code)
	}
	if deref(greet.Examples[1].Desc) != "Greeting a user" || greet.Examples[1].Code != `Greet("Ada", true)` {
		t.Fatalf("unexpected doc example %+v", greet.Examples[1])
	}
}

func TestExtractLeavesAbsentFieldsNil(t *testing.T) {
	join := extractSample(t)["sample.internal.util.Join"]

	if join.Desc != nil || join.Returns != nil {
		t.Fatalf("expected nil desc and returns, got %q %q", deref(join.Desc), deref(join.Returns))
	}
	if len(join.Args) != 1 || deref(join.Args[0].Type) != "...string" || join.Args[0].Desc != nil {
		t.Fatalf("unexpected variadic arg %+v", join.Args)
	}
	if len(join.Examples) != 0 {
		t.Fatalf("expected no examples, got %+v", join.Examples)
	}
}

func TestExtractLogsUnparsablePackages(t *testing.T) {
	logger := &captureLogger{}
	extractSample(t, WithLogger(logger))

	found := false
	for _, msg := range logger.messages {
		if msg == "extract.package.failed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected extract.package.failed warning, got %v", logger.messages)
	}
}

func TestExtractModuleNameOverride(t *testing.T) {
	descs := extractSample(t, WithModuleName("docs"), WithLogger(logging.NoOp()))
	if _, ok := descs["docs.internal.util.Join"]; !ok {
		t.Fatalf("expected override prefix, got %v", descs)
	}
}

func TestExtractToWritesDescriptorFiles(t *testing.T) {
	out := t.TempDir()
	written, err := New().ExtractTo(context.Background(), filepath.Join("testdata", "sample"), out)
	if err != nil {
		t.Fatalf("extract to: %v", err)
	}
	if len(written) != 3 {
		t.Fatalf("expected 3 files, got %v", written)
	}

	data, err := os.ReadFile(filepath.Join(out, "sample.NewGreeter.json"))
	if err != nil {
		t.Fatalf("read descriptor: %v", err)
	}
	var desc interfaces.FunctionDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		t.Fatalf("decode descriptor: %v", err)
	}
	if desc.Signature != "NewGreeter(prefix string) *Greeter" {
		t.Fatalf("unexpected signature %q", desc.Signature)
	}
}

func TestExtractRequiresDirectory(t *testing.T) {
	if _, err := New().Extract(context.Background(), ""); !errors.Is(err, ErrRootRequired) {
		t.Fatalf("expected ErrRootRequired, got %v", err)
	}
	if _, err := New().Extract(context.Background(), filepath.Join("testdata", "sample", "go.mod")); err == nil {
		t.Fatalf("expected error for a file root")
	}
}

func TestExtractWithoutExamples(t *testing.T) {
	descs := extractSample(t, WithExamples(false))
	greet, ok := descs["sample.Greet"]
	if !ok {
		t.Fatalf("expected sample.Greet")
	}
	if greet.Examples == nil || len(greet.Examples) != 0 {
		t.Fatalf("expected empty examples, got %+v", greet.Examples)
	}
}
