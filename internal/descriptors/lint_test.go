package descriptors

import (
	"strings"
	"testing"
)

func TestLintAcceptsExtractorOutput(t *testing.T) {
	issues, err := Lint(readFixture(t, "testdata/ike.Init.json"))
	if err != nil {
		t.Fatalf("Lint: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}

func TestLintReportsIssues(t *testing.T) {
	issues, err := Lint([]byte(`{"name": "", "args": [{"type": 3}], "examples": [{}]}`))
	if err != nil {
		t.Fatalf("Lint: %v", err)
	}
	if len(issues) == 0 {
		t.Fatal("expected issues")
	}
	joined := make([]string, len(issues))
	for i, issue := range issues {
		joined[i] = issue.String()
	}
	report := strings.Join(joined, "\n")
	for _, want := range []string{"signature", "/args/0", "/examples/0"} {
		if !strings.Contains(report, want) {
			t.Fatalf("expected report to mention %s, got:\n%s", want, report)
		}
	}
}

func TestLintRejectsInvalidJSON(t *testing.T) {
	if _, err := Lint([]byte(`{`)); err == nil {
		t.Fatal("expected JSON error")
	}
}
