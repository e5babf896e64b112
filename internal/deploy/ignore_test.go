package deploy

import (
	"strings"
	"testing"
)

func TestIgnoreMatcher(t *testing.T) {
	matcher, err := ParseIgnore(strings.NewReader(`
# build output
node_modules/
*.log
/dist
docs/drafts/*.md
!keep.log
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cases := []struct {
		rel   string
		isDir bool
		want  bool
	}{
		{"node_modules", true, true},
		{"web/node_modules", true, true},
		{"node_modules", false, false},
		{"debug.log", false, true},
		{"logs/app.log", false, true},
		{"keep.log", false, false},
		{"dist", true, true},
		{"web/dist", true, false},
		{"docs/drafts/wip.md", false, true},
		{"docs/drafts/nested/wip.md", false, false},
		{"docs/index.md", false, false},
	}
	for _, tc := range cases {
		if got := matcher.Match(tc.rel, tc.isDir); got != tc.want {
			t.Fatalf("Match(%q, %v) = %v, want %v", tc.rel, tc.isDir, got, tc.want)
		}
	}
}

func TestIgnoreMatcherDoubleStar(t *testing.T) {
	matcher, err := ParseIgnore(strings.NewReader("**/secret.txt\nlogs/**\ndocs/**/draft.md\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cases := []struct {
		rel  string
		want bool
	}{
		{"secret.txt", true},
		{"a/secret.txt", true},
		{"a/b/secret.txt", true},
		{"secret.txt.bak", false},
		{"logs/app.log", true},
		{"logs/2024/app.log", true},
		{"docs/draft.md", true},
		{"docs/guide/draft.md", true},
		{"docs/guide/deep/draft.md", true},
		{"notes/draft.md", false},
	}
	for _, tc := range cases {
		if got := matcher.Match(tc.rel, false); got != tc.want {
			t.Fatalf("Match(%q) = %v, want %v", tc.rel, got, tc.want)
		}
	}
}

func TestNilIgnoreMatcherMatchesNothing(t *testing.T) {
	var matcher *IgnoreMatcher
	if matcher.Match("anything", false) {
		t.Fatalf("nil matcher should not ignore")
	}
}

func TestLoadIgnoreFileMissing(t *testing.T) {
	matcher, err := LoadIgnoreFile(t.TempDir() + "/.gitignore")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if matcher.Match("a.txt", false) {
		t.Fatalf("empty matcher should not ignore")
	}
}
