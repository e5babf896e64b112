package deploy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// IgnoreMatcher applies .gitignore style rules to slash separated paths
// relative to the project root. Later rules win, so a "!" rule can re-include
// a path an earlier rule excluded.
type IgnoreMatcher struct {
	rules []ignoreRule
}

type ignoreRule struct {
	matchers []glob.Glob
	negate   bool
	dirOnly  bool
	basename bool
}

// LoadIgnoreFile reads rules from path. A missing file yields an empty
// matcher.
func LoadIgnoreFile(path string) (*IgnoreMatcher, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &IgnoreMatcher{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("deploy: open %s: %w", path, err)
	}
	defer file.Close()
	return ParseIgnore(file)
}

// ParseIgnore compiles one rule per line, skipping blanks and comments.
func ParseIgnore(r io.Reader) (*IgnoreMatcher, error) {
	matcher := &IgnoreMatcher{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule := ignoreRule{}
		if strings.HasPrefix(line, "!") {
			rule.negate = true
			line = line[1:]
		} else if strings.HasPrefix(line, `\`) {
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			rule.dirOnly = true
			line = strings.TrimRight(line, "/")
		}
		if line == "" {
			continue
		}
		anchored := strings.HasPrefix(line, "/")
		line = strings.TrimPrefix(line, "/")
		rule.basename = !anchored && !strings.Contains(line, "/")

		for _, pattern := range expandDoubleStar(line) {
			compiled, err := glob.Compile(pattern, '/')
			if err != nil {
				return nil, fmt.Errorf("deploy: ignore pattern %q: %w", line, err)
			}
			rule.matchers = append(rule.matchers, compiled)
		}
		matcher.rules = append(matcher.rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("deploy: read ignore rules: %w", err)
	}
	return matcher, nil
}

// Match reports whether rel is ignored.
func (m *IgnoreMatcher) Match(rel string, isDir bool) bool {
	if m == nil {
		return false
	}
	rel = strings.Trim(path.Clean("/"+strings.ReplaceAll(rel, `\`, "/")), "/")
	if rel == "" {
		return false
	}
	ignored := false
	for _, rule := range m.rules {
		if rule.dirOnly && !isDir {
			continue
		}
		target := rel
		if rule.basename {
			target = path.Base(rel)
		}
		for _, compiled := range rule.matchers {
			if compiled.Match(target) {
				ignored = !rule.negate
				break
			}
		}
	}
	return ignored
}

// expandDoubleStar lists the glob patterns equivalent to a gitignore
// pattern. A leading "**/" and an inner "/**/" also match zero directories,
// which a glob "**" bounded by separators cannot express.
func expandDoubleStar(pattern string) []string {
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		return append(expandDoubleStar(rest), prefixAll("**/", expandDoubleStar(rest))...)
	}
	before, after, ok := strings.Cut(pattern, "/**/")
	if !ok {
		return []string{pattern}
	}
	var out []string
	for _, tail := range expandDoubleStar(after) {
		out = append(out, before+"/"+tail, before+"/**/"+tail)
	}
	return out
}

func prefixAll(prefix string, patterns []string) []string {
	out := make([]string, len(patterns))
	for i, pattern := range patterns {
		out[i] = prefix + pattern
	}
	return out
}
