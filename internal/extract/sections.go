package extract

import (
	"regexp"
	"strings"
)

var (
	sectionHeader = regexp.MustCompile(`^(?i)(args|arguments|parameters|returns|examples):\s*(.*)$`)
	argLine       = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(?:\([^)]*\))?\s*:\s*(.*)$`)
)

// docSections is a doc comment split into free prose and the named
// sections recognised by the extractor.
type docSections struct {
	Prose    string
	Args     map[string]string
	Returns  string
	Examples []codeSample
}

type codeSample struct {
	Desc string
	Code string
}

func parseDocSections(text string) docSections {
	sections := docSections{Args: map[string]string{}}
	var (
		prose   []string
		current string
		bodies  = map[string][]string{}
	)
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if m := sectionHeader.FindStringSubmatch(line); m != nil {
			current = canonicalSection(m[1])
			if rest := strings.TrimSpace(m[2]); rest != "" {
				bodies[current] = append(bodies[current], rest)
			}
			continue
		}
		if current == "" {
			prose = append(prose, line)
			continue
		}
		bodies[current] = append(bodies[current], line)
	}

	sections.Prose = strings.TrimSpace(strings.Join(prose, "\n"))
	sections.Args = parseArgs(bodies["args"])
	sections.Returns = strings.TrimSpace(joinParagraph(bodies["returns"]))
	sections.Examples = parseExamples(bodies["examples"])
	return sections
}

func canonicalSection(name string) string {
	switch strings.ToLower(name) {
	case "args", "arguments", "parameters":
		return "args"
	default:
		return strings.ToLower(name)
	}
}

// parseArgs reads "name: text" lines. Indented lines that do not start a new
// entry continue the previous description.
func parseArgs(lines []string) map[string]string {
	out := map[string]string{}
	last := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := argLine.FindStringSubmatch(trimmed); m != nil {
			last = m[1]
			out[last] = strings.TrimSpace(m[2])
			continue
		}
		if last != "" {
			out[last] = strings.TrimSpace(out[last] + " " + trimmed)
		}
	}
	return out
}

// parseExamples treats indented runs as code; a non-indented run before a
// code block becomes its description.
func parseExamples(lines []string) []codeSample {
	var (
		samples []codeSample
		desc    []string
		code    []string
	)
	flush := func() {
		if len(code) == 0 {
			return
		}
		samples = append(samples, codeSample{
			Desc: strings.TrimSpace(strings.Join(desc, " ")),
			Code: strings.TrimRight(dedent(code), "\n"),
		})
		desc, code = nil, nil
	}
	for _, line := range lines {
		switch {
		case strings.TrimSpace(line) == "":
			if len(code) > 0 {
				code = append(code, "")
			}
		case line[0] == ' ' || line[0] == '\t':
			code = append(code, line)
		default:
			flush()
			desc = append(desc, strings.TrimSpace(line))
		}
	}
	flush()
	return samples
}

func dedent(lines []string) string {
	prefix := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if prefix < 0 || indent < prefix {
			prefix = indent
		}
	}
	var b strings.Builder
	for _, line := range lines {
		if len(line) >= prefix && prefix > 0 {
			line = line[prefix:]
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimLeft(b.String(), "\n")
}

func joinParagraph(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

// splitParagraphs separates prose at blank lines.
func splitParagraphs(prose string) []string {
	var (
		out  []string
		curr []string
	)
	for _, line := range strings.Split(prose, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(curr) > 0 {
				out = append(out, strings.Join(curr, "\n"))
				curr = nil
			}
			continue
		}
		curr = append(curr, line)
	}
	if len(curr) > 0 {
		out = append(out, strings.Join(curr, "\n"))
	}
	return out
}
