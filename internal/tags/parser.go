package tags

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

const (
	openDelim  = "{%"
	closeDelim = "%}"

	placeholderPrefix = "IKETAGPLACEHOLDER"
)

// Placeholder returns the token that stands in for the i-th extracted tag.
// It is plain text so it survives Markdown conversion unchanged.
func Placeholder(i int) string {
	return fmt.Sprintf("%s%dX", placeholderPrefix, i)
}

// MarkdocParser parses Markdoc-style tags:
//
//	{% name attr="value" /%}
//	{% name attr="value" %}inner{% /name %}
//
// An opening tag with no matching closing tag is treated as self-closing.
type MarkdocParser struct{}

func NewMarkdocParser() *MarkdocParser {
	return &MarkdocParser{}
}

// Parse returns the tags found in content in completion order.
func (p *MarkdocParser) Parse(content string) ([]interfaces.ParsedTag, error) {
	_, tags, err := p.Extract(content)
	return tags, err
}

type openTag struct {
	name  string
	attrs map[string]any
	start int
}

type rawTag struct {
	name        string
	attrs       map[string]any
	closing     bool
	selfClosing bool
}

// Extract replaces tags with placeholders, returning the transformed content
// and the tags indexed by placeholder number. Nested tags receive lower
// indexes than the tag that encloses them.
func (p *MarkdocParser) Extract(content string) (string, []interfaces.ParsedTag, error) {
	var (
		out   []byte
		tags  []interfaces.ParsedTag
		stack []openTag
		pos   int
	)

	emit := func(tag interfaces.ParsedTag) {
		out = append(out, Placeholder(len(tags))...)
		tags = append(tags, tag)
	}

	for pos < len(content) {
		start := strings.Index(content[pos:], openDelim)
		if start < 0 {
			out = append(out, content[pos:]...)
			break
		}
		start += pos
		out = append(out, content[pos:start]...)

		end := findTagEnd(content, start+len(openDelim))
		if end < 0 {
			return "", nil, fmt.Errorf("%w: missing %q for tag at offset %d", ErrMalformedTag, closeDelim, start)
		}
		raw, err := parseTagBody(content[start+len(openDelim) : end])
		if err != nil {
			return "", nil, fmt.Errorf("%w at offset %d", err, start)
		}
		pos = end + len(closeDelim)

		switch {
		case raw.closing:
			if len(stack) == 0 {
				return "", nil, fmt.Errorf("%w: %s at offset %d", ErrUnexpectedClose, raw.name, start)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.name != raw.name {
				return "", nil, fmt.Errorf("%w: %s, expected %s", ErrMismatchedTag, raw.name, top.name)
			}
			inner := strings.TrimSpace(string(out[top.start:]))
			out = out[:top.start]
			emit(interfaces.ParsedTag{Name: top.name, Attrs: top.attrs, Inner: inner})
		case raw.selfClosing || !hasClosingTag(content[pos:], raw.name):
			emit(interfaces.ParsedTag{Name: raw.name, Attrs: raw.attrs, SelfClosing: true})
		default:
			stack = append(stack, openTag{name: raw.name, attrs: raw.attrs, start: len(out)})
		}
	}

	if len(stack) > 0 {
		return "", nil, fmt.Errorf("%w: %s", ErrUnterminatedTag, stack[len(stack)-1].name)
	}
	return string(out), tags, nil
}

// findTagEnd returns the index of the closing delimiter, skipping quoted
// attribute values.
func findTagEnd(content string, from int) int {
	inQuote := false
	for i := from; i < len(content); i++ {
		switch c := content[i]; {
		case inQuote && c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case !inQuote && strings.HasPrefix(content[i:], closeDelim):
			return i
		}
	}
	return -1
}

// hasClosingTag reports whether remainder contains {% /name %}, with any
// whitespace around the slash and the name.
func hasClosingTag(remainder, name string) bool {
	for {
		idx := strings.Index(remainder, openDelim)
		if idx < 0 {
			return false
		}
		remainder = remainder[idx+len(openDelim):]

		rest, ok := strings.CutPrefix(strings.TrimLeftFunc(remainder, unicode.IsSpace), "/")
		if !ok {
			continue
		}
		rest, ok = strings.CutPrefix(strings.TrimLeftFunc(rest, unicode.IsSpace), name)
		if !ok {
			continue
		}
		if strings.HasPrefix(strings.TrimLeftFunc(rest, unicode.IsSpace), closeDelim) {
			return true
		}
	}
}

func parseTagBody(body string) (rawTag, error) {
	body = strings.TrimSpace(body)
	var tag rawTag

	if strings.HasPrefix(body, "/") {
		tag.closing = true
		tag.name = strings.TrimSpace(body[1:])
		if !isName(tag.name) {
			return rawTag{}, fmt.Errorf("%w: closing tag name %q", ErrMalformedTag, tag.name)
		}
		return tag, nil
	}
	if strings.HasSuffix(body, "/") {
		tag.selfClosing = true
		body = strings.TrimSpace(strings.TrimSuffix(body, "/"))
	}

	name, rest := body, ""
	if idx := strings.IndexFunc(body, unicode.IsSpace); idx >= 0 {
		name, rest = body[:idx], body[idx:]
	}
	if !isName(name) {
		return rawTag{}, fmt.Errorf("%w: tag name %q", ErrMalformedTag, name)
	}
	attrs, err := parseAttributes(rest)
	if err != nil {
		return rawTag{}, err
	}
	tag.name = name
	tag.attrs = attrs
	return tag, nil
}

func isName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// parseAttributes reads key=value pairs. Values may be double-quoted
// strings, numbers, true, false or null. A bare key is a true flag.
func parseAttributes(input string) (map[string]any, error) {
	attrs := map[string]any{}
	s := strings.TrimSpace(input)

	for s != "" {
		keyEnd := strings.IndexFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '=' })
		if keyEnd < 0 {
			keyEnd = len(s)
		}
		key := s[:keyEnd]
		if key == "" {
			return nil, fmt.Errorf("%w: attribute without name near %q", ErrMalformedTag, s)
		}
		s = strings.TrimLeftFunc(s[keyEnd:], unicode.IsSpace)

		if !strings.HasPrefix(s, "=") {
			attrs[key] = true
			continue
		}
		s = strings.TrimLeftFunc(s[1:], unicode.IsSpace)

		value, rest, err := readValue(s)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %s: %v", ErrMalformedTag, key, err)
		}
		attrs[key] = value
		s = strings.TrimLeftFunc(rest, unicode.IsSpace)
	}
	return attrs, nil
}

func readValue(s string) (any, string, error) {
	if strings.HasPrefix(s, `"`) {
		for i := 1; i < len(s); i++ {
			switch s[i] {
			case '\\':
				i++
			case '"':
				unquoted, err := strconv.Unquote(s[:i+1])
				if err != nil {
					return nil, "", err
				}
				return unquoted, s[i+1:], nil
			}
		}
		return nil, "", fmt.Errorf("unterminated string")
	}

	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		end = len(s)
	}
	literal := s[:end]
	if literal == "" {
		return nil, "", fmt.Errorf("missing value")
	}
	return parseLiteral(literal), s[end:], nil
}

func parseLiteral(literal string) any {
	switch literal {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if i, err := strconv.Atoi(literal); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(literal, 64); err == nil {
		return f
	}
	return literal
}

var _ interfaces.TagParser = (*MarkdocParser)(nil)
