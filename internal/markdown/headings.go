package markdown

import (
	"strings"

	"github.com/goliatone/go-slug"
	"github.com/yuin/goldmark/ast"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

// CollectHeadings parses source with the default extensions and returns
// its headings in document order.
func CollectHeadings(source []byte) []interfaces.Heading {
	return NewGoldmarkParser(interfaces.ParseOptions{}).Headings(source, interfaces.ParseOptions{})
}

// collectHeadings keeps a heading only when its first child is plain text.
// The title is that leading run of text; the id comes from the heading's id
// attribute, or a slug of the title when the attribute is missing.
func collectHeadings(root ast.Node, source []byte) []interfaces.Heading {
	var headings []interfaces.Heading

	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		title, ok := leadingText(heading, source)
		if !ok {
			return ast.WalkSkipChildren, nil
		}

		level := heading.Level
		if level <= 0 {
			level = 1
		}

		headings = append(headings, interfaces.Heading{
			ID:    headingID(heading, title),
			Level: level,
			Title: title,
		})
		return ast.WalkSkipChildren, nil
	})

	return headings
}

func leadingText(heading *ast.Heading, source []byte) (string, bool) {
	if _, ok := heading.FirstChild().(*ast.Text); !ok {
		return "", false
	}

	var b strings.Builder
	for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
		textNode, ok := child.(*ast.Text)
		if !ok {
			break
		}
		b.Write(textNode.Segment.Value(source))
		if textNode.SoftLineBreak() {
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String()), true
}

func headingID(heading *ast.Heading, title string) string {
	if value, ok := heading.AttributeString("id"); ok {
		switch id := value.(type) {
		case []byte:
			if len(id) > 0 {
				return string(id)
			}
		case string:
			if id != "" {
				return id
			}
		}
	}
	id, err := slug.Normalize(title)
	if err != nil {
		return ""
	}
	return id
}
