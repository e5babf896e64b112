// Package markdown discovers Markdown pages, parses their frontmatter,
// collects their headings and renders them to HTML with goldmark, expanding
// authoring tags along the way.
package markdown
