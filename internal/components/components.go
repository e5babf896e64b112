// Package components renders the documentation site's display components:
// the function reference, the raw file view, navigation, the table of
// contents and the page layout.
package components

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

// StylesheetPath is where the site serves the bundled stylesheet.
const StylesheetPath = "/_ike/ike.css"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static exposes the bundled assets, rooted so ike.css sits at the top.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer executes the component templates. It is safe for concurrent use.
type Renderer struct {
	templates *template.Template
	language  string
	brand     string
}

type Option func(*Renderer)

// WithCodeLanguage sets the language tag of rendered code blocks.
func WithCodeLanguage(language string) Option {
	return func(r *Renderer) {
		if trimmed := strings.TrimSpace(language); trimmed != "" {
			r.language = trimmed
		}
	}
}

// WithBrand sets the text of the top navigation home link.
func WithBrand(brand string) Option {
	return func(r *Renderer) {
		if trimmed := strings.TrimSpace(brand); trimmed != "" {
			r.brand = trimmed
		}
	}
}

func New(opts ...Option) (*Renderer, error) {
	tmpl, err := template.New("components").
		Funcs(template.FuncMap{"codeBlock": codeBlock}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("components: parse templates: %w", err)
	}

	r := &Renderer{
		templates: tmpl,
		language:  "go",
		brand:     "Ike",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// FunctionReference renders a descriptor, or the loading state when it is
// nil.
func (r *Renderer) FunctionReference(descriptor *interfaces.FunctionDescriptor) (template.HTML, error) {
	return r.execute("function_reference", NewFunctionView(descriptor, r.language))
}

// File renders the raw data view.
func (r *Renderer) File(data any, loaded bool) (template.HTML, error) {
	return r.execute("file", NewFileView(data, loaded))
}

func (r *Renderer) SideNav(sections []interfaces.Section, currentPath string) (template.HTML, error) {
	return r.execute("side_nav", NewSideNavView(sections, currentPath))
}

func (r *Renderer) TableOfContents(headings []interfaces.Heading) (template.HTML, error) {
	return r.execute("toc", NewTOCView(headings))
}

func (r *Renderer) TopNav() (template.HTML, error) {
	return r.execute("top_nav", TopNavView{Brand: r.brand})
}

// Loading renders the placeholder shown by a reference page without a name.
func (r *Renderer) Loading() template.HTML {
	return template.HTML("<p>Loading...</p>")
}

// Page writes a complete HTML document. Title and description fall back to
// DefaultTitle and DefaultDescription.
func (r *Renderer) Page(w io.Writer, page PageView) error {
	view := layoutView{
		Title:          orDefault(strings.TrimSpace(page.Title), DefaultTitle),
		Description:    orDefault(strings.TrimSpace(page.Description), DefaultDescription),
		StylesheetPath: StylesheetPath,
		TopNav:         TopNavView{Brand: r.brand},
		SideNav:        NewSideNavView(page.Sidebar, page.CurrentPath),
		TOC:            NewTOCView(page.Headings),
		Content:        page.Content,
	}
	if err := r.templates.ExecuteTemplate(w, "layout", view); err != nil {
		return fmt.Errorf("components: render layout: %w", err)
	}
	return nil
}

func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("components: render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
