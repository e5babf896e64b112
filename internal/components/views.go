package components

import (
	"bytes"
	"encoding/json"
	"html/template"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

const (
	// DefaultTitle is used when a page sets no title.
	DefaultTitle = "Markdoc"
	// DefaultDescription is used when a page sets no description.
	DefaultDescription = "A powerful, flexible, Markdown-based authoring framework"

	loadingText = "Loading"
	anyType     = "any"
)

// FunctionView is the render model of the function reference component.
// Fields already carry their placeholder text.
type FunctionView struct {
	Language  string
	Name      string
	Signature string
	Summary   string
	Desc      string
	Args      []ArgView
	Returns   string
	Examples  []ExampleView
}

type ArgView struct {
	Name string
	Type string
	Desc string
}

type ExampleView struct {
	Desc string
	Code string
}

// NewFunctionView maps a descriptor onto the component. A nil descriptor is
// the loading state: every text slot shows "Loading" and both lists are
// empty.
func NewFunctionView(descriptor *interfaces.FunctionDescriptor, language string) FunctionView {
	view := FunctionView{
		Language:  language,
		Name:      loadingText,
		Signature: loadingText,
		Summary:   loadingText,
		Returns:   loadingText,
	}
	if descriptor == nil {
		return view
	}

	view.Name = orDefault(descriptor.Name, loadingText)
	view.Signature = orDefault(descriptor.Signature, loadingText)
	view.Summary = deref(descriptor.Summary, loadingText)
	view.Desc = deref(descriptor.Desc, "")
	view.Returns = deref(descriptor.Returns, loadingText)

	for _, arg := range descriptor.Args {
		view.Args = append(view.Args, ArgView{
			Name: arg.Name,
			Type: deref(arg.Type, anyType),
			Desc: deref(arg.Desc, ""),
		})
	}
	for _, example := range descriptor.Examples {
		view.Examples = append(view.Examples, ExampleView{
			Desc: deref(example.Desc, ""),
			Code: example.Code,
		})
	}
	return view
}

// FileView is the render model of the raw file component.
type FileView struct {
	Loaded bool
	JSON   string
}

// NewFileView pretty prints data with two-space indentation. Data that
// cannot be encoded renders as the loading state.
func NewFileView(data any, loaded bool) FileView {
	if !loaded {
		return FileView{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return FileView{}
	}
	return FileView{Loaded: true, JSON: string(bytes.TrimRight(buf.Bytes(), "\n"))}
}

type SideNavView struct {
	Sections []SectionView
}

type SectionView struct {
	Heading string
	Links   []LinkView
}

type LinkView struct {
	Href   string
	Title  string
	Active bool
}

// NewSideNavView marks the link whose href equals currentPath as active.
func NewSideNavView(sections []interfaces.Section, currentPath string) SideNavView {
	view := SideNavView{Sections: make([]SectionView, 0, len(sections))}
	for _, section := range sections {
		sv := SectionView{Heading: section.Heading}
		for _, link := range section.Links {
			sv.Links = append(sv.Links, LinkView{
				Href:   link.Href,
				Title:  link.Title,
				Active: link.Href == currentPath,
			})
		}
		view.Sections = append(view.Sections, sv)
	}
	return view
}

type TOCView struct {
	Items []interfaces.Heading
}

// NewTOCView keeps level 2 and 3 headings that have an id. The list is
// dropped entirely when fewer than two entries remain.
func NewTOCView(headings []interfaces.Heading) TOCView {
	var items []interfaces.Heading
	for _, heading := range headings {
		if heading.ID == "" || (heading.Level != 2 && heading.Level != 3) {
			continue
		}
		items = append(items, heading)
	}
	if len(items) <= 1 {
		return TOCView{}
	}
	return TOCView{Items: items}
}

type TopNavView struct {
	Brand string
}

// PageView is the input of the page layout.
type PageView struct {
	Title       string
	Description string
	CurrentPath string
	Sidebar     []interfaces.Section
	Headings    []interfaces.Heading
	Content     template.HTML
}

type layoutView struct {
	Title          string
	Description    string
	StylesheetPath string
	TopNav         TopNavView
	SideNav        SideNavView
	TOC            TOCView
	Content        template.HTML
}

type codeBlockView struct {
	Language string
	Code     string
}

func codeBlock(language, code string) codeBlockView {
	return codeBlockView{Language: language, Code: code}
}

func deref(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
