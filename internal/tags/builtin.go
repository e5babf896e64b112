package tags

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/goliatone/go-ike/internal/descriptors"
	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

// ReferenceFetcher loads the documents the built-in tags display.
type ReferenceFetcher interface {
	Function(ctx context.Context, path string) (*interfaces.FunctionDescriptor, error)
	Raw(ctx context.Context, path string) (any, error)
}

// ReferenceViews renders the display components used by built-in tags.
type ReferenceViews interface {
	FunctionReference(descriptor *interfaces.FunctionDescriptor) (template.HTML, error)
	File(data any, loaded bool) (template.HTML, error)
}

// BuiltInDeps carries the collaborators of the built-in tags.
type BuiltInDeps struct {
	Fetcher ReferenceFetcher
	Views   ReferenceViews
	Logger  interfaces.Logger
}

// BuiltInDefinitions returns the tag catalogue shipped with ike.
func BuiltInDefinitions(deps BuiltInDeps) []interfaces.TagDefinition {
	if deps.Logger == nil {
		deps.Logger = logging.NoOp()
	}
	return []interfaces.TagDefinition{
		funcDefinition(deps),
		functionDefinition(deps),
		fileDefinition(deps),
		calloutDefinition(),
	}
}

// RegisterBuiltIns registers the named built-ins, or all of them when names
// is empty.
func RegisterBuiltIns(registry interfaces.TagRegistry, deps BuiltInDeps, names ...string) error {
	if registry == nil {
		return fmt.Errorf("tags: registry is required")
	}
	defs := BuiltInDefinitions(deps)
	available := make(map[string]interfaces.TagDefinition, len(defs))
	for _, def := range defs {
		available[normalizeName(def.Name)] = def
	}

	if len(names) == 0 {
		for _, def := range defs {
			if err := registry.Register(def); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range names {
		def, ok := available[normalizeName(name)]
		if !ok {
			return fmt.Errorf("tags: built-in %q not found", name)
		}
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// funcDefinition renders the reference of one function from api/{name}.json.
func funcDefinition(deps BuiltInDeps) interfaces.TagDefinition {
	return interfaces.TagDefinition{
		Name:        "func",
		Description: "Function reference loaded from api/{name}.json",
		SelfClosing: true,
		Schema: interfaces.TagSchema{
			Attributes: []interfaces.TagAttribute{
				{Name: "name", Type: interfaces.TagAttributeString, Required: true},
			},
		},
		Handler: func(ctx interfaces.TagContext, attrs map[string]any, _ string) (template.HTML, error) {
			name, _ := attrs["name"].(string)
			return renderReference(ctx, deps, descriptors.FunctionPath(name), "")
		},
	}
}

// functionDefinition renders a cached reference from .cache/{href}.json.
func functionDefinition(deps BuiltInDeps) interfaces.TagDefinition {
	return interfaces.TagDefinition{
		Name:        "function",
		Description: "Function reference loaded from .cache/{href}.json",
		AllowInner:  true,
		Schema: interfaces.TagSchema{
			Attributes: []interfaces.TagAttribute{
				{Name: "href", Type: interfaces.TagAttributeString, Required: true},
			},
		},
		Handler: func(ctx interfaces.TagContext, attrs map[string]any, inner string) (template.HTML, error) {
			href, _ := attrs["href"].(string)
			return renderReference(ctx, deps, descriptors.CachePath(href), inner)
		},
	}
}

// renderReference fetches a descriptor and renders it. Fetch failures are
// logged and the component is rendered in its placeholder state.
func renderReference(ctx interfaces.TagContext, deps BuiltInDeps, path, inner string) (template.HTML, error) {
	if deps.Views == nil {
		return "", fmt.Errorf("tags: reference views not configured")
	}

	var descriptor *interfaces.FunctionDescriptor
	if deps.Fetcher != nil {
		fetched, err := deps.Fetcher.Function(background(ctx.Context), path)
		if err != nil {
			logging.WithFields(deps.Logger, map[string]any{
				"descriptor": path,
				"page":       ctx.Path,
				"error":      err,
			}).Warn("tags.reference.fetch_failed")
		} else {
			descriptor = fetched
		}
	}

	html, err := deps.Views.FunctionReference(descriptor)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(inner) == "" || ctx.Convert == nil {
		return html, nil
	}
	notes, err := ctx.Convert([]byte(inner))
	if err != nil {
		return "", fmt.Errorf("tags: convert inner content: %w", err)
	}
	return html + template.HTML(`<div class="function-notes">`+string(notes)+`</div>`), nil
}

// fileDefinition renders the local data.json document.
func fileDefinition(deps BuiltInDeps) interfaces.TagDefinition {
	return interfaces.TagDefinition{
		Name:        "file",
		Description: "Pretty-printed contents of data.json",
		SelfClosing: true,
		Handler: func(ctx interfaces.TagContext, _ map[string]any, _ string) (template.HTML, error) {
			if deps.Views == nil {
				return "", fmt.Errorf("tags: reference views not configured")
			}
			if deps.Fetcher == nil {
				return deps.Views.File(nil, false)
			}
			data, err := deps.Fetcher.Raw(background(ctx.Context), descriptors.DataPath)
			if err != nil {
				logging.WithFields(deps.Logger, map[string]any{
					"descriptor": descriptors.DataPath,
					"page":       ctx.Path,
					"error":      err,
				}).Warn("tags.file.fetch_failed")
				return deps.Views.File(nil, false)
			}
			return deps.Views.File(data, true)
		},
	}
}

var calloutTemplate = template.Must(template.New("callout").Parse(`<div class="callout callout-{{ .Type }}">
  {{- if .Title }}<strong class="callout-title">{{ .Title }}</strong>{{ end }}
  <div class="callout-body">{{ .Body }}</div>
</div>`))

// calloutDefinition renders its inner Markdown through the page converter.
// Without a converter the inner text is escaped as is.
func calloutDefinition() interfaces.TagDefinition {
	validateType := func(value any) error {
		switch value {
		case "note", "warning", "check", "error":
			return nil
		default:
			return fmt.Errorf("callout type %v not supported", value)
		}
	}

	return interfaces.TagDefinition{
		Name:        "callout",
		Description: "Highlights important information",
		AllowInner:  true,
		Schema: interfaces.TagSchema{
			Attributes: []interfaces.TagAttribute{
				{Name: "type", Type: interfaces.TagAttributeString, Default: "note", Validate: validateType},
				{Name: "title", Type: interfaces.TagAttributeString},
			},
		},
		Handler: func(ctx interfaces.TagContext, attrs map[string]any, inner string) (template.HTML, error) {
			body := template.HTML(template.HTMLEscapeString(strings.TrimSpace(inner)))
			if ctx.Convert != nil && strings.TrimSpace(inner) != "" {
				converted, err := ctx.Convert([]byte(inner))
				if err != nil {
					return "", fmt.Errorf("tags: convert inner content: %w", err)
				}
				body = template.HTML(strings.TrimSpace(string(converted)))
			}

			var buf strings.Builder
			err := calloutTemplate.Execute(&buf, map[string]any{
				"Type":  attrs["type"],
				"Title": attrs["title"],
				"Body":  body,
			})
			if err != nil {
				return "", fmt.Errorf("tags: render callout: %w", err)
			}
			return template.HTML(buf.String()), nil
		},
	}
}
