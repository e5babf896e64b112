package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

const (
	rootModule        = "ike"
	markdownModule    = "ike.markdown"
	tagsModule        = "ike.tags"
	descriptorsModule = "ike.descriptors"
	siteModule        = "ike.site"
	generatorModule   = "ike.generator"
	extractModule     = "ike.extract"
	deployModule      = "ike.deploy"
	watchModule       = "ike.watch"
	scaffoldModule    = "ike.scaffold"
)

const (
	fieldPagePath  = "page_path"
	fieldPageRoute = "route"
	fieldAction    = "action"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return logger.WithFields(map[string]any{
		"module": module,
	})
}

// MarkdownLogger returns the logger namespace reserved for page workflows.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// TagsLogger returns the logger namespace reserved for authoring tags.
func TagsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, tagsModule)
}

// DescriptorsLogger returns the logger namespace reserved for descriptor loading.
func DescriptorsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, descriptorsModule)
}

// SiteLogger returns the logger namespace reserved for the HTTP site.
func SiteLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, siteModule)
}

// GeneratorLogger returns the logger namespace reserved for static builds.
func GeneratorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, generatorModule)
}

// ExtractLogger returns the logger namespace reserved for the reference extractor.
func ExtractLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, extractModule)
}

// DeployLogger returns the logger namespace reserved for deployments.
func DeployLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, deployModule)
}

// WatchLogger returns the logger namespace reserved for the dev file watcher.
func WatchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, watchModule)
}

// ScaffoldLogger returns the logger namespace reserved for project scaffolding.
func ScaffoldLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, scaffoldModule)
}

// WithPageContext enriches the logger with the page path, route and action.
// Empty values are ignored.
func WithPageContext(logger interfaces.Logger, path, route, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldPagePath] = trimmed
	}
	if trimmed := strings.TrimSpace(route); trimmed != "" {
		fields[fieldPageRoute] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldAction] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
