// Package extract builds function descriptors from the exported functions
// of a Go module.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/build"
	"go/doc"
	"go/parser"
	"go/printer"
	"go/token"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-ike/internal/descriptors"
	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/pkg/interfaces"
	"golang.org/x/mod/modfile"
)

// ErrRootRequired indicates Extract was called without a module directory.
var ErrRootRequired = errors.New("extract: root directory is required")

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for skipped packages.
func WithLogger(logger interfaces.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithModuleName overrides the name prefix otherwise read from go.mod.
func WithModuleName(name string) Option {
	return func(e *Extractor) {
		e.moduleName = strings.TrimSpace(name)
	}
}

// WithExamples controls whether Example functions and Examples doc
// sections are collected. Enabled by default.
func WithExamples(enabled bool) Option {
	return func(e *Extractor) {
		e.examples = enabled
	}
}

// Extractor walks a module and describes its exported top-level functions.
type Extractor struct {
	logger     interfaces.Logger
	moduleName string
	examples   bool
}

func New(opts ...Option) *Extractor {
	e := &Extractor{logger: logging.NoOp(), examples: true}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Extract returns the descriptors of every package below root, sorted by
// name. Packages that fail to parse are logged and skipped.
func (e *Extractor) Extract(ctx context.Context, root string) ([]interfaces.FunctionDescriptor, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, ErrRootRequired
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("extract: resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("extract: %s is not a directory", root)
	}

	base := e.moduleBase(abs)
	var out []interfaces.FunctionDescriptor
	walkErr := filepath.WalkDir(abs, func(dir string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if dir != abs {
			if skipDir(d.Name()) {
				return filepath.SkipDir
			}
			if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
				return filepath.SkipDir
			}
		}

		rel, err := filepath.Rel(abs, dir)
		if err != nil {
			return err
		}
		descs, err := e.extractDir(dir, qualifier(base, filepath.ToSlash(rel)))
		if err != nil {
			logging.WithFields(e.logger, map[string]any{
				"dir":   dir,
				"error": err,
			}).Warn("extract.package.failed")
			return nil
		}
		out = append(out, descs...)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("extract: walk %s: %w", root, walkErr)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	logging.WithFields(e.logger, map[string]any{
		"root":      root,
		"functions": len(out),
	}).Debug("extract.completed")
	return out, nil
}

// ExtractTo runs Extract and writes one {name}.json per function into
// outDir. It returns the written paths.
func (e *Extractor) ExtractTo(ctx context.Context, root, outDir string) ([]string, error) {
	descs, err := e.Extract(ctx, root)
	if err != nil {
		return nil, err
	}
	written := make([]string, 0, len(descs))
	for _, desc := range descs {
		target, err := descriptors.WriteDefinition(desc, outDir)
		if err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}

func (e *Extractor) moduleBase(root string) string {
	if e.moduleName != "" {
		return e.moduleName
	}
	if data, err := os.ReadFile(filepath.Join(root, "go.mod")); err == nil {
		if modulePath := modfile.ModulePath(data); modulePath != "" {
			return path.Base(modulePath)
		}
	}
	return filepath.Base(root)
}

func skipDir(name string) bool {
	switch name {
	case "testdata", "vendor", "node_modules":
		return true
	}
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// qualifier turns a package directory into the dotted name prefix.
func qualifier(base, rel string) string {
	rel = strings.Trim(rel, "/")
	if rel == "" || rel == "." {
		return base
	}
	return base + "." + strings.ReplaceAll(rel, "/", ".")
}

func (e *Extractor) extractDir(dir, prefix string) ([]interfaces.FunctionDescriptor, error) {
	pkgInfo, err := build.ImportDir(dir, build.ImportComment)
	if err != nil {
		var noGo *build.NoGoError
		if errors.As(err, &noGo) {
			return nil, nil
		}
		return nil, err
	}

	fset := token.NewFileSet()
	names := append(append(append([]string{}, pkgInfo.GoFiles...), pkgInfo.TestGoFiles...), pkgInfo.XTestGoFiles...)
	files := make([]*ast.File, 0, len(names))
	for _, name := range names {
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ParseComments)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil, nil
	}

	pkg, err := doc.NewFromFiles(fset, files, pkgInfo.ImportPath)
	if err != nil {
		return nil, err
	}

	funcs := append([]*doc.Func{}, pkg.Funcs...)
	for _, typ := range pkg.Types {
		funcs = append(funcs, typ.Funcs...)
	}

	out := make([]interfaces.FunctionDescriptor, 0, len(funcs))
	for _, fn := range funcs {
		if fn.Recv != "" || !ast.IsExported(fn.Name) {
			continue
		}
		desc := describe(fset, pkg, prefix, fn)
		if !e.examples {
			desc.Examples = []interfaces.Example{}
		}
		out = append(out, desc)
	}
	return out, nil
}

func describe(fset *token.FileSet, pkg *doc.Package, prefix string, fn *doc.Func) interfaces.FunctionDescriptor {
	sections := parseDocSections(fn.Doc)
	paragraphs := splitParagraphs(sections.Prose)

	desc := interfaces.FunctionDescriptor{
		Name:      prefix + "." + fn.Name,
		Signature: fn.Name + signature(fset, fn.Decl.Type),
		Args:      []interfaces.Arg{},
		Examples:  []interfaces.Example{},
	}
	if sections.Prose != "" {
		desc.Summary = interfaces.StringPtr(pkg.Synopsis(sections.Prose))
	}
	if len(paragraphs) > 1 {
		desc.Desc = interfaces.StringPtr(strings.Join(paragraphs[1:], "\n\n"))
	}
	desc.Returns = interfaces.StringPtr(sections.Returns)

	for i, field := range paramFields(fn.Decl.Type) {
		typ := nodeString(fset, field.Type)
		if len(field.Names) == 0 {
			desc.Args = append(desc.Args, interfaces.Arg{
				Name: fmt.Sprintf("arg%d", i),
				Type: interfaces.StringPtr(typ),
			})
			continue
		}
		for _, ident := range field.Names {
			desc.Args = append(desc.Args, interfaces.Arg{
				Name: ident.Name,
				Type: interfaces.StringPtr(typ),
				Desc: interfaces.StringPtr(sections.Args[ident.Name]),
			})
		}
	}

	for _, example := range fn.Examples {
		desc.Examples = append(desc.Examples, interfaces.Example{
			Desc: interfaces.StringPtr(strings.TrimSpace(example.Doc)),
			Code: exampleCode(fset, example),
		})
	}
	for _, sample := range sections.Examples {
		desc.Examples = append(desc.Examples, interfaces.Example{
			Desc: interfaces.StringPtr(sample.Desc),
			Code: sample.Code,
		})
	}
	return desc
}

func paramFields(typ *ast.FuncType) []*ast.Field {
	if typ == nil || typ.Params == nil {
		return nil
	}
	return typ.Params.List
}

// signature prints the type parameters, parameters and results of a
// function type.
func signature(fset *token.FileSet, typ *ast.FuncType) string {
	printed := nodeString(fset, typ)
	return strings.TrimPrefix(printed, "func")
}

func exampleCode(fset *token.FileSet, example *doc.Example) string {
	if block, ok := example.Code.(*ast.BlockStmt); ok {
		var buf bytes.Buffer
		for i, stmt := range block.List {
			if i > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(nodeString(fset, stmt))
		}
		return buf.String()
	}
	return nodeString(fset, example.Code)
}

func nodeString(fset *token.FileSet, node any) string {
	var buf bytes.Buffer
	cfg := printer.Config{Mode: printer.UseSpaces | printer.TabIndent, Tabwidth: 8}
	if err := cfg.Fprint(&buf, fset, node); err != nil {
		return ""
	}
	return buf.String()
}
