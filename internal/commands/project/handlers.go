package projectcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-ike/internal/commands"
	"github.com/goliatone/go-ike/internal/deploy"
	"github.com/goliatone/go-ike/internal/descriptors"
	"github.com/goliatone/go-ike/internal/generator"
	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/internal/scaffold"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

const (
	initOperation    = "project.init"
	extractOperation = "project.extract"
	buildOperation   = "project.build"
	deployOperation  = "project.deploy"

	siteConfigFile = "ike.yaml"

	packagePrompt      = "What's the name of your package?"
	packagePlaceholder = "my-package"

	projectNotFoundCode = "IKE_PROJECT_NOT_FOUND"
	descriptorLintCode  = "IKE_DESCRIPTOR_LINT"
)

// ErrNotProject is returned by commands that need an ike.yaml in the
// project directory.
var ErrNotProject = errors.New("The current directory isn't a valid Ike project.")

// ErrDescriptorLint is returned by extract --check when a written
// descriptor does not match the descriptor schema.
var ErrDescriptorLint = errors.New("projectcmd: descriptors failed schema checks")

var (
	_ command.Commander[InitCommand]    = (*InitHandler)(nil)
	_ command.Commander[ExtractCommand] = (*ExtractHandler)(nil)
	_ command.Commander[BuildCommand]   = (*BuildHandler)(nil)
	_ command.Commander[DeployCommand]  = (*DeployHandler)(nil)
)

// Scaffolder writes a starter project.
type Scaffolder interface {
	Init(ctx context.Context, opts scaffold.Options) (*scaffold.Result, error)
}

// InputPrompter asks the user for a line of text.
type InputPrompter interface {
	Input(ctx context.Context, title, placeholder string) (string, error)
}

// Extractor writes function descriptors for a source tree.
type Extractor interface {
	ExtractTo(ctx context.Context, root, outDir string) ([]string, error)
}

// Builder renders the static site.
type Builder interface {
	Build(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error)
}

// Deployer ships a project.
type Deployer interface {
	Deploy(ctx context.Context, cfg deploy.Config) (*deploy.Result, error)
}

// SyncFunc publishes the project's ike.yaml into the public directory.
type SyncFunc func(projectDir, publicDir string, logger interfaces.Logger) error

func requireProject(dir string) error {
	if _, err := os.Stat(filepath.Join(dir, siteConfigFile)); err != nil {
		return commands.Validation(ErrNotProject, projectNotFoundCode, ErrNotProject.Error())
	}
	return nil
}

func resolvePublicDir(projectDir, publicDir string) string {
	if publicDir == "" || filepath.IsAbs(publicDir) {
		return publicDir
	}
	return filepath.Join(projectDir, publicDir)
}

// InitHandler scaffolds a new project.
type InitHandler struct {
	inner *commands.Handler[InitCommand]
}

// NewInitHandler asks for the package name through prompter when the
// command leaves it empty. After scaffolding the site configuration is
// published into PublicDir, defaulting to {Dir}/public.
func NewInitHandler(scaffolder Scaffolder, prompter InputPrompter, sync SyncFunc, logger interfaces.Logger, opts ...commands.HandlerOption[InitCommand]) *InitHandler {
	baseLogger := commands.EnsureLogger(logger)
	if sync == nil {
		sync = scaffold.SyncSiteConfig
	}

	exec := func(ctx context.Context, msg InitCommand) error {
		pkg := strings.TrimSpace(msg.Package)
		if pkg == "" {
			if prompter == nil {
				return commands.Validation(scaffold.ErrPackageRequired, "IKE_PROJECT_PACKAGE_REQUIRED", "package name is required")
			}
			answer, err := prompter.Input(ctx, packagePrompt, packagePlaceholder)
			if err != nil {
				return err
			}
			pkg = strings.TrimSpace(answer)
		}

		result, err := scaffolder.Init(ctx, scaffold.Options{
			Dir:        msg.Dir,
			Package:    pkg,
			StarterURL: msg.StarterURL,
			StarterDir: msg.StarterDir,
		})
		if err != nil {
			return err
		}

		publicDir := msg.PublicDir
		if publicDir == "" {
			publicDir = "public"
		}
		if err := sync(msg.Dir, resolvePublicDir(msg.Dir, publicDir), baseLogger); err != nil {
			return err
		}

		logging.WithFields(baseLogger, map[string]any{
			"package": pkg,
			"created": len(result.Created),
			"skipped": len(result.Skipped),
		}).Info("project.command.init.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[InitCommand]{
		commands.WithLogger[InitCommand](baseLogger),
		commands.WithOperation[InitCommand](initOperation),
		commands.WithMessageFields(func(msg InitCommand) map[string]any {
			fields := map[string]any{"dir": msg.Dir}
			if msg.StarterURL != "" {
				fields["starter_url"] = msg.StarterURL
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[InitCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &InitHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[InitCommand].
func (h *InitHandler) Execute(ctx context.Context, msg InitCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ExtractHandler writes descriptors for a Go module.
type ExtractHandler struct {
	inner *commands.Handler[ExtractCommand]
}

func NewExtractHandler(extractor Extractor, logger interfaces.Logger, opts ...commands.HandlerOption[ExtractCommand]) *ExtractHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ExtractCommand) error {
		written, err := extractor.ExtractTo(ctx, msg.SourceDir, msg.OutputDir)
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"output":    msg.OutputDir,
			"functions": len(written),
		}).Info("project.command.extract.completed")
		if msg.Check {
			return lintWritten(written, baseLogger)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ExtractCommand]{
		commands.WithLogger[ExtractCommand](baseLogger),
		commands.WithOperation[ExtractCommand](extractOperation),
		commands.WithMessageFields(func(msg ExtractCommand) map[string]any {
			return map[string]any{
				"source": msg.SourceDir,
				"output": msg.OutputDir,
				"check":  msg.Check,
			}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ExtractCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ExtractHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

func lintWritten(paths []string, logger interfaces.Logger) error {
	failed := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("projectcmd: read %s: %w", path, err)
		}
		issues, err := descriptors.Lint(data)
		if err != nil {
			return err
		}
		if len(issues) == 0 {
			continue
		}
		failed++
		for _, issue := range issues {
			logging.WithFields(logger, map[string]any{
				"path":  path,
				"issue": issue.String(),
			}).Warn("project.command.extract.lint")
		}
	}
	if failed > 0 {
		return commands.Validation(ErrDescriptorLint, descriptorLintCode,
			fmt.Sprintf("%d descriptor(s) failed schema checks", failed))
	}
	return nil
}

// Execute satisfies command.Commander[ExtractCommand].
func (h *ExtractHandler) Execute(ctx context.Context, msg ExtractCommand) error {
	return h.inner.Execute(ctx, msg)
}

// BuildHandler renders the project into its output directory.
type BuildHandler struct {
	inner *commands.Handler[BuildCommand]
}

// NewBuildHandler writes the diff of every changed page to out when the
// command asks for it. A nil out discards them.
func NewBuildHandler(builder Builder, sync SyncFunc, out io.Writer, logger interfaces.Logger, opts ...commands.HandlerOption[BuildCommand]) *BuildHandler {
	baseLogger := commands.EnsureLogger(logger)
	if sync == nil {
		sync = scaffold.SyncSiteConfig
	}
	if out == nil {
		out = io.Discard
	}

	exec := func(ctx context.Context, msg BuildCommand) error {
		if _, err := os.Stat(filepath.Join(msg.ProjectDir, siteConfigFile)); err == nil && !msg.DryRun {
			if err := sync(msg.ProjectDir, resolvePublicDir(msg.ProjectDir, msg.PublicDir), baseLogger); err != nil {
				return err
			}
		}

		result, err := builder.Build(ctx, generator.BuildOptions{DryRun: msg.DryRun, Diff: msg.Diff})
		if result != nil && msg.Diff {
			writeDiffs(out, result.Diffs)
		}
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"pages_built":   result.PagesBuilt,
			"pages_skipped": result.PagesSkipped,
			"assets_built":  result.AssetsBuilt,
			"drafts":        result.Drafts,
			"dry_run":       result.DryRun,
		}).Info("project.command.build.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[BuildCommand]{
		commands.WithLogger[BuildCommand](baseLogger),
		commands.WithOperation[BuildCommand](buildOperation),
		commands.WithMessageFields(func(msg BuildCommand) map[string]any {
			return map[string]any{
				"project": msg.ProjectDir,
				"dry_run": msg.DryRun,
			}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[BuildCommand].
func (h *BuildHandler) Execute(ctx context.Context, msg BuildCommand) error {
	return h.inner.Execute(ctx, msg)
}

func writeDiffs(out io.Writer, diffs []generator.FileDiff) {
	for _, diff := range diffs {
		if diff.Added {
			fmt.Fprintf(out, "+ %s (new)\n", diff.Path)
			continue
		}
		fmt.Fprintf(out, "~ %s\n%s", diff.Path, diff.Patch)
		if !strings.HasSuffix(diff.Patch, "\n") {
			fmt.Fprintln(out)
		}
	}
}

// DeployHandler bundles and submits the project.
type DeployHandler struct {
	inner *commands.Handler[DeployCommand]
}

// NewDeployHandler prints the queued build URL to out.
func NewDeployHandler(deployer Deployer, out io.Writer, logger interfaces.Logger, opts ...commands.HandlerOption[DeployCommand]) *DeployHandler {
	baseLogger := commands.EnsureLogger(logger)
	if out == nil {
		out = io.Discard
	}

	exec := func(ctx context.Context, msg DeployCommand) error {
		if err := requireProject(msg.ProjectDir); err != nil {
			return err
		}
		result, err := deployer.Deploy(ctx, deploy.Config{
			ProjectDir:     msg.ProjectDir,
			APIKey:         msg.APIKey,
			KeyringService: msg.KeyringService,
			KeyringUser:    msg.KeyringUser,
		})
		if err != nil {
			return err
		}
		if result == nil {
			result = &deploy.Result{}
		}
		if result.URL != "" {
			fmt.Fprintf(out, "Your docs are being built: %s\n", result.URL)
		}
		logging.WithFields(baseLogger, map[string]any{
			"files": result.Files,
			"url":   result.URL,
		}).Info("project.command.deploy.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[DeployCommand]{
		commands.WithLogger[DeployCommand](baseLogger),
		commands.WithOperation[DeployCommand](deployOperation),
		commands.WithMessageFields(func(msg DeployCommand) map[string]any {
			return map[string]any{"project": msg.ProjectDir}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[DeployCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DeployHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[DeployCommand].
func (h *DeployHandler) Execute(ctx context.Context, msg DeployCommand) error {
	return h.inner.Execute(ctx, msg)
}
