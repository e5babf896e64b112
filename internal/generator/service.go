package generator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-ike/internal/components"
	"github.com/goliatone/go-ike/internal/descriptors"
	"github.com/goliatone/go-ike/internal/identity"
	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/pkg/interfaces"
	"github.com/google/uuid"
)

var (
	// ErrOutputDirRequired indicates the generator has nowhere to write.
	ErrOutputDirRequired = errors.New("generator: output directory is required")
	// ErrUnsafeOutputDir blocks clean builds against the working directory
	// or the filesystem root.
	ErrUnsafeOutputDir  = errors.New("generator: refusing to clean output directory")
	errRendererRequired = errors.New("generator: page renderer is required")
	errPagesRequired    = errors.New("generator: page lister is required")
)

// Service describes the static site generator contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	Clean(ctx context.Context) error
}

// PageLister discovers and renders every Markdown page of the project.
type PageLister interface {
	LoadDirectory(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]*interfaces.Document, error)
}

// PageRenderer composes full HTML documents. site.Renderer satisfies it.
type PageRenderer interface {
	LoadSiteConfig(ctx context.Context) error
	SiteConfig() interfaces.SiteConfig
	RenderDocument(w io.Writer, doc *interfaces.Document) error
	RenderReference(ctx context.Context, w io.Writer, name string) error
}

// DescriptorCache drops cached descriptors so a build reads the files on
// disk. descriptors.Client satisfies it.
type DescriptorCache interface {
	Clear(ctx context.Context) error
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	OutputDir       string
	BaseURL         string
	CleanBuild      bool
	Incremental     bool
	CopyAssets      bool
	GenerateSitemap bool
	GenerateRobots  bool
	Workers         int
}

// BuildOptions narrows the behaviour of a single run.
type BuildOptions struct {
	// DryRun renders everything without touching the output directory.
	DryRun bool
	// Diff compares each rendered page with the file already on disk.
	Diff bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	PagesBuilt    int
	PagesSkipped  int
	AssetsBuilt   int
	AssetsSkipped int
	Drafts        int
	Duration      time.Duration
	Rendered      []RenderedPage
	Diffs         []FileDiff
	Errors        []error
	DryRun        bool
}

// RenderedPage describes one page written by the build.
type RenderedPage struct {
	ID           uuid.UUID
	Kind         string
	Route        string
	Output       string
	Checksum     string
	LastModified time.Time
	Skipped      bool
}

const (
	kindPage      = "page"
	kindReference = "reference"
)

// Dependencies lists the collaborators required by the generator.
type Dependencies struct {
	Pages    PageLister
	Renderer PageRenderer
	// Public is the project's public directory, copied verbatim and scanned
	// for api/*.json descriptors.
	Public fs.FS
	// Descriptors, when set, is cleared before pages are rendered.
	Descriptors DescriptorCache
	Logger      interfaces.Logger
}

// NewService wires a generator implementation with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	if deps.Logger == nil {
		deps.Logger = logging.NoOp()
	}
	return &service{
		cfg:  cfg,
		deps: deps,
		now:  time.Now,
	}
}

type service struct {
	cfg  Config
	deps Dependencies
	now  func() time.Time
}

type buildJob struct {
	id       uuid.UUID
	kind     string
	route    string
	name     string
	doc      *interfaces.Document
	checksum string
	modified time.Time
}

type renderOutcome struct {
	page     RenderedPage
	diff     *FileDiff
	err      error
	manifest *manifestPage
}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.deps.Pages == nil {
		return nil, errPagesRequired
	}
	if s.deps.Renderer == nil {
		return nil, errRendererRequired
	}
	outputDir := strings.TrimSpace(s.cfg.OutputDir)
	if outputDir == "" {
		return nil, ErrOutputDirRequired
	}

	start := s.now()
	result := &BuildResult{DryRun: opts.DryRun}
	logger := logging.WithFields(s.deps.Logger, map[string]any{
		"output":      outputDir,
		"incremental": s.cfg.Incremental,
		"dry_run":     opts.DryRun,
	})
	logger.Info("generator.build.start")

	if s.cfg.CleanBuild && !s.cfg.Incremental && !opts.DryRun {
		if err := s.Clean(ctx); err != nil {
			return nil, err
		}
	}

	if s.deps.Descriptors != nil {
		if err := s.deps.Descriptors.Clear(ctx); err != nil {
			logging.WithFields(logger, map[string]any{"error": err}).Warn("generator.descriptors.clear_failed")
		}
	}

	// The sidebar is optional; pages still render without it.
	if err := s.deps.Renderer.LoadSiteConfig(ctx); err != nil {
		logging.WithFields(logger, map[string]any{"error": err}).Warn("generator.site_config.unavailable")
	}

	recursive := true
	docs, err := s.deps.Pages.LoadDirectory(ctx, ".", interfaces.LoadOptions{Recursive: &recursive})
	if err != nil {
		return nil, fmt.Errorf("generator: load pages: %w", err)
	}

	siteHash, err := hashSiteConfig(s.deps.Renderer.SiteConfig())
	if err != nil {
		return nil, err
	}

	jobs := make([]buildJob, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if doc.FrontMatter.Draft {
			result.Drafts++
			continue
		}
		jobs = append(jobs, buildJob{
			id:       identity.PageUUID(doc.Route),
			kind:     kindPage,
			route:    doc.Route,
			doc:      doc,
			checksum: pageChecksum(doc, siteHash),
			modified: doc.LastModified,
		})
	}
	referenceJobs, err := s.referenceJobs(siteHash)
	if err != nil {
		return nil, err
	}
	jobs = append(jobs, referenceJobs...)

	writer := newArtifactWriter(outputDir, opts.DryRun)
	// Workers only read previous; collect writes next under mu.
	previous := newBuildManifest()
	if s.cfg.Incremental {
		previous, err = s.loadManifest(ctx, writer)
		if err != nil {
			return nil, err
		}
	}
	next := newBuildManifest()

	var (
		mu          sync.Mutex
		rendered    []RenderedPage
		diffs       []FileDiff
		errorsSlice []error
	)
	renderedAt := s.now().UTC()
	collect := func(outcome renderOutcome) {
		mu.Lock()
		defer mu.Unlock()
		if outcome.err != nil {
			errorsSlice = append(errorsSlice, outcome.err)
			return
		}
		rendered = append(rendered, outcome.page)
		if outcome.page.Skipped {
			result.PagesSkipped++
		} else {
			result.PagesBuilt++
		}
		if outcome.diff != nil {
			diffs = append(diffs, *outcome.diff)
		}
		if outcome.manifest != nil {
			entry := *outcome.manifest
			if entry.RenderedAt.IsZero() {
				entry.RenderedAt = renderedAt
			}
			next.setPage(entry)
		}
	}

	workers := s.effectiveWorkerCount(len(jobs))
	if err := s.renderConcurrently(ctx, jobs, workers, writer, previous, opts, collect); err != nil {
		return nil, err
	}

	sort.Slice(rendered, func(i, j int) bool {
		return rendered[i].Route < rendered[j].Route
	})
	sort.Slice(diffs, func(i, j int) bool {
		return diffs[i].Path < diffs[j].Path
	})
	result.Rendered = rendered
	result.Diffs = diffs

	if s.cfg.CopyAssets {
		built, skipped, err := s.copyAssets(ctx, writer, previous, next)
		result.AssetsBuilt += built
		result.AssetsSkipped += skipped
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if s.cfg.GenerateSitemap {
		if err := s.writeSitemap(ctx, writer, rendered); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}
	if s.cfg.GenerateRobots {
		if err := s.writeRobots(ctx, writer); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if len(errorsSlice) == 0 {
		next.GeneratedAt = renderedAt
		if err := s.persistManifest(ctx, writer, next); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	result.Duration = time.Since(start)
	logging.WithFields(logger, map[string]any{
		"pages_built":    result.PagesBuilt,
		"pages_skipped":  result.PagesSkipped,
		"assets_built":   result.AssetsBuilt,
		"assets_skipped": result.AssetsSkipped,
		"drafts":         result.Drafts,
		"errors":         len(errorsSlice),
		"duration_ms":    result.Duration.Milliseconds(),
	}).Info("generator.build.completed")

	if len(errorsSlice) > 0 {
		result.Errors = append(result.Errors, errorsSlice...)
		return result, errors.Join(errorsSlice...)
	}
	return result, nil
}

// Clean removes the output directory.
func (s *service) Clean(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := strings.TrimSpace(s.cfg.OutputDir)
	if dir == "" {
		return ErrOutputDirRequired
	}
	clean := filepath.Clean(dir)
	if clean == "." || clean == string(filepath.Separator) || clean == ".." {
		return fmt.Errorf("%w: %q", ErrUnsafeOutputDir, dir)
	}
	if err := os.RemoveAll(clean); err != nil {
		return fmt.Errorf("generator: clean %s: %w", clean, err)
	}
	logging.WithFields(s.deps.Logger, map[string]any{"output": clean}).Debug("generator.clean.completed")
	return nil
}

// referenceJobs turns every public api/*.json descriptor into a reference
// page job.
func (s *service) referenceJobs(siteHash []byte) ([]buildJob, error) {
	if s.deps.Public == nil {
		return nil, nil
	}
	matches, err := fs.Glob(s.deps.Public, descriptors.APIDir+"/*.json")
	if err != nil {
		return nil, fmt.Errorf("generator: list descriptors: %w", err)
	}
	sort.Strings(matches)

	jobs := make([]buildJob, 0, len(matches))
	for _, match := range matches {
		name, ok := descriptors.NameFromPath(match)
		if !ok {
			continue
		}
		hash := sha256.New()
		var modified time.Time
		for _, candidate := range []string{descriptors.CachePath(name), descriptors.FunctionPath(name)} {
			data, err := fs.ReadFile(s.deps.Public, candidate)
			if err != nil {
				continue
			}
			hash.Write(data)
			if info, err := fs.Stat(s.deps.Public, candidate); err == nil && info.ModTime().After(modified) {
				modified = info.ModTime()
			}
		}
		hash.Write(siteHash)
		jobs = append(jobs, buildJob{
			id:       identity.ReferenceUUID(name),
			kind:     kindReference,
			route:    referenceRoute(name),
			name:     name,
			checksum: hex.EncodeToString(hash.Sum(nil)),
			modified: modified,
		})
	}
	return jobs, nil
}

func (s *service) renderConcurrently(
	ctx context.Context,
	jobs []buildJob,
	workers int,
	writer artifactWriter,
	manifest *buildManifest,
	opts BuildOptions,
	collect func(renderOutcome),
) error {
	if len(jobs) == 0 {
		return nil
	}

	queue := make(chan buildJob)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				select {
				case <-ctx.Done():
					collect(renderOutcome{err: ctx.Err()})
					return
				default:
					collect(s.renderJob(ctx, job, writer, manifest, opts))
				}
			}
		}()
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			close(queue)
			wg.Wait()
			return ctx.Err()
		case queue <- job:
		}
	}
	close(queue)
	wg.Wait()
	return nil
}

func (s *service) renderJob(
	ctx context.Context,
	job buildJob,
	writer artifactWriter,
	manifest *buildManifest,
	opts BuildOptions,
) renderOutcome {
	output := buildOutputPath(job.route)
	page := RenderedPage{
		ID:           job.id,
		Kind:         job.kind,
		Route:        job.route,
		Output:       output,
		Checksum:     job.checksum,
		LastModified: job.modified,
	}
	entry := &manifestPage{
		PageID:       job.id.String(),
		Kind:         job.kind,
		Route:        job.route,
		Output:       output,
		Hash:         job.checksum,
		LastModified: job.modified,
	}

	if s.cfg.Incremental && manifest.shouldSkipPage(job.id, job.checksum, output) {
		page.Skipped = true
		if previous, ok := manifest.lookupPage(job.id); ok {
			entry.Checksum = previous.Checksum
			entry.RenderedAt = previous.RenderedAt
		}
		return renderOutcome{page: page, manifest: entry}
	}

	var buf bytes.Buffer
	var err error
	switch job.kind {
	case kindReference:
		err = s.deps.Renderer.RenderReference(ctx, &buf, job.name)
	default:
		err = s.deps.Renderer.RenderDocument(&buf, job.doc)
	}
	if err != nil {
		logging.WithPageContext(s.deps.Logger, "", job.route, "generator.render").
			WithFields(map[string]any{"error": err}).
			Error("generator.render.failed")
		return renderOutcome{err: fmt.Errorf("generator: render %s: %w", job.route, err)}
	}

	content := buf.Bytes()
	entry.Checksum = computeHash(content)

	var diff *FileDiff
	if opts.Diff {
		previous, readErr := writer.ReadFile(ctx, output)
		diff = diffOutput(output, previous, readErr == nil, content)
	}

	req := writeFileRequest{
		Path:        output,
		Content:     bytes.NewReader(content),
		Size:        int64(len(content)),
		Category:    categoryPage,
		ContentType: "text/html; charset=utf-8",
		Checksum:    entry.Checksum,
	}
	if err := writer.WriteFile(ctx, req); err != nil {
		return renderOutcome{err: fmt.Errorf("generator: write %s: %w", output, err)}
	}
	return renderOutcome{page: page, diff: diff, manifest: entry}
}

// copyAssets mirrors the public directory and the bundled stylesheet into
// the output directory.
func (s *service) copyAssets(ctx context.Context, writer artifactWriter, previous, next *buildManifest) (int, int, error) {
	built, skipped := 0, 0
	var errs []error

	copyTree := func(source fs.FS, prefix string) {
		if source == nil {
			return
		}
		walkErr := fs.WalkDir(source, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(source, p)
			if err != nil {
				errs = append(errs, fmt.Errorf("generator: read asset %s: %w", p, err))
				return nil
			}
			rel := path.Join(prefix, p)
			assetID := identity.AssetUUID(rel)
			checksum := computeHash(data)
			if s.cfg.Incremental && previous.shouldSkipAsset(assetID, checksum, rel) {
				entry, _ := previous.lookupAsset(assetID)
				next.setAsset(entry)
				skipped++
				return nil
			}
			req := writeFileRequest{
				Path:     rel,
				Content:  bytes.NewReader(data),
				Size:     int64(len(data)),
				Category: categoryAsset,
				Checksum: checksum,
			}
			if err := writer.WriteFile(ctx, req); err != nil {
				errs = append(errs, fmt.Errorf("generator: copy asset %s: %w", rel, err))
				return nil
			}
			next.setAsset(manifestAsset{
				AssetID:  assetID.String(),
				Source:   p,
				Output:   rel,
				Checksum: checksum,
				Size:     int64(len(data)),
				CopiedAt: s.now().UTC(),
			})
			built++
			return nil
		})
		if walkErr != nil {
			errs = append(errs, fmt.Errorf("generator: walk assets: %w", walkErr))
		}
	}

	copyTree(s.deps.Public, "")
	copyTree(components.Static(), strings.Trim(path.Dir(components.StylesheetPath), "/"))

	return built, skipped, errors.Join(errs...)
}

func (s *service) loadManifest(ctx context.Context, writer artifactWriter) (*buildManifest, error) {
	data, err := writer.ReadFile(ctx, manifestFileName)
	if errors.Is(err, fs.ErrNotExist) {
		return newBuildManifest(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("generator: read manifest: %w", err)
	}
	manifest, err := parseManifest(data)
	if err != nil {
		// A corrupt manifest only costs a full rebuild.
		logging.WithFields(s.deps.Logger, map[string]any{"error": err}).Warn("generator.manifest.invalid")
		return newBuildManifest(), nil
	}
	return manifest, nil
}

func (s *service) persistManifest(ctx context.Context, writer artifactWriter, manifest *buildManifest) error {
	data, err := manifest.marshal()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        manifestFileName,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		Category:    categoryManifest,
		ContentType: "application/json",
		Checksum:    computeHash(data),
	})
}

func (s *service) writeSitemap(ctx context.Context, writer artifactWriter, pages []RenderedPage) error {
	content := buildSitemap(s.cfg.BaseURL, pages, s.now())
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        "sitemap.xml",
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categorySitemap,
		ContentType: "application/xml",
		Checksum:    computeHashFromString(content),
	})
}

func (s *service) writeRobots(ctx context.Context, writer artifactWriter) error {
	content := buildRobots(s.cfg.BaseURL, s.cfg.GenerateSitemap)
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        "robots.txt",
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categoryRobots,
		ContentType: "text/plain; charset=utf-8",
		Checksum:    computeHashFromString(content),
	})
}

func (s *service) effectiveWorkerCount(jobCount int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}
	if jobCount > 0 && workers > jobCount {
		return jobCount
	}
	return workers
}

func hashSiteConfig(cfg interfaces.SiteConfig) ([]byte, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("generator: hash site config: %w", err)
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// pageChecksum covers the source, the rendered body and the sidebar. The
// body carries the output of every tag, so a changed descriptor or data
// file changes the checksum of the pages that embed it.
func pageChecksum(doc *interfaces.Document, siteHash []byte) string {
	hash := sha256.New()
	hash.Write(doc.Checksum)
	hash.Write(doc.BodyHTML)
	hash.Write(siteHash)
	return hex.EncodeToString(hash.Sum(nil))
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}
