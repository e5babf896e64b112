package di

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-ike/internal/adapters/noop"
	"github.com/goliatone/go-ike/internal/components"
	"github.com/goliatone/go-ike/internal/deploy"
	"github.com/goliatone/go-ike/internal/descriptors"
	"github.com/goliatone/go-ike/internal/extract"
	"github.com/goliatone/go-ike/internal/generator"
	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/internal/markdown"
	"github.com/goliatone/go-ike/internal/prompt"
	"github.com/goliatone/go-ike/internal/runtimeconfig"
	"github.com/goliatone/go-ike/internal/scaffold"
	"github.com/goliatone/go-ike/internal/site"
	"github.com/goliatone/go-ike/internal/tags"
	"github.com/goliatone/go-ike/internal/watch"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

// Container wires the ike services from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger
	cache          interfaces.CacheService
	httpClient     *http.Client
	registerer     prometheus.Registerer
	gatherer       prometheus.Gatherer
	prompter       prompt.Prompter
	credentials    deploy.CredentialStore
	public         fs.FS

	descriptors *descriptors.Client
	views       *components.Renderer
	tagSvc      *tags.Service
	markdownSvc *markdown.Service
	renderer    *site.Renderer
	server      *site.Server
	generator   generator.Service
	extractor   *extract.Extractor
	scaffolder  *scaffold.Scaffolder
	deployer    *deploy.Service
	watcher     *watch.Watcher
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithCache overrides the cache service shared by descriptors and tags.
func WithCache(cache interfaces.CacheService) Option {
	return func(c *Container) {
		c.cache = cache
	}
}

// WithHTTPClient overrides the client used for descriptors, starters and
// deployments.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// WithRegistry sets where metrics are registered and gathered from.
func WithRegistry(registerer prometheus.Registerer, gatherer prometheus.Gatherer) Option {
	return func(c *Container) {
		c.registerer = registerer
		c.gatherer = gatherer
	}
}

// WithPrompter overrides the terminal prompter.
func WithPrompter(p prompt.Prompter) Option {
	return func(c *Container) {
		c.prompter = p
	}
}

// WithCredentialStore overrides the system keyring.
func WithCredentialStore(store deploy.CredentialStore) Option {
	return func(c *Container) {
		c.credentials = store
	}
}

// WithPublicFS serves the public directory from fsys instead of disk.
func WithPublicFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.public = fsys
	}
}

// NewContainer validates cfg and builds every service.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	if c.cache == nil {
		cache, err := newCacheService(cfg.Descriptors.CacheTTL)
		if err != nil {
			return nil, err
		}
		c.cache = cache
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Descriptors.Timeout}
	}
	if c.registerer == nil {
		registry := prometheus.NewRegistry()
		c.registerer = registry
		c.gatherer = registry
	}
	if c.prompter == nil {
		c.prompter = prompt.NewTerminal(prompt.WithAccessible(os.Getenv("ACCESSIBLE") != ""))
	}
	if c.credentials == nil {
		c.credentials = deploy.KeyringStore{}
	}
	if c.public == nil {
		c.public = os.DirFS(cfg.Path(cfg.PublicDir))
	}

	steps := []func() error{
		c.configureDescriptors,
		c.configureViews,
		c.configureTags,
		c.configureMarkdown,
		c.configureSite,
		c.configureGenerator,
		c.configureTooling,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Container) configureDescriptors() error {
	var source descriptors.Source
	if base := strings.TrimSpace(c.Config.Descriptors.BaseURL); base != "" {
		httpSource, err := descriptors.NewHTTPSource(base, c.httpClient)
		if err != nil {
			return err
		}
		source = httpSource
	} else {
		source = descriptors.NewFSSource(c.public)
	}
	c.descriptors = descriptors.NewClient(source,
		descriptors.WithCache(c.cache),
		descriptors.WithLogger(logging.DescriptorsLogger(c.loggerProvider)),
		descriptors.WithLint(c.Config.Descriptors.Lint),
	)
	return nil
}

func (c *Container) configureViews() error {
	views, err := components.New(
		components.WithCodeLanguage(c.Config.Components.CodeLanguage),
		components.WithBrand(c.Config.Components.Brand),
	)
	if err != nil {
		return fmt.Errorf("di: components: %w", err)
	}
	c.views = views
	return nil
}

func (c *Container) configureTags() error {
	logger := logging.TagsLogger(c.loggerProvider)
	validator := tags.NewValidator()
	registry := tags.NewRegistry(validator)
	if err := tags.RegisterBuiltIns(registry, tags.BuiltInDeps{
		Fetcher: c.descriptors,
		Views:   c.views,
		Logger:  logger,
	}); err != nil {
		return fmt.Errorf("di: register tags: %w", err)
	}

	var metrics interfaces.TagMetrics = tags.NoOpMetrics()
	if c.Config.Server.Metrics {
		promMetrics, err := tags.NewPrometheusMetrics(c.registerer)
		if err != nil {
			return fmt.Errorf("di: tag metrics: %w", err)
		}
		metrics = promMetrics
	}

	renderer := tags.NewRenderer(registry, validator,
		tags.WithRendererSanitizer(tags.NewSanitizer()),
		tags.WithRendererMetrics(metrics),
		tags.WithRendererCache(c.cache),
	)
	c.tagSvc = tags.NewService(registry, renderer,
		tags.WithLogger(logger),
		tags.WithMetrics(metrics),
	)
	return nil
}

func (c *Container) configureMarkdown() error {
	cfg := c.Config
	pagesDir := cfg.Path(cfg.PagesDir)
	svc, err := markdown.NewService(markdown.Config{
		BasePath:  pagesDir,
		Pattern:   cfg.Markdown.Pattern,
		Recursive: cfg.Markdown.Recursive,
		Exclude:   nestedDirs(pagesDir, cfg.Path(cfg.PublicDir), cfg.Path(cfg.Generator.OutputDir)),
		Parser: interfaces.ParseOptions{
			Extensions: cfg.Markdown.Parser.Extensions,
			Sanitize:   cfg.Markdown.Parser.Sanitize,
			HardWraps:  cfg.Markdown.Parser.HardWraps,
			SafeMode:   cfg.Markdown.Parser.SafeMode,
		},
	},
		markdown.WithTagService(c.tagSvc),
		markdown.WithLogger(logging.MarkdownLogger(c.loggerProvider)),
	)
	if err != nil {
		return fmt.Errorf("di: markdown: %w", err)
	}
	c.markdownSvc = svc
	return nil
}

func (c *Container) configureSite() error {
	logger := logging.SiteLogger(c.loggerProvider)
	c.renderer = site.NewRenderer(c.markdownSvc, c.descriptors, c.views, logger)

	serverOpts := []site.ServerOption{site.WithServerLogger(logger)}
	if c.Config.Server.Metrics {
		metrics, err := site.NewPrometheusMetrics(c.registerer)
		if err != nil {
			return fmt.Errorf("di: site metrics: %w", err)
		}
		serverOpts = append(serverOpts, site.WithMetrics(metrics, c.gatherer))
	}
	c.server = site.NewServer(site.Config{
		Addr:            c.Config.Server.Addr,
		ShutdownTimeout: c.Config.Server.ShutdownTimeout,
		Metrics:         c.Config.Server.Metrics,
	}, c.renderer, c.public, serverOpts...)
	return nil
}

func (c *Container) configureGenerator() error {
	gen := c.Config.Generator
	c.generator = generator.NewService(generator.Config{
		OutputDir:       c.Config.Path(gen.OutputDir),
		BaseURL:         gen.BaseURL,
		CleanBuild:      gen.CleanBuild,
		Incremental:     gen.Incremental,
		CopyAssets:      gen.CopyAssets,
		GenerateSitemap: gen.GenerateSitemap,
		GenerateRobots:  gen.GenerateRobots,
		Workers:         gen.Workers,
	}, generator.Dependencies{
		Pages:       c.markdownSvc,
		Renderer:    c.renderer,
		Public:      c.public,
		Descriptors: c.descriptors,
		Logger:      logging.GeneratorLogger(c.loggerProvider),
	})
	return nil
}

func (c *Container) configureTooling() error {
	cfg := c.Config
	c.extractor = extract.New(
		extract.WithLogger(logging.ExtractLogger(c.loggerProvider)),
		extract.WithExamples(cfg.Extract.Examples),
	)
	c.scaffolder = scaffold.New(c.httpClient, logging.ScaffoldLogger(c.loggerProvider))

	deployClient := &http.Client{Timeout: cfg.Deploy.Timeout}
	c.deployer = deploy.NewService(
		deploy.NewClient(cfg.Deploy.Endpoint, deployClient),
		c.credentials,
		c.prompter,
		logging.DeployLogger(c.loggerProvider),
	)

	watchOpts := []watch.Option{
		watch.WithLogger(logging.WatchLogger(c.loggerProvider)),
		watch.WithPublicDir(relativeTo(cfg.ProjectDir, cfg.Path(cfg.PublicDir))),
	}
	if ignored := nestedDirs(cfg.ProjectDir, cfg.Path(cfg.Generator.OutputDir)); len(ignored) > 0 {
		watchOpts = append(watchOpts, watch.WithIgnore(ignored...))
	}
	watcher, err := watch.New(cfg.ProjectDir, watchOpts...)
	if err != nil {
		return err
	}
	c.watcher = watcher
	return nil
}

// newCacheService builds the sturdyc backed cache. A ttl of zero or less
// disables caching. Early refreshes stay off so edited files are only read
// again after an invalidation or expiry.
func newCacheService(ttl time.Duration) (interfaces.CacheService, error) {
	if ttl <= 0 {
		return noop.Cache(), nil
	}
	cfg := repocache.DefaultConfig()
	cfg.TTL = ttl
	cfg.EarlyRefresh = nil
	cfg.MissingRecordStorage = false
	cache, err := repocache.NewCacheService(cfg)
	if err != nil {
		return nil, fmt.Errorf("di: cache: %w", err)
	}
	return cache, nil
}

// nestedDirs returns the dirs that live below root, relative to it.
func nestedDirs(root string, dirs ...string) []string {
	var out []string
	for _, dir := range dirs {
		rel := relativeTo(root, dir)
		if rel == "" || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		out = append(out, rel)
	}
	return out
}

func relativeTo(root, dir string) string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return ""
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil {
		return ""
	}
	return filepath.ToSlash(rel)
}

// LoggerProvider returns the configured logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// Logger returns the root command logger.
func (c *Container) Logger() interfaces.Logger { return c.logger }

// Descriptors returns the descriptor client shared by tags and pages.
func (c *Container) Descriptors() *descriptors.Client { return c.descriptors }

// TagService returns the tag expansion service.
func (c *Container) TagService() *tags.Service { return c.tagSvc }

// MarkdownService returns the page service.
func (c *Container) MarkdownService() *markdown.Service { return c.markdownSvc }

// Renderer returns the page renderer.
func (c *Container) Renderer() *site.Renderer { return c.renderer }

// Server returns the development server.
func (c *Container) Server() *site.Server { return c.server }

// Generator returns the static site generator.
func (c *Container) Generator() generator.Service { return c.generator }

// Extractor returns the Go reference extractor.
func (c *Container) Extractor() *extract.Extractor { return c.extractor }

// Scaffolder returns the project scaffolder.
func (c *Container) Scaffolder() *scaffold.Scaffolder { return c.scaffolder }

// Deployer returns the deployment service.
func (c *Container) Deployer() *deploy.Service { return c.deployer }

// Watcher returns the project watcher.
func (c *Container) Watcher() *watch.Watcher { return c.watcher }

// Prompter returns the interactive prompter.
func (c *Container) Prompter() prompt.Prompter { return c.prompter }
