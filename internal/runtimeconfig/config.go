package runtimeconfig

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SiteConfigFile is the project marker and sidebar configuration file.
const SiteConfigFile = "ike.yaml"

var ErrProjectDirRequired = errors.New("ike config: project directory is required")
var ErrPublicDirRequired = errors.New("ike config: public directory is required")
var ErrServerAddrRequired = errors.New("ike config: server address is required")
var ErrDescriptorBaseURLInvalid = errors.New("ike config: descriptor base url is invalid")
var ErrGeneratorOutputDirRequired = errors.New("ike config: generator output directory is required")
var ErrGeneratorWorkersInvalid = errors.New("ike config: generator workers must be zero or positive")
var ErrExtractOutputDirRequired = errors.New("ike config: extract output directory is required")
var ErrDeployEndpointInvalid = errors.New("ike config: deploy endpoint is invalid")
var ErrLoggingProviderUnknown = errors.New("ike config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("ike config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("ike config: logging format is invalid")

// Config aggregates the runtime settings shared by every ike command. It is
// read from the optional "settings" block of ike.yaml, then environment
// variables, then command flags.
type Config struct {
	ProjectDir  string            `yaml:"-"`
	PagesDir    string            `yaml:"pages_dir"`
	PublicDir   string            `yaml:"public_dir"`
	Server      ServerConfig      `yaml:"server"`
	Descriptors DescriptorsConfig `yaml:"descriptors"`
	Markdown    MarkdownConfig    `yaml:"markdown"`
	Components  ComponentsConfig  `yaml:"components"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Extract     ExtractConfig     `yaml:"extract"`
	Deploy      DeployConfig      `yaml:"deploy"`
	Scaffold    ScaffoldConfig    `yaml:"scaffold"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig configures the development server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Metrics         bool          `yaml:"metrics"`
	Watch           bool          `yaml:"watch"`
}

// DescriptorsConfig selects where reference descriptors are fetched from.
// An empty BaseURL reads them from the public directory.
type DescriptorsConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Lint     bool          `yaml:"lint"`
}

// MarkdownConfig captures page discovery and parser behaviour.
type MarkdownConfig struct {
	Pattern   string               `yaml:"pattern"`
	Recursive bool                 `yaml:"recursive"`
	Parser    MarkdownParserConfig `yaml:"parser"`
}

// MarkdownParserConfig mirrors interfaces.ParseOptions.
type MarkdownParserConfig struct {
	Extensions []string `yaml:"extensions"`
	Sanitize   bool     `yaml:"sanitize"`
	HardWraps  bool     `yaml:"hard_wraps"`
	SafeMode   bool     `yaml:"safe_mode"`
}

// ComponentsConfig tunes the display components.
type ComponentsConfig struct {
	CodeLanguage string `yaml:"code_language"`
	Brand        string `yaml:"brand"`
}

// GeneratorConfig captures behaviour for the static build.
type GeneratorConfig struct {
	OutputDir       string        `yaml:"output_dir"`
	BaseURL         string        `yaml:"base_url"`
	CleanBuild      bool          `yaml:"clean_build"`
	Incremental     bool          `yaml:"incremental"`
	CopyAssets      bool          `yaml:"copy_assets"`
	GenerateSitemap bool          `yaml:"sitemap"`
	GenerateRobots  bool          `yaml:"robots"`
	Workers         int           `yaml:"workers"`
	RenderTimeout   time.Duration `yaml:"render_timeout"`
}

// ExtractConfig configures the reference extractor.
type ExtractConfig struct {
	SourceDir string `yaml:"source_dir"`
	OutputDir string `yaml:"output_dir"`
	Examples  bool   `yaml:"examples"`
}

// DeployConfig configures the bundle upload.
type DeployConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	APIKey         string        `yaml:"-"`
	KeyringService string        `yaml:"keyring_service"`
	KeyringUser    string        `yaml:"keyring_user"`
	Timeout        time.Duration `yaml:"timeout"`
}

// ScaffoldConfig configures `ike init`.
type ScaffoldConfig struct {
	StarterURL string `yaml:"starter_url"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns the settings used when ike.yaml carries no
// settings block.
func DefaultConfig() Config {
	return Config{
		ProjectDir: ".",
		PagesDir:   ".",
		PublicDir:  "public",
		Server: ServerConfig{
			Addr:            ":3000",
			ShutdownTimeout: 5 * time.Second,
			Watch:           true,
		},
		Descriptors: DescriptorsConfig{
			Timeout:  10 * time.Second,
			CacheTTL: time.Minute,
		},
		Markdown: MarkdownConfig{
			Pattern:   "*.md",
			Recursive: true,
			Parser: MarkdownParserConfig{
				Extensions: []string{"gfm", "linkify", "tasklist"},
			},
		},
		Components: ComponentsConfig{
			CodeLanguage: "go",
			Brand:        "Ike",
		},
		Generator: GeneratorConfig{
			OutputDir:       "dist",
			CleanBuild:      true,
			CopyAssets:      true,
			GenerateSitemap: true,
			GenerateRobots:  true,
		},
		Extract: ExtractConfig{
			SourceDir: ".",
			OutputDir: "public/api",
			Examples:  true,
		},
		Deploy: DeployConfig{
			KeyringService: "ike",
			KeyringUser:    "api_key",
			Timeout:        2 * time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.ProjectDir) == "" {
		return ErrProjectDirRequired
	}
	if strings.TrimSpace(cfg.PublicDir) == "" {
		return ErrPublicDirRequired
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return ErrServerAddrRequired
	}
	if base := strings.TrimSpace(cfg.Descriptors.BaseURL); base != "" && !isHTTPURL(base) {
		return fmt.Errorf("%w: %s", ErrDescriptorBaseURLInvalid, base)
	}
	if strings.TrimSpace(cfg.Generator.OutputDir) == "" {
		return ErrGeneratorOutputDirRequired
	}
	if cfg.Generator.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrGeneratorWorkersInvalid, cfg.Generator.Workers)
	}
	if strings.TrimSpace(cfg.Extract.OutputDir) == "" {
		return ErrExtractOutputDirRequired
	}
	if endpoint := strings.TrimSpace(cfg.Deploy.Endpoint); endpoint != "" && !isHTTPURL(endpoint) {
		return fmt.Errorf("%w: %s", ErrDeployEndpointInvalid, endpoint)
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Logging.Provider))
	switch provider {
	case "", "console", "gologger":
	default:
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// Path resolves a project-relative path against ProjectDir.
func (cfg Config) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(cfg.ProjectDir, rel)
}

// Load reads the settings block of {dir}/ike.yaml over DefaultConfig and
// applies IKE_* environment overrides. A missing ike.yaml is not an error.
func Load(dir string) (Config, error) {
	return load(dir, os.LookupEnv)
}

type settingsFile struct {
	Settings *Config `yaml:"settings"`
}

func load(dir string, lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(dir) != "" {
		cfg.ProjectDir = dir
	}

	raw, err := os.ReadFile(filepath.Join(cfg.ProjectDir, SiteConfigFile))
	switch {
	case err == nil:
		file := settingsFile{Settings: &cfg}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return Config{}, fmt.Errorf("ike config: parse %s: %w", SiteConfigFile, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("ike config: read %s: %w", SiteConfigFile, err)
	}

	applyEnv(&cfg, lookup)
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}
	overrides := map[string]*string{
		"IKE_ADDR":            &cfg.Server.Addr,
		"IKE_LOG_LEVEL":       &cfg.Logging.Level,
		"IKE_LOG_PROVIDER":    &cfg.Logging.Provider,
		"IKE_API_KEY":         &cfg.Deploy.APIKey,
		"IKE_DEPLOY_ENDPOINT": &cfg.Deploy.Endpoint,
		"IKE_DESCRIPTORS_URL": &cfg.Descriptors.BaseURL,
	}
	for name, target := range overrides {
		if value, ok := lookup(name); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
