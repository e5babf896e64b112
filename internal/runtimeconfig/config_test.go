package runtimeconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidateRequiresOutputDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generator.OutputDir = " "

	if err := cfg.Validate(); !errors.Is(err, ErrGeneratorOutputDirRequired) {
		t.Fatalf("expected ErrGeneratorOutputDirRequired, got %v", err)
	}
}

func TestConfigValidateRejectsNegativeWorkers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generator.Workers = -1

	if err := cfg.Validate(); !errors.Is(err, ErrGeneratorWorkersInvalid) {
		t.Fatalf("expected ErrGeneratorWorkersInvalid, got %v", err)
	}
}

func TestConfigValidateRejectsUnknownLoggingProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Provider = "syslog"

	if err := cfg.Validate(); !errors.Is(err, ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidateRejectsInvalidLoggingFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"

	if err := cfg.Validate(); !errors.Is(err, ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestConfigValidateRejectsRelativeEndpoints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Deploy.Endpoint = "deploy.example.com/upload"
	if err := cfg.Validate(); !errors.Is(err, ErrDeployEndpointInvalid) {
		t.Fatalf("expected ErrDeployEndpointInvalid, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Descriptors.BaseURL = "ftp://example.com"
	if err := cfg.Validate(); !errors.Is(err, ErrDescriptorBaseURLInvalid) {
		t.Fatalf("expected ErrDescriptorBaseURLInvalid, got %v", err)
	}
}

func TestLoadWithoutSiteConfigUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := load(dir, func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ProjectDir != dir {
		t.Fatalf("expected project dir %s, got %s", dir, cfg.ProjectDir)
	}
	if cfg.Server.Addr != ":3000" {
		t.Fatalf("expected default addr, got %s", cfg.Server.Addr)
	}
}

func TestLoadReadsSettingsBlockAndEnv(t *testing.T) {
	dir := t.TempDir()
	contents := `package: ike
title: Ike
sidebar:
  - heading: Guide
    links:
      - href: /docs
        title: Overview
settings:
  public_dir: static
  server:
    addr: ":8080"
    shutdown_timeout: 2s
  generator:
    workers: 4
  logging:
    level: debug
`
	if err := os.WriteFile(filepath.Join(dir, SiteConfigFile), []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	env := map[string]string{
		"IKE_ADDR":    ":9090",
		"IKE_API_KEY": " secret ",
	}
	cfg, err := load(dir, func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.PublicDir != "static" {
		t.Fatalf("expected public dir static, got %s", cfg.PublicDir)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected env addr override, got %s", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 2*time.Second {
		t.Fatalf("expected shutdown timeout 2s, got %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Generator.Workers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.Generator.Workers)
	}
	if !cfg.Generator.GenerateSitemap {
		t.Fatal("expected defaults to survive partial settings")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %s", cfg.Logging.Level)
	}
	if cfg.Deploy.APIKey != "secret" {
		t.Fatalf("expected trimmed api key, got %q", cfg.Deploy.APIKey)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SiteConfigFile), []byte("settings: [oops"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := load(dir, nil); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfigPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProjectDir = "/srv/site"

	if got := cfg.Path("public"); got != filepath.Join("/srv/site", "public") {
		t.Fatalf("unexpected path %s", got)
	}
	if got := cfg.Path("/abs/out"); got != "/abs/out" {
		t.Fatalf("expected absolute path untouched, got %s", got)
	}
}
