package ike_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-ike"
)

func TestConfigValidateRequiresOutputDir(t *testing.T) {
	cfg := ike.DefaultConfig()
	cfg.Generator.OutputDir = " "
	if err := cfg.Validate(); !errors.Is(err, ike.ErrGeneratorOutputDirRequired) {
		t.Fatalf("expected ErrGeneratorOutputDirRequired, got %v", err)
	}
}

func TestConfigValidateRejectsUnknownLoggingProvider(t *testing.T) {
	cfg := ike.DefaultConfig()
	cfg.Logging.Provider = "syslog"
	if err := cfg.Validate(); !errors.Is(err, ike.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestLoadConfigReadsSettings(t *testing.T) {
	dir := t.TempDir()
	yaml := "package: demo\nsettings:\n  generator:\n    output_dir: site\n"
	if err := os.WriteFile(filepath.Join(dir, "ike.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write ike.yaml: %v", err)
	}
	cfg, err := ike.LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ProjectDir != dir || cfg.Generator.OutputDir != "site" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.PublicDir != "public" {
		t.Fatalf("expected default public dir, got %q", cfg.PublicDir)
	}
}
