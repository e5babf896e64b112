package scaffold

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goliatone/go-ike/internal/logging"
	"github.com/goliatone/go-ike/pkg/interfaces"
)

// SyncSiteConfig publishes {projectDir}/ike.yaml as {publicDir}/ike.yaml so
// the site can fetch it like any other public file. An existing copy is
// replaced. It hard links when possible and copies otherwise.
func SyncSiteConfig(projectDir, publicDir string, logger interfaces.Logger) error {
	if logger == nil {
		logger = logging.NoOp()
	}
	src := filepath.Join(projectDir, "ike.yaml")
	dst := filepath.Join(publicDir, "ike.yaml")

	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("scaffold: site config: %w", err)
	}
	if same, _ := sameFile(src, dst); same {
		return nil
	}
	if err := os.MkdirAll(publicDir, 0o755); err != nil {
		return fmt.Errorf("scaffold: create %s: %w", publicDir, err)
	}
	if _, err := os.Lstat(dst); err == nil {
		logging.WithFields(logger, map[string]any{"path": dst}).Warn("scaffold.config.overwrite")
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("scaffold: remove %s: %w", dst, err)
		}
	}

	logging.WithFields(logger, map[string]any{"src": src, "dst": dst}).Debug("scaffold.config.link")
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	return copyFile(src, dst)
}

func sameFile(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	return os.SameFile(infoA, infoB), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("scaffold: open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("scaffold: create %s: %w", dst, err)
	}
	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return fmt.Errorf("scaffold: copy %s: %w", src, err)
	}
	return nil
}
