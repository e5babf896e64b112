package deploy

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Bundle zips every file below root that ignore does not exclude into
// target. Paths inside the archive are relative to root. The .git directory
// and target itself are always left out. It returns the number of files
// written.
func Bundle(ctx context.Context, root, target string, ignore *IgnoreMatcher) (int, error) {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return 0, fmt.Errorf("deploy: resolve %s: %w", target, err)
	}
	out, err := os.Create(absTarget)
	if err != nil {
		return 0, fmt.Errorf("deploy: create bundle: %w", err)
	}
	archive := zip.NewWriter(out)

	count := 0
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if d.Name() == ".git" || ignore.Match(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if abs, err := filepath.Abs(p); err == nil && abs == absTarget {
			return nil
		}
		if !d.Type().IsRegular() || ignore.Match(rel, false) {
			return nil
		}
		if err := addFile(archive, p, rel); err != nil {
			return err
		}
		count++
		return nil
	})

	closeErr := archive.Close()
	fileErr := out.Close()
	switch {
	case walkErr != nil:
		return count, fmt.Errorf("deploy: bundle %s: %w", root, walkErr)
	case closeErr != nil:
		return count, fmt.Errorf("deploy: finish bundle: %w", closeErr)
	case fileErr != nil:
		return count, fmt.Errorf("deploy: close bundle: %w", fileErr)
	}
	return count, nil
}

func addFile(archive *zip.Writer, source, name string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := archive.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
