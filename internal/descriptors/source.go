package descriptors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// ErrNotFound reports a descriptor that does not exist at its source.
var ErrNotFound = errors.New("descriptors: not found")

// ErrInvalidPath reports a path that escapes the source root.
var ErrInvalidPath = errors.New("descriptors: invalid path")

// Source reads raw descriptor documents by relative path.
type Source interface {
	Open(ctx context.Context, path string) ([]byte, error)
}

// StatusError is returned by HTTPSource for non-2xx responses.
type StatusError struct {
	Path       string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("descriptors: GET %s: %s", e.Path, e.Status)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// HTTPSource fetches descriptors with one GET per request.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPSource parses baseURL; a nil client uses http.DefaultClient.
func NewHTTPSource(baseURL string, client *http.Client) (*HTTPSource, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("descriptors: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("descriptors: base url %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{base: parsed, client: client}, nil
}

func (s *HTTPSource) Open(ctx context.Context, rel string) ([]byte, error) {
	clean, err := cleanPath(rel)
	if err != nil {
		return nil, err
	}
	target := s.base.JoinPath(clean)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("descriptors: GET %s: %w", clean, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{Path: clean, StatusCode: res.StatusCode, Status: res.Status}
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("descriptors: read %s: %w", clean, err)
	}
	return data, nil
}

// FSSource reads descriptors from a filesystem, normally the project's
// public directory.
type FSSource struct {
	fsys fs.FS
}

func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

func (s *FSSource) Open(ctx context.Context, rel string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := cleanPath(rel)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.fsys, clean)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	if err != nil {
		return nil, fmt.Errorf("descriptors: read %s: %w", clean, err)
	}
	return data, nil
}

func cleanPath(rel string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(strings.TrimSpace(rel), "/"))
	if !fs.ValidPath(clean) || clean == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}
	return clean, nil
}
