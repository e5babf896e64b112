package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	manifestFileName    = ".ike-manifest.json"
	manifestFileVersion = 1
)

// buildManifest stores metadata about the last successful build to support
// incremental runs.
type buildManifest struct {
	Version     int                      `json:"version"`
	GeneratedAt time.Time                `json:"generated_at"`
	Pages       map[string]manifestPage  `json:"pages"`
	Assets      map[string]manifestAsset `json:"assets"`
}

type manifestPage struct {
	PageID       string    `json:"page_id"`
	Kind         string    `json:"kind"`
	Route        string    `json:"route"`
	Output       string    `json:"output"`
	Hash         string    `json:"hash"`
	Checksum     string    `json:"checksum"`
	LastModified time.Time `json:"last_modified"`
	RenderedAt   time.Time `json:"rendered_at"`
}

type manifestAsset struct {
	AssetID  string    `json:"asset_id"`
	Source   string    `json:"source"`
	Output   string    `json:"output"`
	Checksum string    `json:"checksum"`
	Size     int64     `json:"size"`
	CopiedAt time.Time `json:"copied_at"`
}

func newBuildManifest() *buildManifest {
	return &buildManifest{
		Version: manifestFileVersion,
		Pages:   map[string]manifestPage{},
		Assets:  map[string]manifestAsset{},
	}
}

// parseManifest accepts the ordered form written by marshal.
func parseManifest(data []byte) (*buildManifest, error) {
	if len(data) == 0 {
		return newBuildManifest(), nil
	}
	var ordered orderedManifest
	if err := json.Unmarshal(data, &ordered); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}
	manifest := newBuildManifest()
	manifest.GeneratedAt = ordered.GeneratedAt
	if ordered.Version != 0 {
		manifest.Version = ordered.Version
	}
	for _, entry := range ordered.Pages {
		manifest.setPage(entry)
	}
	for _, entry := range ordered.Assets {
		manifest.setAsset(entry)
	}
	return manifest, nil
}

type orderedManifest struct {
	Version     int             `json:"version"`
	GeneratedAt time.Time       `json:"generated_at"`
	Pages       []manifestPage  `json:"pages"`
	Assets      []manifestAsset `json:"assets"`
}

func (m *buildManifest) marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	ordered := orderedManifest{
		Version:     m.Version,
		GeneratedAt: m.GeneratedAt,
		Pages:       make([]manifestPage, 0, len(m.Pages)),
		Assets:      make([]manifestAsset, 0, len(m.Assets)),
	}
	if ordered.Version == 0 {
		ordered.Version = manifestFileVersion
	}
	for _, entry := range m.Pages {
		ordered.Pages = append(ordered.Pages, entry)
	}
	sort.Slice(ordered.Pages, func(i, j int) bool {
		return ordered.Pages[i].Route < ordered.Pages[j].Route
	})
	for _, entry := range m.Assets {
		ordered.Assets = append(ordered.Assets, entry)
	}
	sort.Slice(ordered.Assets, func(i, j int) bool {
		return ordered.Assets[i].Output < ordered.Assets[j].Output
	})
	return json.MarshalIndent(ordered, "", "  ")
}

func (m *buildManifest) lookupPage(pageID uuid.UUID) (manifestPage, bool) {
	if m == nil || len(m.Pages) == 0 {
		return manifestPage{}, false
	}
	entry, ok := m.Pages[strings.ToLower(pageID.String())]
	return entry, ok
}

func (m *buildManifest) setPage(entry manifestPage) {
	if m.Pages == nil {
		m.Pages = map[string]manifestPage{}
	}
	m.Pages[strings.ToLower(strings.TrimSpace(entry.PageID))] = entry
}

func (m *buildManifest) shouldSkipPage(pageID uuid.UUID, hash, output string) bool {
	entry, ok := m.lookupPage(pageID)
	if !ok {
		return false
	}
	return entry.Hash == hash && strings.TrimSpace(entry.Output) == strings.TrimSpace(output)
}

func (m *buildManifest) lookupAsset(assetID uuid.UUID) (manifestAsset, bool) {
	if m == nil || len(m.Assets) == 0 {
		return manifestAsset{}, false
	}
	entry, ok := m.Assets[strings.ToLower(assetID.String())]
	return entry, ok
}

func (m *buildManifest) setAsset(entry manifestAsset) {
	if m.Assets == nil {
		m.Assets = map[string]manifestAsset{}
	}
	m.Assets[strings.ToLower(strings.TrimSpace(entry.AssetID))] = entry
}

func (m *buildManifest) shouldSkipAsset(assetID uuid.UUID, checksum, output string) bool {
	entry, ok := m.lookupAsset(assetID)
	if !ok {
		return false
	}
	return entry.Checksum == checksum && strings.TrimSpace(entry.Output) == strings.TrimSpace(output)
}
