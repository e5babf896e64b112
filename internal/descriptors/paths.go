package descriptors

import "strings"

const (
	// APIDir holds descriptors referenced by the func tag.
	APIDir = "api"
	// CacheDir holds descriptors referenced by the function tag and the
	// reference pages.
	CacheDir = ".cache"
	// DataPath is the document shown by the file tag.
	DataPath = "data.json"
	// SiteConfigPath is the sidebar configuration.
	SiteConfigPath = "ike.yaml"
)

// FunctionPath returns api/{name}.json.
func FunctionPath(name string) string {
	return APIDir + "/" + strings.TrimSpace(name) + ".json"
}

// CachePath returns .cache/{href}.json.
func CachePath(href string) string {
	return CacheDir + "/" + strings.Trim(strings.TrimSpace(href), "/") + ".json"
}

// NameFromPath reverses FunctionPath and CachePath, returning the bare
// descriptor name and false for any other path.
func NameFromPath(path string) (string, bool) {
	for _, dir := range []string{APIDir, CacheDir} {
		if rest, ok := strings.CutPrefix(path, dir+"/"); ok {
			if name, ok := strings.CutSuffix(rest, ".json"); ok && name != "" && !strings.Contains(name, "/") {
				return name, true
			}
		}
	}
	return "", false
}
