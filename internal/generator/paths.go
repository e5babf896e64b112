package generator

import (
	"path"
	"strings"
)

// buildOutputPath maps a route to its index.html below the output root.
func buildOutputPath(route string) string {
	clean := strings.Trim(path.Clean("/"+strings.TrimSpace(route)), "/")
	if clean == "" {
		return "index.html"
	}
	return path.Join(clean, "index.html")
}

func referenceRoute(name string) string {
	return "/reference/" + strings.TrimSpace(name)
}
