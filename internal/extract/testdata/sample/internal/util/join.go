package util

import "strings"

// Join concatenates parts with a single space.
func Join(parts ...string) string {
	return strings.Join(parts, " ")
}
