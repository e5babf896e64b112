package tags

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

// Sanitizer rejects inline script tags, event handler attributes and URLs
// outside http, https and relative references.
type Sanitizer struct {
	allowedSchemes map[string]struct{}
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		allowedSchemes: map[string]struct{}{
			"http":  {},
			"https": {},
			"":      {},
		},
	}
}

func (s *Sanitizer) Sanitize(html string) (string, error) {
	if strings.Contains(strings.ToLower(html), "<script") {
		return "", fmt.Errorf("tags: script tags are not allowed")
	}
	return html, nil
}

func (s *Sanitizer) ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if _, ok := s.allowedSchemes[strings.ToLower(parsed.Scheme)]; !ok {
		return fmt.Errorf("tags: url scheme %q not permitted", parsed.Scheme)
	}
	return nil
}

// ValidateAttributes rejects inline event handlers such as onload and checks
// string values that look like URLs.
func (s *Sanitizer) ValidateAttributes(attrs map[string]any) error {
	for key, value := range attrs {
		if strings.HasPrefix(strings.ToLower(key), "on") {
			return fmt.Errorf("tags: attribute %q not permitted", key)
		}
		if str, ok := value.(string); ok && strings.Contains(str, "://") {
			if err := s.ValidateURL(str); err != nil {
				return err
			}
		}
	}
	return nil
}

var _ interfaces.TagSanitizer = (*Sanitizer)(nil)
