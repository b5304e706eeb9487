package images

import (
	"net/url"
	"strings"
)

// rejectPatterns are URL substrings that mark tracking pixels, icons and
// other non-photographic noise.
var rejectPatterns = []string{
	"favicon", "spacer", "pixel", "tracking", "analytics",
	"1x1", "blank.jpg", "blank.png", "loading.gif", "loading.png",
	"gravatar.com", "wp-content/plugins", "buddyicon",
	"spaceout", "spaceball", "privacyoptions", "rss_icon",
	"wikipedia-logo", "cross.png", "icon-phone", "icon-envelope",
	"gettyimages.com",
}

// IsUsableImageURL applies the cheap syntactic filters that run before
// any network traffic. It rejects obvious icons, logos, badges, vector
// and animated formats.
func IsUsableImageURL(rawURL string) bool {
	if len(rawURL) < 10 {
		return false
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return false
	}

	lower := strings.ToLower(rawURL)

	for _, p := range rejectPatterns {
		if strings.Contains(lower, p) {
			return false
		}
	}

	if strings.Contains(lower, "logo") {
		return false
	}

	if strings.HasSuffix(lower, ".svg") || strings.HasSuffix(lower, ".ico") || strings.HasSuffix(lower, ".gif") {
		return false
	}

	filename := lower
	if idx := strings.LastIndex(lower, "/"); idx >= 0 {
		filename = lower[idx+1:]
	}
	if strings.Contains(filename, "icon") && !strings.Contains(filename, "section") {
		return false
	}

	if strings.Contains(lower, "badge") && strings.Contains(lower, "shield") {
		return false
	}

	return true
}

func extractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
