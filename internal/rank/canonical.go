package rank

import (
	"net/url"
	"strings"
)

const canonicalTitleLen = 50

// CanonicalKey derives the deduplication key for an article: the URL host
// joined with the lowercased title reduced to [a-z0-9] and truncated to 50
// bytes. Near-duplicate headlines from the same host collapse to one key;
// the same story on different hosts stays distinct.
func CanonicalKey(rawURL, title string) string {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Hostname()
	}

	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= canonicalTitleLen {
			break
		}
	}

	return host + ":" + b.String()
}
