package utils

import "strings"

// Slugify converts a title into a lowercase URL-safe slug. Runs of
// non-alphanumeric characters collapse into a single hyphen and leading or
// trailing hyphens are trimmed, so the result always matches
// [a-z0-9]+(-[a-z0-9]+)* (or is empty for titles with no usable characters).
// Uniqueness is not guaranteed here; the store's unique index on the slug
// column enforces that.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
