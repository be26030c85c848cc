package provision

import (
	"strings"
	"unicode"
)

// SanitizeName derives a filesystem-safe config identifier from a
// human-readable name: lowercase, runs of whitespace collapsed to a single
// hyphen, and any character outside [a-z0-9_-] dropped. It never fails, and
// applying it twice gives the same result as applying it once.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) {
			if b.Len() > 0 {
				pendingHyphen = true
			}
			continue
		}
		if !isSafeRune(r) {
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}

	return b.String()
}

func isSafeRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
}
