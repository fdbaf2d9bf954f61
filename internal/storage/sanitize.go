package storage

import "strings"

// SanitizeKey turns a key into a safe file stem. Characters that are invalid in
// file names on common platforms, control characters and path separators are
// replaced with an underscore. Distinct keys may map to the same stem.
func SanitizeKey(key string) string {
	if key == "" || key == "." || key == ".." {
		return "_"
	}
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r < 0x20, r == 0x7f:
			b.WriteByte('_')
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
