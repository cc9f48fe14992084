// Package util holds small helpers shared across features.
package util

import "strings"

// maxFileNameLen bounds backend object keys; longer names are truncated
// while keeping the extension.
const maxFileNameLen = 45

// CleanFileName sanitizes an uploaded file name for use in object keys:
// only letters, digits, dot, underscore and hyphen survive, and the
// result is capped at 45 characters with the extension preserved.
func CleanFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if len(cleaned) <= maxFileNameLen {
		return cleaned
	}

	dot := strings.LastIndex(cleaned, ".")
	if dot <= 0 {
		return cleaned[:maxFileNameLen]
	}
	ext := cleaned[dot:]
	keep := maxFileNameLen - len(ext)
	if keep < 1 {
		return cleaned[:maxFileNameLen]
	}
	return cleaned[:keep] + ext
}

// DocKey derives the backend document key from a cleaned file name:
// lowercase, runs of non-alphanumerics collapsed to single underscores,
// leading and trailing underscores trimmed.
func DocKey(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	lastUnderscore := false
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
