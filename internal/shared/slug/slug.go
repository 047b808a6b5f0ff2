package slug

import (
	"path/filepath"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases s and collapses everything outside [a-z0-9] into dashes.
// fallback is returned when nothing survives.
func Make(s, fallback string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 48 {
		s = strings.Trim(s[:48], "-")
	}
	if s == "" {
		return fallback
	}
	return s
}

// FromFilename slugs the base name of an upload, without its extension.
func FromFilename(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return Make(base, "photo")
}
