// Package docgen turns generated markdown into .docx artifacts and handles
// their naming and placement on disk.
package docgen

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	unsafeChars    = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes a supplier name safe for use in a filename on any
// platform. The result is deterministic so repeated runs overwrite the same
// artifact rather than accumulating variants.
func SanitizeFilename(name string) string {
	s := norm.NFKC.String(name)
	s = unsafeChars.ReplaceAllString(s, "_")
	s = whitespaceRuns.ReplaceAllString(s, "_")
	s = strings.Trim(s, "._")
	if s == "" {
		return "unknown"
	}
	return s
}
