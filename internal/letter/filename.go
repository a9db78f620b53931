package letter

import (
	"regexp"
	"strings"

	"github.com/alucardeht/wayleave/internal/agreement"
)

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

const maxFilenameLen = 120

// SuggestFilename names a letter after the property: the first address line,
// the town and the last line (usually the postcode), joined with ", ".
func SuggestFilename(fields agreement.AgreementFields) string {
	lines := fields.PropertyAddress

	parts := lines
	if n := len(lines); n >= 3 {
		parts = []string{lines[0], lines[n-2], lines[n-1]}
	}

	var clean []string
	for _, p := range parts {
		p = invalidFilenameChars.ReplaceAllString(p, "")
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			clean = append(clean, p)
		}
	}

	name := strings.Join(clean, ", ")
	if len(name) > maxFilenameLen {
		name = strings.TrimRight(truncate(name, maxFilenameLen), " ,")
	}
	if name == "" {
		name = "letter"
	}
	return name + ".txt"
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return s[:cut]
}
