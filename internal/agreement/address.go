package agreement

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	addressLabel = regexp.MustCompile(`(?i)^\s*(?:property(?:\s+address)?|site\s+address|address)\s*:\s*(.*?)\s*$`)
	leadingOf    = regexp.MustCompile(`(?i)^of\s+`)
	beingClause  = regexp.MustCompile(`(?i)\bbeing\b`)
)

const maxProseFields = 12

func findAddress(doc *document, anchor *ownerMatch) ([]string, error) {
	var blocks [][]string
	labels := 0

	for i, line := range doc.lines {
		m := addressLabel.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		labels++
		if block := collectBlock(doc, i, m[1]); len(block) > 0 {
			blocks = append(blocks, block)
		}
	}

	if len(blocks) > 0 {
		first := blocks[0]
		for _, other := range blocks[1:] {
			if !sameAddress(first, other) {
				return nil, ambiguous(FieldPropertyAddress,
					fmt.Sprintf("found %q and %q", strings.Join(first, ", "), strings.Join(other, ", ")))
			}
		}
		return first, nil
	}
	if labels > 0 {
		return nil, notFound(FieldPropertyAddress, "address label has no lines")
	}

	if anchor != nil {
		if block := collectBlock(doc, anchor.line, anchor.inlineAddress); len(block) > 0 {
			return block, nil
		}
	}

	return nil, notFound(FieldPropertyAddress, "no address block follows the landowner designation")
}

// collectBlock gathers the address that starts with first (the text after a
// label, possibly empty) and continues on the lines after index from. The
// block ends at a labelled line, two blank lines in a row, a prose sentence,
// a "being ..." clause, a parenthesis, or a line ending in a postcode.
func collectBlock(doc *document, from int, first string) []string {
	var raw []string
	done := false

	if strings.TrimSpace(first) != "" {
		line, stop := cleanAddressLine(first)
		if line != "" {
			raw = append(raw, line)
		}
		done = stop || EndsWithPostcode(line)
	}

	blanks := 0
	for i := from + 1; !done && i < len(doc.lines); i++ {
		line := doc.lines[i]
		if isBlank(line) {
			blanks++
			if blanks >= 2 {
				break
			}
			continue
		}
		if isLabelled(line) || looksLikeProse(line) {
			break
		}
		blanks = 0

		cleaned, stop := cleanAddressLine(line)
		if cleaned != "" {
			raw = append(raw, cleaned)
		}
		done = stop || EndsWithPostcode(cleaned)
	}

	return splitAddressLines(raw)
}

func cleanAddressLine(line string) (string, bool) {
	line = strings.Join(strings.Fields(line), " ")
	line = leadingOf.ReplaceAllString(line, "")

	stop := false
	if loc := beingClause.FindStringIndex(line); loc != nil {
		line = line[:loc[0]]
		stop = true
	}
	if idx := strings.Index(line, "("); idx >= 0 {
		line = line[:idx]
		stop = true
	}

	return strings.Trim(strings.TrimSpace(line), ",;"), stop
}

func splitAddressLines(raw []string) []string {
	var lines []string
	for _, line := range raw {
		for _, part := range strings.Split(line, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				lines = append(lines, part)
			}
		}
	}
	return lines
}

func looksLikeProse(line string) bool {
	words := strings.Fields(line)
	if len(words) > maxProseFields {
		return true
	}
	return len(words) > 6 && strings.HasSuffix(strings.TrimSpace(line), ".")
}

func sameAddress(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
