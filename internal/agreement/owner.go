package agreement

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ownerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*(?:land\s*owners?|property\s+owners?|owners?|grantors?)\s*:\s*(.*?)\s*$`),
		regexp.MustCompile(`(?i)^\s*I/We,?\s+(.*?)\s*$`),
	}

	// Numbered clauses also start with "(1)", so a numbered party only counts
	// when no other designation exists and it names an address that ends in
	// a postcode.
	partyPattern = regexp.MustCompile(`^\s*\(1\)\s*(.*?)\s*$`)

	ownerAddressSplit = regexp.MustCompile(`(?i)\s+of\s+`)
	nonPersonOwner    = regexp.MustCompile(`(?i)\b(?:trustees?|trust|executors?|estate\s+of|ltd|limited|llp|plc)\b`)
	coOwnerSplit      = regexp.MustCompile(`(?i)\s*(?:&|\band\b|,)\s*`)
)

var nameTitles = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true, "mx": true,
	"dr": true, "prof": true, "professor": true, "rev": true, "revd": true,
	"sir": true, "dame": true, "lord": true, "lady": true,
	"capt": true, "captain": true, "major": true, "col": true,
}

var nameSuffixes = map[string]bool{
	"jr": true, "jnr": true, "sr": true, "snr": true, "esq": true,
	"mbe": true, "obe": true, "cbe": true,
}

type ownerMatch struct {
	name          string
	line          int
	inlineAddress string
}

func findOwner(doc *document) (ownerMatch, error) {
	var found []ownerMatch

	for i, line := range doc.lines {
		for _, re := range ownerPatterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if match, ok := designation(doc, i, m[1]); ok {
				found = append(found, match)
			}
			break
		}
	}

	if len(found) == 0 {
		if party, ok := numberedParty(doc); ok {
			found = append(found, party)
		}
	}
	if len(found) == 0 {
		return ownerMatch{}, notFound(FieldOwnerFullName, "no landowner designation")
	}

	first := found[0]
	for _, other := range found[1:] {
		if nameKey(other.name) != nameKey(first.name) {
			return ownerMatch{}, ambiguous(FieldOwnerFullName,
				fmt.Sprintf("found %q and %q", first.name, other.name))
		}
	}

	if nonPersonOwner.MatchString(first.name) {
		return ownerMatch{}, ambiguous(FieldOwnerFullName,
			fmt.Sprintf("%q is not held by named individuals", first.name))
	}
	if first.name == "" {
		return ownerMatch{}, notFound(FieldOwnerFullName, "empty landowner designation")
	}
	if owner, rest := firstCoOwner(first.name); rest && len(nameTokens(owner)) < 2 {
		// The match is kept so the address can still be anchored on it.
		return first, ambiguous(FieldOwnerFullName,
			fmt.Sprintf("co-owners in %q share a surname", first.name))
	}

	return first, nil
}

// designation reads the value of a designation found on line i. An empty
// value continues on the next non-blank line.
func designation(doc *document, i int, value string) (ownerMatch, bool) {
	at := i
	if value == "" {
		value, at = nextValueLine(doc, i)
	}
	if !hasLetter(value) {
		return ownerMatch{}, false
	}
	return splitOwnerValue(value, at), true
}

// numberedParty finds the first "(1)" party of a recital such as
// "This Agreement is made between: (1) NAME of ADDRESS".
func numberedParty(doc *document) (ownerMatch, bool) {
	for i, line := range doc.lines {
		m := partyPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		match, ok := designation(doc, i, m[1])
		if !ok {
			continue
		}
		rest := match.inlineAddress
		if rest == "" && nonPersonOwner.MatchString(match.name) {
			rest = match.name
		}
		if rest == "" {
			continue
		}
		if block := collectBlock(doc, match.line, rest); len(block) > 0 && EndsWithPostcode(block[len(block)-1]) {
			return match, true
		}
	}
	return ownerMatch{}, false
}

func nextValueLine(doc *document, from int) (string, int) {
	for i := from + 1; i < len(doc.lines); i++ {
		line := doc.lines[i]
		if isBlank(line) {
			continue
		}
		if isLabelled(line) {
			return "", from
		}
		return strings.TrimSpace(line), i
	}
	return "", from
}

func splitOwnerValue(value string, line int) ownerMatch {
	m := ownerMatch{line: line}

	name := value
	if loc := ownerAddressSplit.FindStringIndex(value); loc != nil && !nonPersonOwner.MatchString(value[:loc[1]]) {
		name = value[:loc[0]]
		m.inlineAddress = strings.TrimSpace(value[loc[1]:])
	}
	if idx := strings.Index(name, "("); idx >= 0 {
		name = name[:idx]
	}
	m.name = strings.Trim(strings.Join(strings.Fields(name), " "), ",;")
	return m
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func nameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ReduceName turns an owner designation into "First Last": co-owners after
// the first are dropped, as are titles, middle names and post-nominals.
// All-capital names are title-cased. A result with fewer than two tokens is
// returned as is and left for validation to reject.
func ReduceName(full string) string {
	first, _ := firstCoOwner(full)
	tokens := nameTokens(first)

	switch len(tokens) {
	case 0:
		return ""
	case 1:
		return normalizeCase(tokens[0])
	default:
		return normalizeCase(tokens[0]) + " " + normalizeCase(tokens[len(tokens)-1])
	}
}

// firstCoOwner returns the first owner of a designation and whether more
// owners follow it.
func firstCoOwner(full string) (string, bool) {
	var parts []string
	for _, part := range coOwnerSplit.Split(full, -1) {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return parts[0], len(parts) > 1
}

// nameTokens drops titles and post-nominals from a single owner's name.
func nameTokens(name string) []string {
	var tokens []string
	for _, tok := range strings.Fields(name) {
		key := strings.ToLower(strings.Trim(tok, ".,;"))
		if key == "" || nameTitles[key] || nameSuffixes[key] {
			continue
		}
		tokens = append(tokens, strings.Trim(tok, ",;"))
	}
	return tokens
}

func normalizeCase(tok string) string {
	if strings.ToUpper(tok) != tok || strings.ToLower(tok) == tok {
		return tok
	}
	return cases.Title(language.BritishEnglish).String(tok)
}
