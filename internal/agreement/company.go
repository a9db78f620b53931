package agreement

import (
	"fmt"
	"regexp"
	"strings"
)

var companyLabel = regexp.MustCompile(`(?i)^\s*(?:the\s+)?(?:electricity\s+)?(?:company|grantee)\s*:\s*(.*?)\s*$`)

type companyAlias struct {
	name      string
	canonical string
	pattern   *regexp.Regexp
}

// Full forms come first so a prose scan prefers them over the short form.
var companyAliases = newAliasTable(map[string][]string{
	CompanyFull: {
		"scottish and southern energy",
		"scottish and southern energy plc",
		"scottish and southern energy power distribution",
		"scottish and southern electricity networks",
	},
	CompanySSE: {
		"sse",
		"sse plc",
		"sse networks",
		"sse power distribution",
		"ssen",
		"southern electric power distribution",
		"southern electric power distribution plc",
	},
})

var otherOperators = []string{
	"national grid",
	"uk power networks",
	"northern powergrid",
	"electricity north west",
	"western power distribution",
	"national grid electricity distribution",
	"sp energy networks",
	"sp manweb",
	"northern ireland electricity",
}

var otherOperatorPatterns = compileAliases(otherOperators)

func newAliasTable(groups map[string][]string) []companyAlias {
	var table []companyAlias
	for _, canonical := range []string{CompanyFull, CompanySSE} {
		for _, name := range groups[canonical] {
			table = append(table, companyAlias{
				name:      name,
				canonical: canonical,
				pattern:   aliasPattern(name),
			})
		}
	}
	return table
}

func compileAliases(names []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(names))
	for i, name := range names {
		out[i] = aliasPattern(name)
	}
	return out
}

func aliasPattern(name string) *regexp.Regexp {
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b` + strings.Join(words, `\s+`) + `\b`)
}

// normalizeCompany lower-cases s, spells out "&" and drops full stops so
// "S.S.E. plc" and "Scottish & Southern Energy" compare against the table.
func normalizeCompany(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, ".", "")
	return strings.Join(strings.Fields(s), " ")
}

// CanonicalCompany maps a company reference to its canonical form.
func CanonicalCompany(name string) (string, bool) {
	key := normalizeCompany(stripParenthetical(name))
	for _, a := range companyAliases {
		if a.name == key {
			return a.canonical, true
		}
	}
	return "", false
}

func findCompany(doc *document) (string, error) {
	var labelled []string
	for i, line := range doc.lines {
		m := companyLabel.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value := m[1]
		if value == "" {
			value, _ = nextValueLine(doc, i)
		}
		if value == "" {
			continue
		}
		canonical, err := labelledCompany(value)
		if err != nil {
			return "", err
		}
		labelled = append(labelled, canonical)
	}

	if len(labelled) > 0 {
		for _, c := range labelled[1:] {
			if c != labelled[0] {
				return "", ambiguous(FieldCompanyName,
					fmt.Sprintf("labelled as both %q and %q", labelled[0], c))
			}
		}
		return labelled[0], nil
	}

	return proseCompany(normalizeCompany(strings.Join(doc.lines, "\n")))
}

func labelledCompany(value string) (string, error) {
	if canonical, ok := CanonicalCompany(value); ok {
		return canonical, nil
	}
	normalized := normalizeCompany(stripParenthetical(value))
	if otherOperator(normalized) != "" {
		return "", notFound(FieldCompanyName, fmt.Sprintf("%q is not a recognised company", value))
	}
	if canonical := scanAliases(normalized); canonical != "" {
		return canonical, nil
	}
	return "", notFound(FieldCompanyName, fmt.Sprintf("%q is not a recognised company", value))
}

func proseCompany(text string) (string, error) {
	canonical := scanAliases(text)
	op := otherOperator(text)

	switch {
	case canonical != "" && op != "":
		return "", ambiguous(FieldCompanyName,
			fmt.Sprintf("text refers to both %s and %s", canonical, op))
	case op != "":
		return "", notFound(FieldCompanyName, fmt.Sprintf("text refers to %s", op))
	case canonical == "":
		return "", notFound(FieldCompanyName, "no recognised company reference")
	}
	return canonical, nil
}

func scanAliases(text string) string {
	for _, a := range companyAliases {
		if a.pattern.MatchString(text) {
			return a.canonical
		}
	}
	return ""
}

func otherOperator(text string) string {
	for i, re := range otherOperatorPatterns {
		if re.MatchString(text) {
			return otherOperators[i]
		}
	}
	return ""
}

func stripParenthetical(s string) string {
	if idx := strings.Index(s, "("); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
