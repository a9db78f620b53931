package agreement

import (
	"regexp"
	"strings"
)

var (
	postcodePattern  = regexp.MustCompile(`^[A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2}$`)
	trailingPostcode = regexp.MustCompile(`(?i)(?:^|\s)([A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2})$`)
)

// ValidPostcode reports whether s is a UK postcode such as "ME5 8UD".
func ValidPostcode(s string) bool {
	return postcodePattern.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

func EndsWithPostcode(line string) bool {
	return trailingPostcode.MatchString(strings.TrimSpace(line))
}

// Postcode returns the postcode that ends line, upper-cased.
func Postcode(line string) (string, bool) {
	m := trailingPostcode.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}
