package agreement

import (
	"regexp"
	"strings"
)

var (
	paymentLabel   = regexp.MustCompile(`(?i)^\s*(wayleave\s+payment|annual\s+payment|payment|compensation|consideration)\s*:`)
	paymentWording = regexp.MustCompile(`(?i)\b(wayleave\s+payment|per\s+annum|compensation|consideration|payment)\b|£\s?\d`)
)

// findPayment only establishes that payment terms exist. The reference it
// returns is the keyword that proved it, never an amount.
func findPayment(doc *document) (string, error) {
	for _, line := range doc.lines {
		if m := paymentLabel.FindStringSubmatch(line); m != nil {
			return paymentKeyword(m[1]), nil
		}
	}
	for _, line := range doc.lines {
		m := paymentWording.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if m[1] == "" {
			return "amount", nil
		}
		return paymentKeyword(m[1]), nil
	}
	return "", notFound(FieldPaymentReference, "no payment terms")
}

func paymentKeyword(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
