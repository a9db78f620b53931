package agreement

import (
	"regexp"
	"strings"
	"unicode"
)

// Hints supply values the caller already knows. A hinted field skips its
// extraction rule; the value is still validated later.
type Hints struct {
	OwnerName string
	Address   []string
}

var labelledLine = regexp.MustCompile(`^\s*[A-Za-z][A-Za-z'/&]*(?:\s+[A-Za-z'/&]+){0,3}\s*:(?:\s|$)`)

type document struct {
	lines []string
}

func newDocument(raw string) *document {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(strings.ReplaceAll(line, "\t", " "), unicode.IsSpace)
	}
	return &document{lines: lines}
}

func isLabelled(line string) bool {
	return labelledLine.MatchString(line)
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// Extract runs the owner, address, company and payment rules in that order
// and stops at the first mandatory field that cannot be located exactly once.
func Extract(raw string) (AgreementFields, error) {
	return ExtractWithHints(raw, Hints{})
}

func ExtractWithHints(raw string, hints Hints) (AgreementFields, error) {
	doc := newDocument(raw)
	var fields AgreementFields

	owner, ownerErr := findOwner(doc)
	switch {
	case hints.OwnerName != "":
		fields.OwnerFullName = strings.TrimSpace(hints.OwnerName)
	case ownerErr != nil:
		return AgreementFields{}, ownerErr
	default:
		fields.OwnerFullName = owner.name
	}
	fields.OwnerShortName = ReduceName(fields.OwnerFullName)

	if len(hints.Address) > 0 {
		fields.PropertyAddress = append([]string(nil), hints.Address...)
	} else {
		var anchor *ownerMatch
		if owner.name != "" {
			anchor = &owner
		}
		address, err := findAddress(doc, anchor)
		if err != nil {
			return AgreementFields{}, err
		}
		fields.PropertyAddress = address
	}

	company, err := findCompany(doc)
	if err != nil {
		return AgreementFields{}, err
	}
	fields.CompanyName = company

	payment, err := findPayment(doc)
	if err != nil {
		return AgreementFields{}, err
	}
	fields.PaymentReference = payment
	fields.Kind = Classify(raw)

	return fields, nil
}
