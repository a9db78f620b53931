package agreement

import (
	"fmt"
	"strings"
)

// Validator checks extracted fields before rendering. The zero value applies
// the mandatory-field rules only.
type Validator struct {
	RequirePostcode bool
}

// Validate applies the zero Validator.
func Validate(f AgreementFields) (AgreementFields, error) {
	return Validator{}.Validate(f)
}

// Validate returns f unchanged when every rule holds. Otherwise it returns
// every violation at once as ValidationErrors.
func (v Validator) Validate(f AgreementFields) (AgreementFields, error) {
	var errs ValidationErrors
	add := func(field Field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	switch tokens := strings.Fields(f.OwnerShortName); {
	case f.OwnerShortName == "":
		add(FieldOwnerShortName, "missing")
	case len(tokens) != 2:
		add(FieldOwnerShortName, "%q must be a given name and a surname", f.OwnerShortName)
	case strings.Join(tokens, " ") != f.OwnerShortName:
		add(FieldOwnerShortName, "%q has stray whitespace", f.OwnerShortName)
	}

	if len(f.PropertyAddress) == 0 {
		add(FieldPropertyAddress, "missing")
	}
	for i, line := range f.PropertyAddress {
		switch {
		case strings.TrimSpace(line) == "":
			add(FieldPropertyAddress, "line %d is empty", i+1)
		case strings.TrimSpace(line) != line:
			add(FieldPropertyAddress, "line %d has surrounding whitespace", i+1)
		case strings.ContainsAny(line, "\r\n"):
			add(FieldPropertyAddress, "line %d spans several lines", i+1)
		}
	}
	if v.RequirePostcode && len(f.PropertyAddress) > 0 {
		last := f.PropertyAddress[len(f.PropertyAddress)-1]
		if !EndsWithPostcode(last) {
			add(FieldPropertyAddress, "last line %q does not end in a UK postcode", last)
		}
	}

	switch {
	case f.CompanyName == "":
		add(FieldCompanyName, "missing")
	case !IsCanonicalCompany(f.CompanyName):
		add(FieldCompanyName, "%q is not a canonical company name", f.CompanyName)
	}

	if strings.TrimSpace(f.PaymentReference) == "" {
		add(FieldPaymentReference, "missing")
	}

	if len(errs) > 0 {
		return AgreementFields{}, errs
	}
	return f.clone(), nil
}
