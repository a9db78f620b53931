// Package agreement extracts and validates the fields a wayleave letter needs
// from the text of a wayleave agreement.
//
// Extraction is rule based: each field has one rule family that reports a
// match, no match, or an ambiguous match. The extractor never guesses.
package agreement

import "strings"

type Field string

const (
	FieldOwnerFullName    Field = "ownerFullName"
	FieldOwnerShortName   Field = "ownerShortName"
	FieldPropertyAddress  Field = "propertyAddress"
	FieldCompanyName      Field = "companyName"
	FieldPaymentReference Field = "paymentReference"
)

// Canonical company forms. Every extracted CompanyName is one of these.
const (
	CompanySSE  = "SSE"
	CompanyFull = "Scottish & Southern Energy"
)

type Kind string

const (
	KindAnnual      Kind = "annual"
	KindFifteenYear Kind = "fifteen-year"
	KindUnknown     Kind = "unknown"
)

// AgreementFields is built once per document and not modified after
// validation. The signature date is not part of it: callers pass the
// current date to the renderer.
type AgreementFields struct {
	OwnerFullName    string   `json:"owner_full_name"`
	OwnerShortName   string   `json:"owner_short_name"`
	PropertyAddress  []string `json:"property_address"`
	CompanyName      string   `json:"company_name"`
	PaymentReference string   `json:"payment_reference"`
	Kind             Kind     `json:"kind"`
}

func (f AgreementFields) clone() AgreementFields {
	out := f
	out.PropertyAddress = append([]string(nil), f.PropertyAddress...)
	return out
}

func IsCanonicalCompany(name string) bool {
	return name == CompanySSE || name == CompanyFull
}

// AddressText joins the address lines with newlines.
func (f AgreementFields) AddressText() string {
	return strings.Join(f.PropertyAddress, "\n")
}
