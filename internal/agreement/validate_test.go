package agreement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() AgreementFields {
	return AgreementFields{
		OwnerFullName:    "Mr John Smith",
		OwnerShortName:   "John Smith",
		PropertyAddress:  []string{"12 High Street", "Lordswood", "ME5 8UD"},
		CompanyName:      CompanySSE,
		PaymentReference: "wayleave payment",
	}
}

func TestValidateAcceptsValidFields(t *testing.T) {
	in := validFields()
	out, err := Validate(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestValidateCollectsEveryViolation(t *testing.T) {
	_, err := Validate(AgreementFields{
		OwnerShortName:  "John",
		PropertyAddress: []string{"", " 1 High Street"},
		CompanyName:     "National Grid",
	})
	require.Error(t, err)

	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, []Field{
		FieldOwnerShortName,
		FieldPropertyAddress,
		FieldPropertyAddress,
		FieldCompanyName,
		FieldPaymentReference,
	}, errs.Fields())
}

func TestValidateMissingAddress(t *testing.T) {
	f := validFields()
	f.PropertyAddress = nil

	_, err := Validate(f)
	var errs ValidationErrors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, FieldPropertyAddress, errs[0].Field)
	assert.Equal(t, "missing", errs[0].Reason)
}

func TestValidateRequirePostcode(t *testing.T) {
	v := Validator{RequirePostcode: true}

	_, err := v.Validate(validFields())
	assert.NoError(t, err)

	f := validFields()
	f.PropertyAddress = []string{"12 High Street", "Lordswood"}
	_, err = v.Validate(f)
	assert.Error(t, err)

	_, err = Validate(f)
	assert.NoError(t, err, "postcode is optional by default")
}

func TestValidateDoesNotShareAddress(t *testing.T) {
	in := validFields()
	out, err := Validate(in)
	require.NoError(t, err)

	out.PropertyAddress[0] = "changed"
	assert.Equal(t, "12 High Street", in.PropertyAddress[0])
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: FieldOwnerShortName, Reason: "missing"},
		{Field: FieldCompanyName, Reason: "missing"},
	}
	assert.Equal(t, "invalid agreement fields: ownerShortName: missing; companyName: missing", errs.Error())
}
