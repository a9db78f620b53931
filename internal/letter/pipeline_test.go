package letter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alucardeht/wayleave/internal/agreement"
)

const sampleAgreement = `WAYLEAVE AGREEMENT

Landowner: Mr John Michael Smith & Mrs Jane Smith
Property Address: Rose Cottage
  12 High Street
  Lordswood
  Kent ME5 8UD

Company: Scottish and Southern Energy plc
Wayleave Payment: £250.00 per annum
`

const sampleLetter = `Autaway Ltd t.a Darlands Suite 2063 6-8 Revenge Road Lordswood Kent ME5 8UD

E: info@darlands.co.uk W: darlands.co.uk Company No. 12185075

14 March 2024

John Smith
Rose Cottage
12 High Street
Lordswood
Kent ME5 8UD

Re: Electrical Equipment on your Land – Wayleave Agreement

We are pleased to inform you that we have now secured agreement for payment to be made to you from Scottish & Southern Energy. Please find enclosed TWO copies of your Wayleave agreement which ALL registered homeowners must sign. These documents confirm that Scottish & Southern Energy hold electrical equipment on your land and as such they will now make a wayleave payment to you. The amount being offered to you is confirmed on the agreement under 'Section 1: the Wayleave Payment'.

To help you complete the agreement, please follow these steps for both copies of the wayleave agreement:
1) All homeowners must sign where indicated on the SECOND PAGE
2) All homeowners must sign and date where indicated on the FOURTH PAGE (Title Plan)
3) Please return both signed copies using the enclosed prepaid envelope

Please note that there is no cost, or charge to you whatsoever for us setting your wayleave up. All the monies for the wayleave will be paid to, and kept by you.

Yours sincerely,
Paul Wakeford
Partner
DARLANDS
`

var sampleDate = time.Date(2024, time.March, 14, 9, 30, 0, 0, time.UTC)

func TestGenerateLetterGolden(t *testing.T) {
	got, err := GenerateLetter(sampleAgreement, sampleDate)
	require.NoError(t, err)

	if diff := cmp.Diff(sampleLetter, got); diff != "" {
		t.Errorf("letter mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateLetterIsIdempotent(t *testing.T) {
	first, err := GenerateLetter(sampleAgreement, sampleDate)
	require.NoError(t, err)
	second, err := GenerateLetter(sampleAgreement, sampleDate)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFixedPhrasesAppearOnce(t *testing.T) {
	got, err := GenerateLetter(sampleAgreement, sampleDate)
	require.NoError(t, err)

	phrases := append([]string{Reference, PaymentPhrase, StepsIntro, NoCostNotice}, SigningSteps...)
	for _, phrase := range phrases {
		assert.Equal(t, 1, strings.Count(got, phrase), "phrase %q", phrase)
	}
}

func TestPaymentAmountIsRedacted(t *testing.T) {
	got, err := GenerateLetter(sampleAgreement, sampleDate)
	require.NoError(t, err)

	assert.NotContains(t, got, "250")
	assert.NotContains(t, got, "£")
	assert.Equal(t, 1, strings.Count(got, "confirmed on the agreement"))
}

func TestRecipientBlockHasNoBlankLines(t *testing.T) {
	got, err := GenerateLetter(sampleAgreement, sampleDate)
	require.NoError(t, err)

	assert.Contains(t, got, "\n\nJohn Smith\nRose Cottage\n12 High Street\nLordswood\nKent ME5 8UD\n\n")
	assert.NotContains(t, got, "\n\n\n")
	assert.True(t, strings.HasSuffix(got, "DARLANDS\n"))
	assert.False(t, strings.HasSuffix(got, "\n\n"))
}

func TestRenderShortCompanyName(t *testing.T) {
	got := Render(agreement.AgreementFields{
		OwnerShortName:   "Jane Doe",
		PropertyAddress:  []string{"1 Mill Lane"},
		CompanyName:      agreement.CompanySSE,
		PaymentReference: "payment",
	}, time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC))

	assert.Contains(t, got, "\n\n2 January 2025\n\n")
	assert.Contains(t, got, "payment to be made to you from SSE. ")
	assert.Contains(t, got, "confirm that SSE hold electrical equipment")
}

func TestGenerateLetterUnknownCompany(t *testing.T) {
	raw := strings.Replace(sampleAgreement, "Scottish and Southern Energy plc", "National Grid", 1)

	got, err := GenerateLetter(raw, sampleDate)
	assert.Empty(t, got)

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, StageExtraction, pe.Stage)

	var extractErr *agreement.ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, agreement.FieldCompanyName, extractErr.Field)
	assert.Equal(t, agreement.NotFound, extractErr.Reason)
}

func TestGenerateLetterNumberedParty(t *testing.T) {
	raw := "Wayleave Agreement\nElectricity Act 1989\n\nThis Agreement is made between:\n(1)\n" +
		"LUCA COPPOLA AND KARON LESLEY COPPOLA of 52 Ambleside Road,\nLightwater, Surrey GU18 5UH\n" +
		"(2) Scottish and Southern Energy Power Distribution plc\nthe Wayleave Payment\n"

	got, err := GenerateLetter(raw, sampleDate)
	require.NoError(t, err)
	assert.Contains(t, got, "14 March 2024\n\nLuca Coppola\n52 Ambleside Road\nLightwater\nSurrey GU18 5UH\n\nRe:")
}

func TestGenerateLetterMissingAddress(t *testing.T) {
	raw := "Landowner: Jane Doe\n\nCompany: SSE\nPayment: per annum\n"

	got, err := GenerateLetter(raw, sampleDate)
	assert.Empty(t, got)

	var extractErr *agreement.ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, agreement.FieldPropertyAddress, extractErr.Field)
	assert.Equal(t, agreement.NotFound, extractErr.Reason)
}

func TestPipelineOverrides(t *testing.T) {
	p := Pipeline{Overrides: Overrides{
		OwnerName: "Mrs Alice Jane Brown",
		Address:   []string{"The Barn", "Chatham", "ME4 4AA"},
	}}

	fields, err := p.Prepare(sampleAgreement)
	require.NoError(t, err)
	assert.Equal(t, "Alice Brown", fields.OwnerShortName)
	assert.Equal(t, []string{"The Barn", "Chatham", "ME4 4AA"}, fields.PropertyAddress)
	assert.Equal(t, agreement.CompanyFull, fields.CompanyName)
}

func TestPipelineValidationProblems(t *testing.T) {
	p := Pipeline{
		Validator: agreement.Validator{RequirePostcode: true},
		Overrides: Overrides{OwnerName: "Madonna", Address: []string{"The Barn"}},
	}

	_, err := p.Generate(sampleAgreement, sampleDate)
	require.Error(t, err)

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, StageValidation, pe.Stage)

	problems := Problems(err)
	require.Len(t, problems, 2)
	assert.Equal(t, agreement.FieldOwnerShortName, problems[0].Field)
	assert.Equal(t, agreement.FieldPropertyAddress, problems[1].Field)
}

func TestProblemsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, Problems(errors.New("disk full")))
}
