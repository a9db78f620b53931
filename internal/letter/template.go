// Package letter renders the wayleave cover letter and runs the
// extract, validate and render pipeline that produces it.
package letter

import (
	"strings"
	"text/template"
	"time"

	"github.com/alucardeht/wayleave/internal/agreement"
)

const (
	Header        = "Autaway Ltd t.a Darlands Suite 2063 6-8 Revenge Road Lordswood Kent ME5 8UD"
	Contact       = "E: info@darlands.co.uk W: darlands.co.uk Company No. 12185075"
	Reference     = "Re: Electrical Equipment on your Land – Wayleave Agreement"
	PaymentPhrase = "confirmed on the agreement"
	StepsIntro    = "To help you complete the agreement, please follow these steps for both copies of the wayleave agreement:"
	NoCostNotice  = "Please note that there is no cost, or charge to you whatsoever for us setting your wayleave up. All the monies for the wayleave will be paid to, and kept by you."
	DateLayout    = "2 January 2006"
)

var SigningSteps = []string{
	"1) All homeowners must sign where indicated on the SECOND PAGE",
	"2) All homeowners must sign and date where indicated on the FOURTH PAGE (Title Plan)",
	"3) Please return both signed copies using the enclosed prepaid envelope",
}

var Closing = []string{
	"Yours sincerely,",
	"Paul Wakeford",
	"Partner",
	"DARLANDS",
}

// Sections are separated by exactly one blank line and the letter ends with
// a single newline. Nothing inside a section is blank.
var letterTemplate = template.Must(template.New("letter").Parse(`{{.Header}}

{{.Contact}}

{{.Date}}

{{.Name}}
{{range .Address}}{{.}}
{{end}}
{{.Reference}}

We are pleased to inform you that we have now secured agreement for payment to be made to you from {{.Company}}. Please find enclosed TWO copies of your Wayleave agreement which ALL registered homeowners must sign. These documents confirm that {{.Company}} hold electrical equipment on your land and as such they will now make a wayleave payment to you. The amount being offered to you is {{.PaymentPhrase}} under 'Section 1: the Wayleave Payment'.

{{.StepsIntro}}
{{range .Steps}}{{.}}
{{end}}
{{.NoCost}}

{{range .Closing}}{{.}}
{{end}}`))

type letterData struct {
	Header        string
	Contact       string
	Date          string
	Name          string
	Address       []string
	Reference     string
	Company       string
	PaymentPhrase string
	StepsIntro    string
	Steps         []string
	NoCost        string
	Closing       []string
}

// Render expects fields that passed validation. The payment reference is
// never written out; the letter always points the reader at the agreement.
func Render(fields agreement.AgreementFields, today time.Time) string {
	data := letterData{
		Header:        Header,
		Contact:       Contact,
		Date:          today.Format(DateLayout),
		Name:          fields.OwnerShortName,
		Address:       fields.PropertyAddress,
		Reference:     Reference,
		Company:       fields.CompanyName,
		PaymentPhrase: PaymentPhrase,
		StepsIntro:    StepsIntro,
		Steps:         SigningSteps,
		NoCost:        NoCostNotice,
		Closing:       Closing,
	}

	var b strings.Builder
	if err := letterTemplate.Execute(&b, data); err != nil {
		panic("letter: render template: " + err.Error())
	}
	return b.String()
}
