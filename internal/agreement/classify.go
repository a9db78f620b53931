package agreement

import "strings"

var annualIndicators = []string{
	"SCHEDULE OF PAYMENTS",
	"£ per annum",
	"Back Pay",
	"The Company shall pay to me/us during the existence of the works",
}

var fifteenYearIndicators = []string{
	"means a term commencing on the date hereof",
	"the Term",
	"the Wayleave Payment",
	"15 years",
	"following the expiry of 15 years",
}

// Classify tells annual agreements from fifteen-year ones by counting the
// stock phrases each form uses. A "£ per annum" payment always means annual
// and a definition of "the Term" breaks a tie towards fifteen-year.
func Classify(raw string) Kind {
	annual := countIndicators(raw, annualIndicators)
	fifteen := countIndicators(raw, fifteenYearIndicators)

	switch {
	case annual > fifteen || strings.Contains(raw, "£ per annum"):
		return KindAnnual
	case fifteen > annual || strings.Contains(raw, `"the Term" means`):
		return KindFifteenYear
	default:
		return KindUnknown
	}
}

func countIndicators(raw string, indicators []string) int {
	n := 0
	for _, s := range indicators {
		if strings.Contains(raw, s) {
			n++
		}
	}
	return n
}
