package agreement

import "testing"

func TestCanonicalCompany(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SSE", CompanySSE},
		{"S.S.E. plc", CompanySSE},
		{"SSEN", CompanySSE},
		{"Southern Electric Power Distribution plc", CompanySSE},
		{"Scottish and Southern Energy", CompanyFull},
		{"Scottish & Southern Energy plc", CompanyFull},
		{"scottish and southern energy PLC (the Company)", CompanyFull},
	}
	for _, tt := range tests {
		got, ok := CanonicalCompany(tt.in)
		if !ok || got != tt.want {
			t.Errorf("CanonicalCompany(%q) = %q, %v; want %q", tt.in, got, ok, tt.want)
		}
	}

	if _, ok := CanonicalCompany("National Grid"); ok {
		t.Error("National Grid should not map to a canonical company")
	}
}

func TestProseCompanyPrefersFullForm(t *testing.T) {
	doc := newDocument("SSE, trading as Scottish and Southern Energy plc, is the Company.\n")
	got, err := findCompany(doc)
	if err != nil {
		t.Fatalf("findCompany: %v", err)
	}
	if got != CompanyFull {
		t.Errorf("expected %q, got %q", CompanyFull, got)
	}
}

func TestProseCompanyWithOtherOperator(t *testing.T) {
	doc := newDocument("Works by SSE on behalf of UK Power Networks.\n")
	_, err := findCompany(doc)
	if err == nil {
		t.Fatal("expected an error")
	}
	extractErr, ok := err.(*ExtractionError)
	if !ok || extractErr.Reason != Ambiguous {
		t.Errorf("expected an ambiguous company, got %v", err)
	}
}

func TestPostcodes(t *testing.T) {
	if !ValidPostcode("me5 8ud") {
		t.Error("me5 8ud should be valid")
	}
	if ValidPostcode("ME5") {
		t.Error("ME5 should not be valid")
	}
	if !EndsWithPostcode("Lordswood, Kent ME5 8UD") {
		t.Error("expected trailing postcode")
	}
	if pc, ok := Postcode("London SW1A 1AA"); !ok || pc != "SW1A 1AA" {
		t.Errorf("expected SW1A 1AA, got %q", pc)
	}
}
