package detector

import (
	"testing"

	"github.com/dtnitsch/llm-compliance-monitor/models"
	"github.com/stretchr/testify/assert"
)

func TestDetectKind(t *testing.T) {
	d := New([]string{"sec.gov", "consumerfinance.gov", "eur-lex.europa.eu"})

	tests := []struct {
		name       string
		source     string
		override   string
		wantKind   models.DocumentKind
		wantDomain string
	}{
		{"gov host", "https://www.nist.gov/privacy-framework", "", models.KindLegal, "gov"},
		{"mil host", "https://www.defense.mil/", "", models.KindLegal, "gov"},
		{"configured legal host", "https://eur-lex.europa.eu/eli/reg/2016/679/oj", "", models.KindLegal, "regulator"},
		{"bank host", "https://www.bankofamerica.com/privacy/", "", models.KindApp, "bank"},
		{"other commercial host", "https://example.com/terms", "", models.KindApp, "commercial"},
		{"local file", "testdata/policy.txt", "", models.KindApp, "local"},
		{"override to legal", "testdata/policy.txt", "legal", models.KindLegal, "local"},
		{"override to app", "https://www.sec.gov/privacy", "App", models.KindApp, "gov"},
		{"unknown override ignored", "https://www.sec.gov/privacy", "contract", models.KindLegal, "gov"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := d.Detect(tt.source, tt.override, "")
			assert.Equal(t, tt.wantKind, det.Kind)
			assert.Equal(t, tt.wantDomain, det.DomainType)
			assert.Equal(t, tt.wantKind, d.Kind(tt.source, tt.override))
		})
	}
}

func TestDetectCountry(t *testing.T) {
	assert.Equal(t, "us", detectCountry("www.occ.gov"))
	assert.Equal(t, "uk", detectCountry("www.fca.org.uk"))
	assert.Equal(t, "eu", detectCountry("eur-lex.europa.eu"))
	assert.Equal(t, "unknown", detectCountry("www.bankofamerica.com"))
	assert.Equal(t, "unknown", detectCountry("localhost"))
}

func TestConfidenceUsesLegalTerms(t *testing.T) {
	d := New(nil)
	plain := d.Detect("https://www.sec.gov/privacy", "", "")
	legal := d.Detect("https://www.sec.gov/privacy", "", "Pursuant to the Act of 1934, the registrant shall file under 17 CFR 240.")
	assert.Greater(t, legal.Confidence, plain.Confidence)
	assert.LessOrEqual(t, legal.Confidence, 10.0)

	app := d.Detect("https://www.bankofamerica.com/", "", "This regulation shall apply pursuant to the statute.")
	assert.Less(t, app.Confidence, d.Detect("https://www.bankofamerica.com/", "", "").Confidence)

	assert.Equal(t, 10.0, d.Detect("notes.txt", "legal", "").Confidence)
}
