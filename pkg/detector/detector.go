// Package detector classifies sources as legal/regulatory text or application pages.
package detector

import (
	"net/url"
	"strings"

	"github.com/dtnitsch/llm-compliance-monitor/models"
)

// Detection holds the URL-based classification of a source
type Detection struct {
	Kind       models.DocumentKind
	DomainType string  // gov, regulator, bank, local, commercial
	Country    string  // TLD-based guess: us, uk, de, ...
	Confidence float64 // 0-10 scale based on signal strength
	LegalTerms int     // legal phrases found in the text
}

// legalPhrases mark statutory or regulatory prose.
var legalPhrases = []string{
	"pursuant to", "shall ", "hereby", "regulation", "statute", "u.s.c.", "cfr",
	"act of", "rule ", "compliance", "enforcement",
}

// bankTerms mark consumer banking sites.
var bankTerms = []string{"bank", "credit", "financial", "wallet", "pay"}

// Detector decides the kind of each source.
type Detector struct {
	// LegalHosts are hosts (or host suffixes) always treated as legal sources.
	LegalHosts []string
}

// New returns a Detector with the given extra legal hosts.
func New(legalHosts []string) *Detector {
	return &Detector{LegalHosts: legalHosts}
}

// Detect classifies a source. A non-empty override ("legal" or "app") wins.
// text may be empty; when given it only adjusts confidence.
func (d *Detector) Detect(source, override, text string) *Detection {
	det := &Detection{Kind: models.KindApp, DomainType: "commercial", Country: "unknown"}

	u, err := url.Parse(strings.TrimSpace(source))
	if err != nil || u.Host == "" {
		det.DomainType = "local"
	} else {
		host := strings.ToLower(u.Hostname())
		det.DomainType = d.domainType(host)
		det.Country = detectCountry(host)
	}

	if det.DomainType == "gov" || det.DomainType == "regulator" {
		det.Kind = models.KindLegal
	}

	det.LegalTerms = countLegalTerms(text)
	det.Confidence = det.calculateConfidence()

	if k := models.ParseDocumentKind(override); k != "" {
		det.Kind = k
		det.Confidence = 10
	}
	return det
}

// Kind is a shortcut for Detect(source, override, "").Kind.
func (d *Detector) Kind(source, override string) models.DocumentKind {
	return d.Detect(source, override, "").Kind
}

// domainType identifies domain classification
func (d *Detector) domainType(host string) string {
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".mil") {
		return "gov"
	}
	for _, h := range d.LegalHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && (host == h || strings.HasSuffix(host, "."+h)) {
			return "regulator"
		}
	}
	for _, term := range bankTerms {
		if strings.Contains(host, term) {
			return "bank"
		}
	}
	return "commercial"
}

// detectCountry extracts country from TLD
func detectCountry(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return "unknown"
	}

	tld := parts[len(parts)-1]

	countries := map[string]string{
		"uk": "uk", "de": "de", "fr": "fr", "jp": "jp", "cn": "cn",
		"au": "au", "ca": "ca", "in": "in", "br": "br", "ru": "ru",
		"it": "it", "es": "es", "nl": "nl", "se": "se", "ch": "ch",
		"eu": "eu", "ie": "ie", "us": "us",
	}
	if country, ok := countries[tld]; ok {
		return country
	}

	// US implied for .gov, .mil
	if tld == "gov" || tld == "mil" {
		return "us"
	}
	return "unknown"
}

func countLegalTerms(text string) int {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	n := 0
	for _, p := range legalPhrases {
		n += strings.Count(lower, p)
	}
	return n
}

// calculateConfidence scores how sure the Kind is. Host evidence counts most.
func (det *Detection) calculateConfidence() float64 {
	score := 0.0
	switch det.DomainType {
	case "gov":
		score = 8
	case "regulator":
		score = 7
	case "bank":
		score = 6
	case "commercial":
		score = 4
	case "local":
		score = 2
	}

	terms := float64(det.LegalTerms)
	if terms > 3 {
		terms = 3
	}
	if det.Kind == models.KindLegal {
		score += terms * 0.5
	} else {
		score -= terms * 0.5
	}

	if score > 10 {
		score = 10
	}
	if score < 0 {
		score = 0
	}
	return score
}
